//Package ctz reads and writes the compressed-text trajectory format: a
//small header, then one line of fixed-precision integers per atom and a
//"*" terminator line carrying the unit cell after every frame. The whole
//stream goes through a compressor picked from the file extension, so the
//format is sequential only: it can't be rewound or randomly accessed.
package ctz

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/dmolina/gomd"
	"github.com/dmolina/gomd/frame"
)

const (
	lzwLitwidth int = 8
	defaultPrec int = 3
)

//Write!

//CTZW is a compressed-text trajectory open for writing. It implements
//gomd.Sink.
type CTZW struct {
	f         *os.File
	h         io.WriteCloser
	natoms    int
	filename  string
	writeable bool
	prec      int
}

//NewWriter creates the named file for a trajectory of natoms atoms. The
//extension picks the compressor: .ctl is lzw, .ctz gzip, .ctr flate,
//anything else zstd. Only the first header map is written; the "prec" key
//sets the number of decimals kept per coordinate.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*CTZW, error) {
	level := 9
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	S := new(CTZW)
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"os.Create", "NewWriter"}, true}
	}
	S.filename = name
	S.h, err = anyNewWriter(name, S.f, level)
	if err != nil {
		return nil, Error{"Can't set up compressor: " + err.Error(), S.filename, []string{"NewWriter"}, true}
	}
	S.natoms = natoms
	S.writeable = true
	S.prec = defaultPrec
	if header != nil {
		if p, ok := header["prec"]; ok {
			prec, err := strconv.Atoi(p)
			if err == nil {
				S.prec = prec
			} else {
				log.Printf("Invalid precision for trajectory %s. Will use the default", S.filename)
			}
		}
		headerstr := ""
		for k, v := range header {
			headerstr += fmt.Sprintf("%s=%v\n", k, v)
		}
		S.h.Write([]byte(headerstr))
	}
	S.h.Write([]byte(fmt.Sprintf("** %d\n", S.natoms)))
	return S, nil
}

func anyNewWriter(name string, f io.Writer, level int) (io.WriteCloser, error) {
	zwriter := func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	gzipwriter := func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	var maker func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		maker = func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		maker = gzipwriter
	case 'r':
		maker = zwriter
	default:
		maker = zstdwriter
	}
	return maker(f)
}

//NumAtoms returns the number of atoms the trajectory expects per frame.
func (S *CTZW) NumAtoms() int {
	return S.natoms
}

//FileName returns the name of the open file.
func (S *CTZW) FileName() string {
	return S.filename
}

//Format returns "ctz".
func (S *CTZW) Format() string {
	return "ctz"
}

//Units returns the native units of the format: Angstrom and picosecond.
func (S *CTZW) Units() map[string]string {
	return map[string]string{"length": "A", "time": "ps"}
}

//WriteNext serializes one frame: a line of 3 scaled integers per atom and
//the terminator line with the 6 unit-cell parameters.
func (S *CTZW) WriteNext(f *frame.Frame) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WriteNext"}, true}
	}
	if f == nil {
		return Error{NilCoordinates, S.filename, []string{"WriteNext"}, true}
	}
	if f.Len() != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", f.Len(), S.natoms), S.filename, []string{"WriteNext"}, true}
	}
	var floats [3]float32
	it := f.Iter()
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		floats = v
		if _, err := S.h.Write([]byte(coordsEncode(floats, S.prec))); err != nil {
			return Error{err.Error(), S.filename, []string{"h.Write", "WriteNext"}, true}
		}
	}
	c := f.Cell()
	term := fmt.Sprintf("* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", c[0], c[1], c[2], c[3], c[4], c[5])
	if _, err := S.h.Write([]byte(term)); err != nil {
		return Error{err.Error(), S.filename, []string{"h.Write", "WriteNext"}, true}
	}
	return nil
}

//Close flushes the compressor and releases the file. Closing twice is a
//no-op.
func (S *CTZW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	if err := S.h.Close(); err != nil {
		S.f.Close()
		return Error{err.Error(), S.filename, []string{"h.Close", "Close"}, true}
	}
	if err := S.f.Close(); err != nil {
		return Error{err.Error(), S.filename, []string{"f.Close", "Close"}, true}
	}
	return nil
}

//Read!

//CTZ is a compressed-text trajectory open for reading. It implements
//gomd.Source. The stream only moves forward, so it does not implement
//gomd.FrameSeeker, and the total frame count is unknown (negative) until
//the end is reached.
type CTZ struct {
	f        *os.File
	z        io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
	readLast bool
}

//This will cause additional indirections, but each call takes enough time
//to make those delays irrelevant. Also, why couldn't *zstd.Decoder
//implement io.ReadCloser? :-(
type stdql struct {
	closeql func()
	*zstd.Decoder
}

//Close closes the object. It can not be used after this call.
func (s stdql) Close() error {
	s.closeql()
	return nil
}

//New opens the named trajectory for reading and returns the handle, a map
//with the header metadata (or nil, if there is none), and error or nil.
func New(name string) (*CTZ, map[string]string, error) {
	S := new(CTZ)
	S.natoms = -1 //just so we know if things don't work
	var m map[string]string
	var err error
	S.filename = name
	S.f, err = os.Open(S.filename)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), S.filename, []string{"os.Open", "New"}, true}
	}
	S.z, err = anyNewReader(name, bufio.NewReader(S.f))
	if err != nil {
		return nil, nil, Error{"Can't set up decompressor: " + err.Error(), S.filename, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.z)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			return nil, nil, Error{"Can't read header: " + err.Error(), S.filename, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.Contains(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from %q", str), S.filename, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from %q: %s", nat[1], err.Error()), S.filename, []string{"New"}, true}
			}
			break
		}
		kv := strings.Split(str, "=")
		if len(kv) != 2 {
			return nil, nil, Error{fmt.Sprintf("Malformed header line %q", str), S.filename, []string{"New"}, true}
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[kv[0]] = kv[1]
	}
	S.prec = defaultPrec
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil {
			S.prec = prec
		} else {
			log.Printf("Invalid precision for trajectory %s. Will assume the default", S.filename)
		}
	}
	S.readable = true
	return S, m, nil
}

func anyNewReader(name string, f io.Reader) (io.ReadCloser, error) {
	zreader := func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	gzreader := func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	zstdreader := func(a io.Reader) (io.ReadCloser, error) {
		r, err := zstd.NewReader(a)
		if err != nil {
			return nil, err
		}
		return &stdql{r.Close, r}, nil
	}
	var maker func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		maker = func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		maker = gzreader
	case 'r':
		maker = zreader
	default:
		maker = zstdreader
	}
	return maker(f)
}

//NumFrames returns a negative number: the count is not known until the
//whole stream has been read.
func (S *CTZ) NumFrames() int {
	return -1
}

//NumAtoms returns the number of atoms in each frame of the trajectory.
func (S *CTZ) NumAtoms() int {
	return S.natoms
}

//Fixed returns 0; the format has no fixed atoms.
func (S *CTZ) Fixed() int {
	return 0
}

//FileName returns the name of the open file.
func (S *CTZ) FileName() string {
	return S.filename
}

//Format returns "ctz".
func (S *CTZ) Format() string {
	return "ctz"
}

//Units returns the native units of the format: Angstrom and picosecond.
func (S *CTZ) Units() map[string]string {
	return map[string]string{"length": "A", "time": "ps"}
}

//ReadNext fetches the next frame into f. At the end of the stream it
//returns the harmless last-frame sentinel and closes the handle.
func (S *CTZ) ReadNext(f *frame.Frame) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"ReadNext"}, true}
	}
	if f == nil {
		return Error{NilCoordinates, S.filename, []string{"ReadNext"}, true}
	}
	if f.Len() != S.natoms {
		return Error{fmt.Sprintf("frame holds %d atoms, but trajectory has %d", f.Len(), S.natoms), S.filename, []string{"ReadNext"}, true}
	}
	if S.readLast {
		return gomd.NewLastFrameError(S.filename, "ctz")
	}
	var temp [3]float32
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadBytes('\n')
		if err != nil {
			//EOF should only happen when reading the first atom.
			if err == io.EOF && i == 0 {
				//nothing bad happened here, the trajectory just ended.
				S.readLast = true
				S.Close()
				return gomd.NewLastFrameError(S.filename, "ctz")
			}
			return Error{err.Error(), S.filename, []string{"h.ReadBytes", "ReadNext"}, true}
		}
		if err := coordsDecode(string(b[:len(b)-1]), &temp, S.prec); err != nil {
			return Error{err.Error(), S.filename, []string{"ReadNext"}, true}
		}
		f.Set(i, temp)
	}
	term, err := S.h.ReadString('\n')
	if err != nil {
		return Error{"Can't read the frame termination mark: " + err.Error(), S.filename, []string{"ReadNext"}, true}
	}
	if term[0] != '*' {
		return Error{WrongFormat + ": wrong number of atoms in frame", S.filename, []string{"ReadNext"}, true}
	}
	f.SetCell(parseCell(term, S.filename))
	return nil
}

//parseCell reads the 6 cell parameters off a frame terminator line. A
//malformed cell is logged and zeroed, not an error.
func parseCell(term, filename string) [6]float32 {
	var cell [6]float32
	fields := strings.Fields(strings.TrimSpace(term))
	if len(fields) < 7 { //the "*" and the 6 numbers
		if len(fields) > 1 {
			log.Printf("Trajectory file %s does not contain (correct) cell information: %s", filename, fields)
		}
		return cell
	}
	for j, v := range fields[1:7] {
		p, err := strconv.ParseFloat(v, 32)
		if err != nil {
			log.Printf("Failed to read cell in a frame from %s", filename)
			return [6]float32{}
		}
		cell[j] = float32(p)
	}
	return cell
}

func coordsEncode(f [3]float32, prec int) string {
	p := math.Pow(10.0, float64(prec))
	var temp [3]int
	for i, v := range f {
		temp[i] = int(math.RoundToEven(float64(v) * p))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

func coordsDecode(str string, temp *[3]float32, prec int) error {
	p := math.Pow(10.0, float64(prec))
	s := strings.Fields(str)
	if len(s) < 3 {
		return fmt.Errorf("ill formated coordinates line, too few fields: %s", str)
	}
	if len(s) > 3 {
		return fmt.Errorf("ill formated coordinates line, too many fields: %s", str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("can't parse coordinate %d (%s): %s", i, v, err.Error())
		}
		temp[i] = float32(float64(f) / p)
	}
	return nil
}

//Close closes the object and marks it as unreadable. Closing twice is a
//no-op.
func (S *CTZ) Close() error {
	if !S.readable {
		return nil
	}
	S.readable = false
	if err := S.z.Close(); err != nil {
		S.f.Close()
		return Error{err.Error(), S.filename, []string{"z.Close", "Close"}, true}
	}
	if err := S.f.Close(); err != nil {
		return Error{err.Error(), S.filename, []string{"f.Close", "Close"}, true}
	}
	return nil
}

//Errors

//Error is the general structure for ctz trajectory errors. It fulfills
//gomd.Error and gomd.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("ctz file %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error and returns the decoration
//slice.
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the failing trajectory was associated.
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file (always "ctz") associated to the error.
func (err Error) Format() string { return "ctz" }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the ctz file or frame"
)
