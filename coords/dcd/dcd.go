/*
 * dcd.go, part of gomd
 *
 * Copyright 2024 Daniel Molina <dmolina{at}udecDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License  as published by
 * the Free Software Foundation; either version 2.1 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 */

//Package dcd reads and writes Charmm/NAMD binary trajectories. The format
//stores each frame as three contiguous float32 blocks, one per cartesian
//axis, optionally preceded by a unit-cell block. Frames have a fixed byte
//size, so the reader supports random access by plain offset arithmetic.
package dcd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/dmolina/gomd"
	"github.com/dmolina/gomd/frame"
)

const mAXTITLE int32 = 80

//DCD is a Charmm/NAMD binary trajectory open for reading. It implements
//gomd.Source, gomd.FrameSeeker and gomd.Stepper. Only little-endian,
//Charmm/NAMD >= 2.1 files without fixed atoms are supported.
type DCD struct {
	natoms     int32
	nframes    int
	istart     int32
	nsavc      int32
	delta      float32
	fixed      int32
	charmm     bool
	extrablock bool
	fourdim    bool
	readLast   bool
	readable   bool
	filename   string
	fh         *os.File
	endian     binary.ByteOrder
	headerSize int64
	frameSize  int64
}

//New opens the named DCD file and parses its header.
func New(filename string) (*DCD, error) {
	D := new(DCD)
	D.filename = filename
	D.endian = binary.LittleEndian
	if err := D.initRead(filename); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(D, func(D *DCD) {
		D.fh.Close()
	})
	return D, nil
}

func (D *DCD) initRead(name string) error {
	wrapbinerr := func(err error) error {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	NB := bytes.NewBuffer
	var err error
	D.fh, err = os.Open(name)
	if err != nil {
		return Error{UnableToOpen + ": " + err.Error(), D.filename, []string{"os.Open", "initRead"}, true}
	}
	var check int32
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	//The first record marker of a valid little-endian DCD is always 84.
	if check != 84 {
		return Error{WrongEndianness, D.filename, []string{"initRead"}, true}
	}
	magic := make([]byte, 4)
	if err := binary.Read(D.fh, D.endian, magic); err != nil {
		return wrapbinerr(err)
	}
	if string(magic) != "CORD" {
		return Error{WrongFormat + ": bad magic number", D.filename, []string{"initRead"}, true}
	}
	//The 20 icntrl ints come as one chunk so the fields can be picked out
	//by offset.
	buf := make([]byte, 80)
	if err := binary.Read(D.fh, D.endian, buf); err != nil {
		return wrapbinerr(err)
	}
	var nset int32
	if err := binary.Read(NB(buf[0:]), D.endian, &nset); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(NB(buf[4:]), D.endian, &D.istart); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(NB(buf[8:]), D.endian, &D.nsavc); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(NB(buf[32:]), D.endian, &D.fixed); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(NB(buf[36:]), D.endian, &D.delta); err != nil {
		return wrapbinerr(err)
	}
	//X-plor sets the last icntrl int to zero, Charmm to its version
	//number. Only Charmm/NAMD files carry the extra flags we rely on.
	if err := binary.Read(NB(buf[76:]), D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check == 0 {
		return Error{"X-plor DCD not supported", D.filename, []string{"initRead"}, true}
	}
	D.charmm = true
	if err := binary.Read(NB(buf[40:]), D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	D.extrablock = check != 0
	if err := binary.Read(NB(buf[44:]), D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	D.fourdim = check == 1
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 84 {
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	//title record: size, count, the titles themselves, size again.
	var tsize int32
	if err := binary.Read(D.fh, D.endian, &tsize); err != nil {
		return wrapbinerr(err)
	}
	var ntitle int32
	if err := binary.Read(D.fh, D.endian, &ntitle); err != nil {
		return wrapbinerr(err)
	}
	title := make([]byte, mAXTITLE*ntitle)
	if err := binary.Read(D.fh, D.endian, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.fh, D.endian, &tsize); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 4 { //a 4 sits on each side of natoms
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(D.fh, D.endian, &D.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return wrapbinerr(err)
	}
	if check != 4 {
		return Error{WrongEndianness, D.filename, []string{"initRead"}, true}
	}
	if D.fixed != 0 {
		return Error{"fixed atoms not supported", D.filename, []string{"initRead"}, true}
	}
	var seekerr error
	D.headerSize, seekerr = D.fh.Seek(0, io.SeekCurrent)
	if seekerr != nil {
		return Error{seekerr.Error(), D.filename, []string{"fh.Seek", "initRead"}, true}
	}
	D.frameSize = 3 * (8 + 4*int64(D.natoms))
	if D.extrablock {
		D.frameSize += 8 + 48
	}
	if D.fourdim {
		D.frameSize += 8 + 4*int64(D.natoms)
	}
	D.nframes = int(nset)
	if nset == 0 {
		//Some writers never fill in nset; the fixed frame size lets us
		//recover the count from the file length.
		st, err := D.fh.Stat()
		if err != nil {
			return Error{err.Error(), D.filename, []string{"fh.Stat", "initRead"}, true}
		}
		D.nframes = int((st.Size() - D.headerSize) / D.frameSize)
	}
	D.readable = true
	return nil
}

//NumFrames returns the total number of frames in the file.
func (D *DCD) NumFrames() int {
	return D.nframes
}

//NumAtoms returns the number of atoms per frame. 0 means an uninitialized
//object.
func (D *DCD) NumAtoms() int {
	return int(D.natoms)
}

//Fixed returns the number of position-constrained atoms declared in the
//header.
func (D *DCD) Fixed() int {
	return int(D.fixed)
}

//FileName returns the name of the open file.
func (D *DCD) FileName() string {
	return D.filename
}

//Format returns "dcd".
func (D *DCD) Format() string {
	return "dcd"
}

//Units returns the native units of the format: Angstrom and the Charmm
//AKMA time unit.
func (D *DCD) Units() map[string]string {
	return map[string]string{"length": "A", "time": "AKMA"}
}

//StartTimestep is the simulation step of the first frame.
func (D *DCD) StartTimestep() int { return int(D.istart) }

//SkipTimestep is the number of simulation steps between saved frames.
func (D *DCD) SkipTimestep() int { return int(D.nsavc) }

//Delta is the integration timestep, in AKMA units.
func (D *DCD) Delta() float64 { return float64(D.delta) }

//ReadNext fetches the next frame into f. The frame must have been
//allocated for the trajectory's atom count. At the end of the file it
//returns the harmless last-frame sentinel.
func (D *DCD) ReadNext(f *frame.Frame) error {
	if !D.readable {
		return Error{TrajUnIni, D.filename, []string{"ReadNext"}, true}
	}
	if f == nil {
		return Error{NilFrame, D.filename, []string{"ReadNext"}, true}
	}
	if f.Len() != int(D.natoms) {
		return Error{NotEnoughSpace, D.filename, []string{"ReadNext"}, true}
	}
	if D.readLast {
		return gomd.NewLastFrameError(D.filename, "dcd")
	}
	var blocksize int32
	//A unit-cell block is not guaranteed in every frame even when the
	//header announces one, so the block size decides: anything that isn't
	//the size of a coordinate block is the cell.
	if D.extrablock {
		if err := binary.Read(D.fh, D.endian, &blocksize); err != nil {
			return D.eofOr(err, "ReadNext")
		}
		if blocksize != D.natoms*4 {
			if err := D.readCellBlock(blocksize, f); err != nil {
				return errDecorate(err, "ReadNext")
			}
			blocksize = 0
		}
	}
	if blocksize == 0 {
		if err := binary.Read(D.fh, D.endian, &blocksize); err != nil {
			return D.eofOr(err, "ReadNext")
		}
	}
	//the three axis runs of the frame are exactly the three blocks of the
	//format, so they are read straight into the frame's buffer.
	if err := D.readFloat32Block(blocksize, f.X()); err != nil {
		return errDecorate(err, "ReadNext")
	}
	if err := binary.Read(D.fh, D.endian, &blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "ReadNext"}, true}
	}
	if err := D.readFloat32Block(blocksize, f.Y()); err != nil {
		return errDecorate(err, "ReadNext")
	}
	if err := binary.Read(D.fh, D.endian, &blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "ReadNext"}, true}
	}
	if err := D.readFloat32Block(blocksize, f.Z()); err != nil {
		return errDecorate(err, "ReadNext")
	}
	//the 4-D block, if present, is skipped. It is not present in the last
	//snapshot of some files, so EOF here only marks the last frame.
	if D.charmm && D.fourdim {
		if err := binary.Read(D.fh, D.endian, &blocksize); err != nil {
			if isEOF(err) {
				D.readLast = true
				return nil
			}
			return Error{err.Error(), D.filename, []string{"binary.Read", "ReadNext"}, true}
		}
		if err := D.skipBlock(blocksize); err != nil {
			return errDecorate(err, "ReadNext")
		}
	}
	return nil
}

//eofOr turns an end-of-file into the harmless sentinel and anything else
//into a critical error.
func (D *DCD) eofOr(err error, caller string) error {
	if isEOF(err) {
		D.readLast = true
		return gomd.NewLastFrameError(D.filename, "dcd")
	}
	return Error{err.Error(), D.filename, []string{"binary.Read", caller}, true}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

//readCellBlock reads a unit-cell record (6 float64) into the frame's cell,
//in the on-disk order [A, alpha, B, beta, gamma, C].
func (D *DCD) readCellBlock(blocksize int32, f *frame.Frame) error {
	if blocksize != 48 {
		//an extra block we don't understand; skip it whole.
		return D.skipBlock(blocksize)
	}
	var cell [6]float64
	if err := binary.Read(D.fh, D.endian, cell[:]); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readCellBlock"}, true}
	}
	var check int32
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readCellBlock"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"readCellBlock"}, true}
	}
	var c32 [6]float32
	for i, v := range cell {
		c32[i] = float32(v)
	}
	f.SetCell(c32)
	return nil
}

//readFloat32Block reads a coordinate block and its closing size marker
//into block, which must have the matching length.
func (D *DCD) readFloat32Block(blocksize int32, block []float32) error {
	if int(blocksize) != len(block)*4 {
		return Error{WrongFormat, D.filename, []string{"readFloat32Block"}, true}
	}
	if err := binary.Read(D.fh, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readFloat32Block"}, true}
	}
	var check int32
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readFloat32Block"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"readFloat32Block"}, true}
	}
	return nil
}

//skipBlock reads and discards a record of blocksize bytes plus its closing
//marker.
func (D *DCD) skipBlock(blocksize int32) error {
	block := make([]byte, blocksize)
	if err := binary.Read(D.fh, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "skipBlock"}, true}
	}
	var check int32
	if err := binary.Read(D.fh, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "skipBlock"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"skipBlock"}, true}
	}
	return nil
}

//SeekFrame positions the file so the next ReadNext fetches frame i. Frames
//have a fixed byte size, so this is plain offset arithmetic.
func (D *DCD) SeekFrame(i int) error {
	if !D.readable {
		return Error{TrajUnIni, D.filename, []string{"SeekFrame"}, true}
	}
	if i < 0 || i >= D.nframes {
		return frame.NewIndexError(i, D.nframes)
	}
	offset := D.headerSize + int64(i)*D.frameSize
	if _, err := D.fh.Seek(offset, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"fh.Seek", "SeekFrame"}, true}
	}
	D.readLast = false
	return nil
}

//Close releases the file handle. Closing twice is a no-op.
func (D *DCD) Close() error {
	if !D.readable {
		return nil
	}
	D.readable = false
	runtime.SetFinalizer(D, nil)
	if err := D.fh.Close(); err != nil {
		return Error{err.Error(), D.filename, []string{"fh.Close", "Close"}, true}
	}
	return nil
}

//Errors

//errDecorate asserts that err implements gomd.Error and adds the caller's
//name to it before returning it. Panics on any other error type.
func errDecorate(err error, caller string) error {
	err2 := err.(gomd.Error)
	err2.Decorate(caller)
	return err2
}

//Error is the general structure for DCD trajectory errors. It fulfills
//gomd.Error and gomd.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
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

//Format returns the format of the file (always "dcd") associated to the error.
func (err Error) Format() string { return "dcd" }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIni           = "Traj object uninitialized to read"
	TrajUnIniWrite      = "Traj object uninitialized to write"
	UnableToOpen        = "Unable to open file"
	SecurityCheckFailed = "Failed security check"
	NilFrame            = "Given nil frame"
	WrongFormat         = "Wrong format in DCD"
	WrongEndianness     = "Endianness probably wrong"
	NotEnoughSpace      = "Not enough space in passed frame"
)
