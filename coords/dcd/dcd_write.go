/*
 * dcd_write.go, part of gomd
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
 *
 */

package dcd

import (
	"encoding/binary"
	"io"
	"os"
	"runtime"

	"github.com/dmolina/gomd"
	"github.com/dmolina/gomd/frame"
)

//DCDW is a Charmm/NAMD binary trajectory open for writing. It implements
//gomd.Sink. Every frame carries a unit-cell block; the frame count at the
//beginning of the file is rewritten after each frame, so the file is valid
//at any point.
type DCDW struct {
	natoms   int32
	frames   int32
	istart   int32
	nsavc    int32
	delta    float32
	writable bool
	filename string
	fh       *os.File
	endian   binary.ByteOrder
}

//NewWriter creates the named file and writes the DCD header for natoms
//atoms. An optional Stepper (usually the source the frames come from)
//supplies the stepping metadata; without one the frames count as
//consecutive steps of a unit timestep.
func NewWriter(filename string, natoms int, step ...gomd.Stepper) (*DCDW, error) {
	D := new(DCDW)
	D.natoms = int32(natoms)
	D.nsavc = 1
	D.delta = 1.0
	if len(step) > 0 && step[0] != nil {
		D.istart = int32(step[0].StartTimestep())
		D.nsavc = int32(step[0].SkipTimestep())
		D.delta = float32(step[0].Delta())
	}
	if err := D.initWrite(filename); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(D, func(D *DCDW) {
		D.Close()
	})
	return D, nil
}

func (D *DCDW) initWrite(name string) error {
	wrapbinerr := func(err error) error {
		return Error{err.Error(), D.filename, []string{"binary.Write", "initWrite"}, true}
	}
	//a zero atom count means the object was never set up properly.
	if D.natoms == 0 {
		return Error{"trajectory not initialized correctly, the number of atoms is set to zero", name, []string{"initWrite"}, true}
	}
	D.endian = binary.LittleEndian
	D.filename = name
	var err error
	D.fh, err = os.Create(name)
	if err != nil {
		return Error{UnableToOpen + ": " + err.Error(), D.filename, []string{"os.Create", "initWrite"}, true}
	}
	if err := binary.Write(D.fh, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, []byte("CORD")); err != nil {
		return wrapbinerr(err)
	}
	//the icntrl block. The frame count goes first; no frames yet, it is
	//rewritten after every WriteNext.
	if err := binary.Write(D.fh, D.endian, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, D.istart); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, D.nsavc); err != nil {
		return wrapbinerr(err)
	}
	//5 unused ints, then the fixed-atom count, always zero here.
	for i := 0; i < 6; i++ {
		if err := binary.Write(D.fh, D.endian, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	if err := binary.Write(D.fh, D.endian, D.delta); err != nil {
		return wrapbinerr(err)
	}
	//unit-cell flag: every frame gets a cell block.
	if err := binary.Write(D.fh, D.endian, int32(1)); err != nil {
		return wrapbinerr(err)
	}
	//4-D flag plus 7 unused ints.
	for i := 0; i < 8; i++ {
		if err := binary.Write(D.fh, D.endian, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//charmm version, let's say, 24
	if err := binary.Write(D.fh, D.endian, int32(24)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//the title record: size, count, 80 bytes per title, size again.
	var ntitle int32 = 2
	tsize := 4 + ntitle*mAXTITLE
	if err := binary.Write(D.fh, D.endian, tsize); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, ntitle); err != nil {
		return wrapbinerr(err)
	}
	title := make([]byte, ntitle*mAXTITLE)
	copy(title, []byte("Written by gomd"))
	title[len(title)-1] = byte('\000')
	if err := binary.Write(D.fh, D.endian, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, tsize); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, D.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.fh, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	D.writable = true
	return nil
}

//NumAtoms returns the number of atoms the trajectory expects per frame.
func (D *DCDW) NumAtoms() int {
	return int(D.natoms)
}

//FileName returns the name of the open file.
func (D *DCDW) FileName() string {
	return D.filename
}

//Format returns "dcd".
func (D *DCDW) Format() string {
	return "dcd"
}

//Units returns the native units of the format: Angstrom and the Charmm
//AKMA time unit.
func (D *DCDW) Units() map[string]string {
	return map[string]string{"length": "A", "time": "AKMA"}
}

//WriteNext serializes one frame: the unit-cell block, then the three axis
//blocks. The frame is not retained.
func (D *DCDW) WriteNext(f *frame.Frame) error {
	if !D.writable {
		return Error{TrajUnIniWrite, D.filename, []string{"WriteNext"}, true}
	}
	if f == nil {
		return Error{NilFrame, D.filename, []string{"WriteNext"}, true}
	}
	if f.Len() != int(D.natoms) {
		return Error{NotEnoughSpace, D.filename, []string{"WriteNext"}, true}
	}
	if err := D.writeCellBlock(f.Cell()); err != nil {
		return errDecorate(err, "WriteNext")
	}
	if err := D.writeFloat32Block(f.X()); err != nil {
		return errDecorate(err, "WriteNext")
	}
	if err := D.writeFloat32Block(f.Y()); err != nil {
		return errDecorate(err, "WriteNext")
	}
	if err := D.writeFloat32Block(f.Z()); err != nil {
		return errDecorate(err, "WriteNext")
	}
	D.frames++
	return D.updateFrames()
}

//writeCellBlock writes the unit-cell record: 6 float64 in the on-disk
//order [A, alpha, B, beta, gamma, C], bracketed by its size.
func (D *DCDW) writeCellBlock(cell [6]float32) error {
	const blocksize int32 = 48
	if err := binary.Write(D.fh, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeCellBlock"}, true}
	}
	var c64 [6]float64
	for i, v := range cell {
		c64[i] = float64(v)
	}
	if err := binary.Write(D.fh, D.endian, c64[:]); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeCellBlock"}, true}
	}
	if err := binary.Write(D.fh, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeCellBlock"}, true}
	}
	return nil
}

//writeFloat32Block writes one axis run bracketed by its size in bytes.
func (D *DCDW) writeFloat32Block(block []float32) error {
	blocksize := int32(len(block)) * 4
	if err := binary.Write(D.fh, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(D.fh, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(D.fh, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	return nil
}

//DCD requires the number of frames at the beginning of the file, so it is
//rewritten after every frame.
func (D *DCDW) updateFrames() error {
	current, err := D.fh.Seek(0, io.SeekCurrent)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"fh.Seek", "updateFrames"}, true}
	}
	//the frame count sits right after the first marker and the magic.
	if _, err := D.fh.Seek(8, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"fh.Seek", "updateFrames"}, true}
	}
	if err := binary.Write(D.fh, D.endian, D.frames); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "updateFrames"}, true}
	}
	if _, err := D.fh.Seek(current, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"fh.Seek", "updateFrames"}, true}
	}
	return nil
}

//Close releases the file handle. Closing twice is a no-op.
func (D *DCDW) Close() error {
	if !D.writable {
		return nil
	}
	D.writable = false
	runtime.SetFinalizer(D, nil)
	if err := D.fh.Close(); err != nil {
		return Error{err.Error(), D.filename, []string{"fh.Close", "Close"}, true}
	}
	return nil
}
