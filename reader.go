/*
 * reader.go, part of gomd.
 *
 *
 * Copyright 2024 Daniel Molina <dmolina{at}udecDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package gomd

import (
	"fmt"

	"github.com/dmolina/gomd/frame"
	"github.com/dmolina/gomd/units"
)

//Reader drives a Source through the sequential reading contract. It owns
//the one frame buffer every fetch refills, so the data returned by Next is
//valid only until the next advance; callers keeping a frame must Copy it.
//A Reader is not safe for concurrent use.
type Reader struct {
	src       Source
	buf       *frame.Frame
	handler   *units.Handler
	cursor    int //frame number the next Next will produce
	exhausted bool
	closed    bool
}

//NewReader wraps the given format implementation. The frame buffer is
//allocated here, once, to the source's atom count. cfg gives the base
//units conversions will target; a nil registry means the built-in unit
//table.
func NewReader(src Source, cfg units.Config, reg units.Registry) (*Reader, error) {
	if src == nil {
		return nil, trajError{NilCodec, "", "", []string{"NewReader"}, true}
	}
	buf, err := frame.New(src.NumAtoms())
	if err != nil {
		return nil, errDecorate(err, "NewReader")
	}
	R := &Reader{
		src:     src,
		buf:     buf,
		handler: units.NewHandler(src.Units(), cfg, reg),
	}
	return R, nil
}

//formatName names the format of a Source or Sink, when it cares to say.
func formatName(v interface{}) string {
	if f, ok := v.(Formatter); ok {
		return f.Format()
	}
	return "trajectory"
}

//Len returns the total number of frames, or a negative number when the
//format can't know without reading to the end.
func (R *Reader) Len() int {
	return R.src.NumFrames()
}

//NumAtoms returns the number of atoms per frame.
func (R *Reader) NumAtoms() int {
	return R.src.NumAtoms()
}

//Fixed returns the number of position-constrained atoms.
func (R *Reader) Fixed() int {
	return R.src.Fixed()
}

//FileName returns the name of the underlying file or stream.
func (R *Reader) FileName() string {
	return R.src.FileName()
}

//Units returns the conversion capability for this stream.
func (R *Reader) Units() *units.Handler {
	return R.handler
}

//Stepping returns the frame spacing metadata, if the format knows it.
func (R *Reader) Stepping() (Stepper, bool) {
	s, ok := R.src.(Stepper)
	return s, ok
}

//Next advances exactly one frame, refilling the shared buffer in place,
//and returns it with its Index stamped. At the end of the trajectory it
//returns an error satisfying LastFrameError; that is not a failure, and
//asking again keeps returning it until a Rewind.
func (R *Reader) Next() (*frame.Frame, error) {
	if R.closed {
		return nil, trajError{AlreadyClosed, R.src.FileName(), formatName(R.src), []string{"Next"}, true}
	}
	if R.exhausted {
		return nil, NewLastFrameError(R.src.FileName(), formatName(R.src))
	}
	if err := R.src.ReadNext(R.buf); err != nil {
		if _, ok := err.(LastFrameError); ok {
			R.exhausted = true
		}
		return nil, err
	}
	R.buf.Index = R.cursor
	R.cursor++
	return R.buf, nil
}

//Frame positions the trajectory at frame i and reads it. It needs a
//seekable medium: sources that don't implement FrameSeeker give a
//SeekError. Out-of-range frame numbers, when the frame count is known,
//give an index error without touching the stream.
func (R *Reader) Frame(i int) (*frame.Frame, error) {
	if R.closed {
		return nil, trajError{AlreadyClosed, R.src.FileName(), formatName(R.src), []string{"Frame"}, true}
	}
	if nf := R.src.NumFrames(); i < 0 || (nf >= 0 && i >= nf) {
		return nil, frame.NewIndexError(i, nf)
	}
	seeker, ok := R.src.(FrameSeeker)
	if !ok {
		return nil, NewSeekError(R.src.FileName(), formatName(R.src))
	}
	if err := seeker.SeekFrame(i); err != nil {
		return nil, err
	}
	R.cursor = i
	R.exhausted = false
	return R.Next()
}

//Rewind repositions the trajectory at frame 0, so the next Next produces
//the first frame again. Like Frame, it needs a seekable medium.
func (R *Reader) Rewind() error {
	if R.closed {
		return trajError{AlreadyClosed, R.src.FileName(), formatName(R.src), []string{"Rewind"}, true}
	}
	seeker, ok := R.src.(FrameSeeker)
	if !ok {
		return NewSeekError(R.src.FileName(), formatName(R.src))
	}
	if err := seeker.SeekFrame(0); err != nil {
		return err
	}
	R.cursor = 0
	R.exhausted = false
	return nil
}

//Close releases the underlying handle. The reader counts as closed even
//when the release itself fails, so the handle is never released twice.
func (R *Reader) Close() error {
	if R.closed {
		return nil
	}
	R.closed = true
	return R.src.Close()
}

//String describes the trajectory: format, file, frame count, atom count
//and fixed-atom count.
func (R *Reader) String() string {
	return fmt.Sprintf("< %s %q with %d frames of %d atoms (%d fixed) >",
		formatName(R.src), R.src.FileName(), R.src.NumFrames(), R.src.NumAtoms(), R.src.Fixed())
}
