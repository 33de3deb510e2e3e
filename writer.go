/*
 * writer.go, part of gomd.
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
	"runtime"

	"github.com/dmolina/gomd/frame"
	"github.com/dmolina/gomd/units"
)

//Writer drives a Sink through the sequential writing contract: frames in,
//one at a time, then a Close that flushes and releases the handle. Close
//is idempotent, and a finalizer closes abandoned writers, since a trailing
//buffered frame would otherwise never reach the file. A Writer is not safe
//for concurrent use.
type Writer struct {
	sink    Sink
	handler *units.Handler
	frames  int
	closed  bool
}

//NewWriter wraps the given format implementation. cfg gives the base units
//the incoming frames are expressed in; a nil registry means the built-in
//unit table.
func NewWriter(sink Sink, cfg units.Config, reg units.Registry) (*Writer, error) {
	if sink == nil {
		return nil, trajError{NilCodec, "", "", []string{"NewWriter"}, true}
	}
	W := &Writer{
		sink:    sink,
		handler: units.NewHandler(sink.Units(), cfg, reg),
	}
	runtime.SetFinalizer(W, func(W *Writer) {
		W.Close()
	})
	return W, nil
}

//NumAtoms returns the number of atoms the trajectory expects per frame.
func (W *Writer) NumAtoms() int {
	return W.sink.NumAtoms()
}

//FileName returns the name of the underlying file or stream.
func (W *Writer) FileName() string {
	return W.sink.FileName()
}

//Units returns the conversion capability for this stream.
func (W *Writer) Units() *units.Handler {
	return W.handler
}

//Frames returns the number of frames written so far.
func (W *Writer) Frames() int {
	return W.frames
}

//Write serializes one frame. The frame is not retained: the caller may
//refill the same buffer for the next Write.
func (W *Writer) Write(f *frame.Frame) error {
	if W.closed {
		return trajError{AlreadyClosed, W.sink.FileName(), formatName(W.sink), []string{"Write"}, true}
	}
	if f == nil {
		return trajError{NilCoordinates, W.sink.FileName(), formatName(W.sink), []string{"Write"}, true}
	}
	if f.Len() != W.sink.NumAtoms() {
		return trajError{WrongAtomCount, W.sink.FileName(), formatName(W.sink), []string{"Write"}, true}
	}
	if err := W.sink.WriteNext(f); err != nil {
		return err
	}
	W.frames++
	return nil
}

//Close flushes and releases the underlying handle. Closing twice is a
//no-op, and the writer counts as closed even when the release fails, so
//the handle is never released twice.
func (W *Writer) Close() error {
	if W.closed {
		return nil
	}
	W.closed = true
	runtime.SetFinalizer(W, nil)
	return W.sink.Close()
}

//String describes the trajectory: format, file and atom count.
func (W *Writer) String() string {
	return fmt.Sprintf("< %s %q for %d atoms >",
		formatName(W.sink), W.sink.FileName(), W.sink.NumAtoms())
}
