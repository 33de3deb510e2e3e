/*
 * interfaces.go, part of gomd.
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
	"github.com/dmolina/gomd/frame"
	"gonum.org/v1/gonum/mat"
)

//Source is what a concrete trajectory format implements to be readable
//through a Reader. The format owns the file handle, the frame count and
//the cursor; the core owns the frame buffer.
type Source interface {

	//NumFrames returns the total number of frames, or a negative number
	//if the format can't know it without reading to the end.
	NumFrames() int

	//NumAtoms returns the number of atoms per frame.
	NumAtoms() int

	//Fixed returns the number of position-constrained atoms.
	Fixed() int

	//FileName returns the name of the underlying file or stream.
	FileName() string

	//Units maps quantity names ("length", "time") to the unit the format
	//stores that quantity in.
	Units() map[string]string

	//ReadNext fetches the next frame into the given buffer, advancing
	//exactly one frame. At the end of the trajectory it returns an error
	//satisfying LastFrameError, which is not a failure.
	ReadNext(*frame.Frame) error

	//Close releases the underlying handle.
	Close() error
}

//FrameSeeker is implemented by Sources whose medium allows positioning at
//an arbitrary frame. A Source without it can't be rewound.
type FrameSeeker interface {

	//SeekFrame positions the stream so that the next ReadNext fetches
	//frame i.
	SeekFrame(i int) error
}

//Stepper is implemented by Sources that know the step spacing of their
//frames. Writers that reproduce a trajectory's timing consume it.
type Stepper interface {

	//StartTimestep is the simulation step of the first frame.
	StartTimestep() int

	//SkipTimestep is the number of simulation steps between saved frames.
	SkipTimestep() int

	//Delta is the integration timestep, in the format's native time unit.
	Delta() float64
}

//Sink is what a concrete trajectory format implements to be writable
//through a Writer.
type Sink interface {

	//NumAtoms returns the number of atoms the sink expects per frame.
	NumAtoms() int

	//FileName returns the name of the underlying file or stream.
	FileName() string

	//Units maps quantity names to the unit the format stores them in.
	Units() map[string]string

	//WriteNext serializes one frame. It must not retain the frame: the
	//caller will reuse the buffer on the next iteration.
	WriteNext(*frame.Frame) error

	//Close flushes and releases the underlying handle.
	Close() error
}

//Formatter is optionally implemented by Sources and Sinks to name their
//format ("dcd", "ctz") in describe strings and errors.
type Formatter interface {
	Format() string
}

//Superposer is the signature of the external alignment routine: given a
//reference and a mobile coordinate set, both axis-major with natoms atoms,
//it returns the optimal rotation of mobile onto reference and a scalar
//deviation. It is a collaborator; this library never implements one.
type Superposer func(ref, mobile []float32, natoms int) (*mat.Dense, float64, error)

//Errors

//Error is the interface all errors of this library implement. The Decorate
//method adds information to the error as it travels up the call stack,
//without wrapping it into another type: each call appends the caller's
//name (plus any extra info, as "FunctionName: extra") and returns the
//resulting slice. An empty string only queries the current value.
type Error interface {
	Error() string
	Decorate(string) []string
}

//TrajError is the interface for errors in trajectories.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

//LastFrameError marks the harmless end-of-trajectory condition, so a type
//assertion can separate it from real failures and end iteration cleanly.
//NormalLastFrameTermination does nothing; it only distinguishes the
//interface from other TrajErrors.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination()
}
