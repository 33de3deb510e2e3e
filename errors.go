/*
 * errors.go, part of gomd.
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

import "fmt"

//trajError is the general error of the reader/writer layer. It fulfills
//Error and TrajError.
type trajError struct {
	message  string
	filename string
	format   string
	deco     []string
	critical bool
}

func (err trajError) Error() string {
	return fmt.Sprintf("gomd: trajectory %s error: %s", err.filename, err.message)
}

//Decorate adds deco to the decoration slice and returns the slice.
func (err trajError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err trajError) FileName() string { return err.filename }

func (err trajError) Format() string { return err.format }

func (err trajError) Critical() bool { return err.critical }

//Common messages of the reader/writer layer.
const (
	NilCodec       = "nil format implementation"
	NilCoordinates = "given nil coordinates"
	AlreadyClosed  = "already closed"
	WrongAtomCount = "frame does not match the number of atoms of the trajectory"
)

//SeekError reports an attempt to rewind or randomly access a trajectory
//whose medium only moves forward. It fulfills TrajError.
type SeekError struct {
	filename string
	format   string
	deco     []string
}

//NewSeekError builds a SeekError for the named trajectory.
func NewSeekError(filename, format string) *SeekError {
	return &SeekError{filename: filename, format: format}
}

func (err *SeekError) Error() string {
	return fmt.Sprintf("gomd: trajectory %s is not seekable", err.filename)
}

//Decorate adds deco to the decoration slice and returns the slice.
func (err *SeekError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *SeekError) FileName() string { return err.filename }

func (err *SeekError) Format() string { return err.format }

func (err *SeekError) Critical() bool { return true }

//lastFrameError fulfills LastFrameError.
type lastFrameError struct {
	fileName string
	format   string
	deco     []string
}

//NormalLastFrameTermination does nothing.
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return E.format }

//Decorate adds deco to the decoration slice and returns the slice.
func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//NewLastFrameError returns the harmless sentinel for the end of the named
//trajectory. Formats return it from their fetch primitive when the frames
//run out; it satisfies LastFrameError and nothing else does.
func NewLastFrameError(filename, format string) LastFrameError {
	return &lastFrameError{fileName: filename, format: format}
}

//errDecorate adds the caller name to the decoration slice of err, which
//must implement Error. Panics otherwise.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}
