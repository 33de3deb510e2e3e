/*
 * frame.go, part of gomd.
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

//Package frame implements the per-snapshot container for molecular dynamics
//trajectories: the positions of every atom in one frame, plus the unit cell
//of the periodic box. A Frame is allocated once, to the size of the system,
//and trajectory readers refill the same buffer on every advance, so no
//per-frame allocation happens while iterating a trajectory.
package frame

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//Axis tells NewFromMatrix which dimension of the incoming matrix runs over
//atoms. The other dimension must be the 3 cartesian components. The caller
//always says which is which; a 3-atom system is indistinguishable from a
//transposed one, so there is nothing sensible to guess.
type Axis int

const (
	//AtomsAsRows means the matrix is natoms x 3.
	AtomsAsRows Axis = iota
	//AtomsAsCols means the matrix is 3 x natoms.
	AtomsAsCols
)

//Frame holds the state of one simulation snapshot: the cartesian positions
//of natoms atoms and the 6 unit-cell parameters. Positions are kept
//axis-major: the buffer is the x coordinates of all atoms, then all y, then
//all z. Each axis is thus one contiguous run, which is both what the binary
//trajectory formats store and what per-axis bulk operations want.
//
//The unit cell is stored in the order [A, alpha, B, beta, gamma, C]; use
//Dimensions to get the human (A, B, C, alpha, beta, gamma) order.
type Frame struct {
	//Index is the frame number within the producing trajectory. It is
	//stamped by the reader on every advance and not validated here.
	Index  int
	natoms int
	pos    []float32
	cell   [6]float32
}

//New returns a Frame with room for n atoms, all positions zero and a zero
//unit cell. n must not be negative.
func New(n int) (*Frame, error) {
	if n < 0 {
		return nil, Error{fmt.Sprintf("can't allocate a frame for %d atoms", n), []string{"New"}, true}
	}
	F := new(Frame)
	F.natoms = n
	F.pos = make([]float32, 3*n)
	return F, nil
}

//NewCopy returns a deep copy of f. The copy shares no storage with f:
//mutating one afterwards never affects the other.
func NewCopy(f *Frame) *Frame {
	F := new(Frame)
	F.Index = f.Index
	F.natoms = f.natoms
	F.pos = make([]float32, len(f.pos))
	copy(F.pos, f.pos)
	F.cell = f.cell
	return F
}

//NewFromMatrix copies the coordinates in m into a freshly allocated Frame.
//atoms says which dimension of m indexes atoms; the other dimension must
//have exactly 3 elements or a ShapeError is returned. The data is copied
//into the axis-major layout, so m and the Frame are independent afterwards.
func NewFromMatrix(m mat.Matrix, atoms Axis) (*Frame, error) {
	if m == nil {
		return nil, Error{"can't build a frame from a nil matrix", []string{"NewFromMatrix"}, true}
	}
	r, c := m.Dims()
	var n int
	switch atoms {
	case AtomsAsRows:
		if c != 3 {
			return nil, &ShapeError{r, c, []string{"NewFromMatrix"}}
		}
		n = r
	case AtomsAsCols:
		if r != 3 {
			return nil, &ShapeError{r, c, []string{"NewFromMatrix"}}
		}
		n = c
	default:
		return nil, Error{fmt.Sprintf("unknown atom axis %d", atoms), []string{"NewFromMatrix"}, true}
	}
	F, err := New(n)
	if err != nil {
		return nil, err
	}
	for d := 0; d < 3; d++ {
		run := F.pos[d*n : (d+1)*n]
		for i := 0; i < n; i++ {
			if atoms == AtomsAsRows {
				run[i] = float32(m.At(i, d))
			} else {
				run[i] = float32(m.At(d, i))
			}
		}
	}
	return F, nil
}

//Len returns the number of atoms in the frame. It never changes after
//construction.
func (F *Frame) Len() int {
	return F.natoms
}

//resolve maps a possibly negative atom index to the storage index, per the
//usual convention that -1 is the last atom.
func (F *Frame) resolve(i int) (int, error) {
	j := i
	if j < 0 {
		j = F.natoms + j
	}
	if j < 0 || j >= F.natoms {
		return 0, &IndexError{i, F.natoms, nil}
	}
	return j, nil
}

//At returns the cartesian coordinates of the ith atom. Negative indices
//count from the end. The returned vector is a copy.
func (F *Frame) At(i int) ([3]float32, error) {
	var v [3]float32
	j, err := F.resolve(i)
	if err != nil {
		return v, errDecorate(err, "At")
	}
	n := F.natoms
	v[0] = F.pos[j]
	v[1] = F.pos[n+j]
	v[2] = F.pos[2*n+j]
	return v, nil
}

//Set overwrites the coordinates of the ith atom. Negative indices count
//from the end.
func (F *Frame) Set(i int, v [3]float32) error {
	j, err := F.resolve(i)
	if err != nil {
		return errDecorate(err, "Set")
	}
	n := F.natoms
	F.pos[j] = v[0]
	F.pos[n+j] = v[1]
	F.pos[2*n+j] = v[2]
	return nil
}

//Some returns the coordinates of the atoms whose indices are in clist, in
//the order of clist. Negative indices count from the end. The result is a
//copy, so later in-place refills of the frame don't touch it.
func (F *Frame) Some(clist []int) ([][3]float32, error) {
	if clist == nil {
		return nil, Error{"nil index list", []string{"Some"}, true}
	}
	ret := make([][3]float32, len(clist))
	for k, i := range clist {
		v, err := F.At(i)
		if err != nil {
			return nil, errDecorate(err, "Some")
		}
		ret[k] = v
	}
	return ret, nil
}

//Iter is a cursor over the atoms of a frame, in index order. A fresh Iter
//always starts from atom 0, so obtaining a new one restarts the sequence.
type Iter struct {
	f *Frame
	i int
}

//Iter returns a cursor over the per-atom vectors of F, from atom 0 to the
//last one.
func (F *Frame) Iter() *Iter {
	return &Iter{f: F}
}

//Next returns the next atom's coordinates and true, or a zero vector and
//false once the atoms are exhausted.
func (it *Iter) Next() ([3]float32, bool) {
	if it.i >= it.f.natoms {
		return [3]float32{}, false
	}
	v, _ := it.f.At(it.i)
	it.i++
	return v, true
}

//Copy returns a deep, independent copy of F.
func (F *Frame) Copy() *Frame {
	return NewCopy(F)
}

//Cell returns the unit cell in the internal storage order
//[A, alpha, B, beta, gamma, C].
func (F *Frame) Cell() [6]float32 {
	return F.cell
}

//SetCell overwrites the unit cell. c must be in the internal storage order
//[A, alpha, B, beta, gamma, C].
func (F *Frame) SetCell(c [6]float32) {
	F.cell = c
}

//Dimensions returns the unit cell reordered to (A, B, C, alpha, beta,
//gamma): lengths first, then angles.
func (F *Frame) Dimensions() [6]float32 {
	c := F.cell
	return [6]float32{c[0], c[2], c[5], c[1], c[3], c[4]}
}

//X returns the contiguous run of x coordinates, one per atom. The slice
//aliases the frame's buffer: writes to it are writes to the frame, and its
//contents are only valid until the next refill of the frame.
func (F *Frame) X() []float32 {
	return F.pos[0:F.natoms]
}

//Y returns the contiguous run of y coordinates. Same aliasing caveats as X.
func (F *Frame) Y() []float32 {
	return F.pos[F.natoms : 2*F.natoms]
}

//Z returns the contiguous run of z coordinates. Same aliasing caveats as X.
func (F *Frame) Z() []float32 {
	return F.pos[2*F.natoms : 3*F.natoms]
}

//Raw returns the whole axis-major position buffer. It aliases the frame's
//storage; it is meant for bulk in-place operations such as unit conversion.
func (F *Frame) Raw() []float32 {
	return F.pos
}

//Dense returns the positions as a new natoms x 3 gonum matrix, one atom per
//row, in float64. The result is a copy and stays valid after the frame is
//refilled.
func (F *Frame) Dense() *mat.Dense {
	n := F.natoms
	data := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		data[3*i] = float64(F.pos[i])
		data[3*i+1] = float64(F.pos[n+i])
		data[3*i+2] = float64(F.pos[2*n+i])
	}
	return mat.NewDense(n, 3, data)
}

//SetFromDense copies the contents of the natoms x 3 matrix d over the
//positions of F. The shape must match the frame exactly.
func (F *Frame) SetFromDense(d *mat.Dense) error {
	r, c := d.Dims()
	if r != F.natoms || c != 3 {
		return &ShapeError{r, c, []string{"SetFromDense"}}
	}
	n := F.natoms
	for i := 0; i < n; i++ {
		F.pos[i] = float32(d.At(i, 0))
		F.pos[n+i] = float32(d.At(i, 1))
		F.pos[2*n+i] = float32(d.At(i, 2))
	}
	return nil
}

//String gives a short description of the frame, in the spirit of the
//describe strings of readers and writers.
func (F *Frame) String() string {
	d := F.Dimensions()
	return fmt.Sprintf("< Frame %d with unit cell dimensions %v >", F.Index, d)
}
