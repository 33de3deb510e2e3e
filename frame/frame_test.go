/*
 * frame_test.go, part of gomd.
 *
 * Copyright 2024 Daniel Molina <dmolina{at}udecDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 */

package frame

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNew(Te *testing.T) {
	for _, n := range []int{0, 1, 5, 100} {
		f, err := New(n)
		if err != nil {
			Te.Fatal(err)
		}
		if f.Len() != n {
			Te.Errorf("frame for %d atoms reports %d", n, f.Len())
		}
		for _, v := range f.Raw() {
			if v != 0 {
				Te.Fatalf("fresh frame not zero filled")
			}
		}
	}
	if _, err := New(-1); err == nil {
		Te.Error("a negative atom count should fail")
	}
}

func TestCopyIndependence(Te *testing.T) {
	f, err := New(4)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		f.Set(i, [3]float32{float32(i), float32(i) + 0.5, -float32(i)})
	}
	f.SetCell([6]float32{10, 90, 10, 90, 90, 10})
	g := NewCopy(f)
	for i := 0; i < 4; i++ {
		a, _ := f.At(i)
		b, _ := g.At(i)
		if a != b {
			Te.Fatalf("copy differs at atom %d: %v vs %v", i, a, b)
		}
	}
	if g.Cell() != f.Cell() {
		Te.Error("copy lost the unit cell")
	}
	//mutating either one must not leak into the other
	f.Set(2, [3]float32{42, 42, 42})
	b, _ := g.At(2)
	if b[0] == 42 {
		Te.Error("mutating the original changed the copy")
	}
	g.Set(0, [3]float32{-1, -1, -1})
	a, _ := f.At(0)
	if a[0] == -1 {
		Te.Error("mutating the copy changed the original")
	}
}

func TestAtNegativeIndices(Te *testing.T) {
	const n = 5
	f, err := New(n)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < n; i++ {
		f.Set(i, [3]float32{float32(i), 0, 0})
	}
	for i := -n; i < n; i++ {
		want := i
		if want < 0 {
			want += n
		}
		v, err := f.At(i)
		if err != nil {
			Te.Fatalf("At(%d): %v", i, err)
		}
		if v[0] != float32(want) {
			Te.Errorf("At(%d) = %v, want atom %d", i, v, want)
		}
	}
	for _, bad := range []int{n, -n - 1, 2 * n} {
		_, err := f.At(bad)
		if err == nil {
			Te.Fatalf("At(%d) should fail", bad)
		}
		if _, ok := err.(*IndexError); !ok {
			Te.Errorf("At(%d) should give an IndexError, got %T", bad, err)
		}
	}
}

func TestIterRestart(Te *testing.T) {
	const n = 6
	f, err := New(n)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < n; i++ {
		f.Set(i, [3]float32{float32(i), float32(2 * i), float32(3 * i)})
	}
	walk := func() [][3]float32 {
		var got [][3]float32
		it := f.Iter()
		for v, ok := it.Next(); ok; v, ok = it.Next() {
			got = append(got, v)
		}
		return got
	}
	first := walk()
	if len(first) != n {
		Te.Fatalf("iterator yielded %d atoms, want %d", len(first), n)
	}
	for i, v := range first {
		w, _ := f.At(i)
		if v != w {
			Te.Errorf("iterator atom %d is %v, At gives %v", i, v, w)
		}
	}
	second := walk()
	for i := range first {
		if first[i] != second[i] {
			Te.Fatal("a fresh iterator did not restart the sequence")
		}
	}
}

func TestDimensions(Te *testing.T) {
	f, err := New(1)
	if err != nil {
		Te.Fatal(err)
	}
	//storage order is [A, alpha, B, beta, gamma, C]
	f.SetCell([6]float32{1, 2, 3, 4, 5, 6})
	want := [6]float32{1, 3, 6, 2, 4, 5}
	if got := f.Dimensions(); got != want {
		Te.Errorf("Dimensions() = %v, want %v", got, want)
	}
}

func TestFromMatrix(Te *testing.T) {
	data := []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		10, 11, 12,
	}
	m := mat.NewDense(4, 3, data)
	f, err := NewFromMatrix(m, AtomsAsRows)
	if err != nil {
		Te.Fatal(err)
	}
	if f.Len() != 4 {
		Te.Fatalf("got %d atoms, want 4", f.Len())
	}
	v, _ := f.At(1)
	if v != [3]float32{4, 5, 6} {
		Te.Errorf("atom 1 is %v", v)
	}
	//the transposed layout, with an explicit axis, gives the same frame
	tm := mat.NewDense(3, 4, nil)
	tm.Copy(m.T())
	g, err := NewFromMatrix(tm, AtomsAsCols)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		a, _ := f.At(i)
		b, _ := g.At(i)
		if a != b {
			Te.Fatalf("row and column layouts disagree at atom %d", i)
		}
	}
	//the source matrix stays independent
	m.Set(0, 0, 99)
	v, _ = f.At(0)
	if v[0] == 99 {
		Te.Error("frame aliases the source matrix")
	}
}

func TestFromMatrixShape(Te *testing.T) {
	if _, err := NewFromMatrix(mat.NewDense(4, 5, nil), AtomsAsRows); err == nil {
		Te.Error("a 4x5 matrix is not a coordinate set")
	} else if _, ok := err.(*ShapeError); !ok {
		Te.Errorf("want a ShapeError, got %T", err)
	}
	if _, err := NewFromMatrix(mat.NewDense(4, 3, nil), AtomsAsCols); err == nil {
		Te.Error("atoms-as-columns needs 3 rows")
	}
	//a 3x3 set is legitimate under either axis; the caller decides
	if _, err := NewFromMatrix(mat.NewDense(3, 3, nil), AtomsAsRows); err != nil {
		Te.Errorf("3x3 with explicit axis should work: %v", err)
	}
}

func TestSome(Te *testing.T) {
	const n = 5
	f, err := New(n)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < n; i++ {
		f.Set(i, [3]float32{float32(i), 0, 0})
	}
	got, err := f.Some([]int{3, 0, -1})
	if err != nil {
		Te.Fatal(err)
	}
	if got[0][0] != 3 || got[1][0] != 0 || got[2][0] != 4 {
		Te.Errorf("Some returned %v", got)
	}
	//the selection is a copy: refilling the frame must not touch it
	f.Set(3, [3]float32{77, 77, 77})
	if got[0][0] != 3 {
		Te.Error("selection aliases the frame buffer")
	}
	if _, err := f.Some([]int{0, n}); err == nil {
		Te.Error("out-of-range selection should fail")
	}
	if _, err := f.Some(nil); err == nil {
		Te.Error("nil selection should fail")
	}
}

func TestDenseRoundTrip(Te *testing.T) {
	f, err := New(3)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		f.Set(i, [3]float32{float32(i) + 0.25, float32(i) + 0.5, float32(i) + 0.75})
	}
	d := f.Dense()
	g, err := New(3)
	if err != nil {
		Te.Fatal(err)
	}
	if err := g.SetFromDense(d); err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		a, _ := f.At(i)
		b, _ := g.At(i)
		if a != b {
			Te.Fatalf("round trip through Dense lost atom %d: %v vs %v", i, a, b)
		}
	}
	if err := g.SetFromDense(mat.NewDense(2, 3, nil)); err == nil {
		Te.Error("mismatched Dense should fail")
	}
}

func TestAxisRuns(Te *testing.T) {
	f, err := New(3)
	if err != nil {
		Te.Fatal(err)
	}
	f.Set(0, [3]float32{1, 4, 7})
	f.Set(1, [3]float32{2, 5, 8})
	f.Set(2, [3]float32{3, 6, 9})
	x, y, z := f.X(), f.Y(), f.Z()
	for i := 0; i < 3; i++ {
		if x[i] != float32(i+1) || y[i] != float32(i+4) || z[i] != float32(i+7) {
			Te.Fatalf("axis runs are not contiguous per axis: %v %v %v", x, y, z)
		}
	}
	//axis runs are views into the frame
	x[0] = 100
	v, _ := f.At(0)
	if v[0] != 100 {
		Te.Error("X() does not alias the frame buffer")
	}
}
