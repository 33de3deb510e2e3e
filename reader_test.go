/*
 * reader_test.go, part of gomd.
 *
 * Copyright 2024 Daniel Molina <dmolina{at}udecDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 */

package gomd

import (
	"fmt"
	"testing"

	"github.com/dmolina/gomd/frame"
)

//stubSource is an in-memory Source with nframes frames of natoms atoms.
//Frame i is filled with the value i in every coordinate, so tests can tell
//frames apart. It optionally seeks.
type stubSource struct {
	natoms   int
	nframes  int
	fixed    int
	cursor   int
	closed   int
	seekable bool
}

func (s *stubSource) NumFrames() int  { return s.nframes }
func (s *stubSource) NumAtoms() int   { return s.natoms }
func (s *stubSource) Fixed() int      { return s.fixed }
func (s *stubSource) FileName() string { return "stub.traj" }
func (s *stubSource) Format() string  { return "stub" }

func (s *stubSource) Units() map[string]string {
	return map[string]string{"length": "nm", "time": "ps"}
}

func (s *stubSource) ReadNext(f *frame.Frame) error {
	if s.cursor >= s.nframes {
		return NewLastFrameError(s.FileName(), s.Format())
	}
	v := float32(s.cursor)
	for i := 0; i < f.Len(); i++ {
		f.Set(i, [3]float32{v, v, v})
	}
	s.cursor++
	return nil
}

func (s *stubSource) Close() error {
	s.closed++
	return nil
}

//seekStub adds the positioning primitive.
type seekStub struct {
	stubSource
}

func (s *seekStub) SeekFrame(i int) error {
	if i < 0 || i >= s.nframes {
		return frame.NewIndexError(i, s.nframes)
	}
	s.cursor = i
	return nil
}

/*TestReaderNext walks a 3-frame stub to the end: three successful
 * advances, then the harmless sentinel, distinguishable from real
 * failures by a type assertion.*/
func TestReaderNext(Te *testing.T) {
	src := &seekStub{stubSource{natoms: 5, nframes: 3, seekable: true}}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		f, err := r.Next()
		if err != nil {
			Te.Fatal(err)
		}
		if f.Index != i {
			Te.Errorf("frame index %d, want %d", f.Index, i)
		}
		v, err := f.At(0)
		if err != nil {
			Te.Fatal(err)
		}
		if v[0] != float32(i) {
			Te.Errorf("frame %d carries coordinate %v", i, v[0])
		}
	}
	_, err = r.Next()
	if err == nil {
		Te.Fatal("expected the end of the trajectory")
	}
	if _, ok := err.(LastFrameError); !ok {
		Te.Errorf("end of trajectory should be a LastFrameError, got %v", err)
	}
	//asking again keeps the trajectory exhausted, without touching the
	//codec.
	if _, err := r.Next(); err == nil {
		Te.Error("an exhausted reader should stay exhausted")
	}
}

func TestReaderRewind(Te *testing.T) {
	src := &seekStub{stubSource{natoms: 5, nframes: 3}}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	for {
		if _, err := r.Next(); err != nil {
			if _, ok := err.(LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
	}
	if err := r.Rewind(); err != nil {
		Te.Fatal(err)
	}
	f, err := r.Next()
	if err != nil {
		Te.Fatal(err)
	}
	if f.Index != 0 {
		Te.Errorf("after rewind got frame %d, want 0", f.Index)
	}
	v, _ := f.At(2)
	if v[1] != 0 {
		Te.Errorf("after rewind frame carries coordinate %v, want 0", v[1])
	}
}

func TestReaderRandomAccess(Te *testing.T) {
	src := &seekStub{stubSource{natoms: 4, nframes: 6}}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	f, err := r.Frame(4)
	if err != nil {
		Te.Fatal(err)
	}
	if f.Index != 4 {
		Te.Errorf("got frame %d, want 4", f.Index)
	}
	//the cursor follows random access
	f, err = r.Next()
	if err != nil {
		Te.Fatal(err)
	}
	if f.Index != 5 {
		Te.Errorf("got frame %d, want 5", f.Index)
	}
	if _, err := r.Frame(6); err == nil {
		Te.Error("out-of-range frame number should fail")
	}
	if _, err := r.Frame(-1); err == nil {
		Te.Error("negative frame number should fail")
	}
}

func TestReaderNotSeekable(Te *testing.T) {
	src := &stubSource{natoms: 5, nframes: 3}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	err = r.Rewind()
	if err == nil {
		Te.Fatal("rewinding a forward-only medium should fail")
	}
	if _, ok := err.(*SeekError); !ok {
		Te.Errorf("want a SeekError, got %T: %v", err, err)
	}
	if _, err := r.Frame(1); err == nil {
		Te.Error("random access on a forward-only medium should fail")
	}
}

func TestReaderDescribe(Te *testing.T) {
	src := &stubSource{natoms: 7, nframes: 2, fixed: 3}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	want := `< stub "stub.traj" with 2 frames of 7 atoms (3 fixed) >`
	if got := fmt.Sprint(r); got != want {
		Te.Errorf("describe %q, want %q", got, want)
	}
}

func TestReaderClose(Te *testing.T) {
	src := &stubSource{natoms: 5, nframes: 3}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := r.Close(); err != nil {
		Te.Fatal(err)
	}
	if err := r.Close(); err != nil {
		Te.Fatal("closing twice should be a no-op")
	}
	if src.closed != 1 {
		Te.Errorf("codec closed %d times, want 1", src.closed)
	}
	if _, err := r.Next(); err == nil {
		Te.Error("reading a closed trajectory should fail")
	}
}

//TestReaderCopyRetention checks the in-place refill contract: data from
//frame k survives the advance to k+1 only through an explicit copy.
func TestReaderCopyRetention(Te *testing.T) {
	src := &seekStub{stubSource{natoms: 3, nframes: 2}}
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	f, err := r.Next()
	if err != nil {
		Te.Fatal(err)
	}
	kept := f.Copy()
	if _, err := r.Next(); err != nil {
		Te.Fatal(err)
	}
	live, _ := f.At(0)
	old, _ := kept.At(0)
	if live[0] != 1 {
		Te.Errorf("shared buffer holds %v after the advance, want 1", live[0])
	}
	if old[0] != 0 {
		Te.Errorf("copied frame holds %v after the advance, want 0", old[0])
	}
}
