/*
 * writer_test.go, part of gomd.
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
	"github.com/dmolina/gomd/units"
)

func defaultTestConfig() units.Config {
	return units.DefaultConfig()
}

//stubSink swallows frames and counts what happens to it.
type stubSink struct {
	natoms  int
	written int
	closed  int
}

func (s *stubSink) NumAtoms() int    { return s.natoms }
func (s *stubSink) FileName() string { return "stub.out" }
func (s *stubSink) Format() string   { return "stub" }

func (s *stubSink) Units() map[string]string {
	return map[string]string{"length": "A", "time": "ps"}
}

func (s *stubSink) WriteNext(f *frame.Frame) error {
	s.written++
	return nil
}

func (s *stubSink) Close() error {
	s.closed++
	return nil
}

/*TestWriter drives 5 frames through a no-op sink and checks the closing
 * discipline: the handle is released exactly once no matter how many
 * times Close is called.*/
func TestWriter(Te *testing.T) {
	sink := &stubSink{natoms: 5}
	w, err := NewWriter(sink, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	f, err := frame.New(5)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		f.Index = i
		if err := w.Write(f); err != nil {
			Te.Fatal(err)
		}
	}
	if w.Frames() != 5 {
		Te.Errorf("writer counts %d frames, want 5", w.Frames())
	}
	if sink.written != 5 {
		Te.Errorf("sink got %d frames, want 5", sink.written)
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	if err := w.Close(); err != nil {
		Te.Fatal("closing twice should be a no-op")
	}
	if sink.closed != 1 {
		Te.Errorf("sink closed %d times, want 1", sink.closed)
	}
}

func TestWriterAfterClose(Te *testing.T) {
	sink := &stubSink{natoms: 5}
	w, err := NewWriter(sink, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	f, _ := frame.New(5)
	if err := w.Write(f); err == nil {
		Te.Error("writing to a closed trajectory should fail")
	}
}

func TestWriterBadFrames(Te *testing.T) {
	sink := &stubSink{natoms: 5}
	w, err := NewWriter(sink, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	defer w.Close()
	if err := w.Write(nil); err == nil {
		Te.Error("a nil frame should fail")
	}
	small, _ := frame.New(3)
	if err := w.Write(small); err == nil {
		Te.Error("a mismatched frame should fail")
	}
	if sink.written != 0 {
		Te.Errorf("sink got %d frames, want none", sink.written)
	}
}

func TestWriterDescribe(Te *testing.T) {
	sink := &stubSink{natoms: 9}
	w, err := NewWriter(sink, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	defer w.Close()
	want := `< stub "stub.out" for 9 atoms >`
	if got := fmt.Sprint(w); got != want {
		Te.Errorf("describe %q, want %q", got, want)
	}
}

//The reader applies no conversions on its own; the capability it carries
//does, in place, on the frame's own buffer.
func TestWriterUnitPipeline(Te *testing.T) {
	src := &stubSource{natoms: 2, nframes: 1} //native lengths in nm
	r, err := NewReader(src, defaultTestConfig(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	f, err := r.Next()
	if err != nil {
		Te.Fatal(err)
	}
	f.Set(0, [3]float32{1, 2, 3}) //nm
	if _, err := r.Units().PositionFromNative(f.Raw()); err != nil {
		Te.Fatal(err)
	}
	v, _ := f.At(0)
	if v[0] != 10 || v[1] != 20 || v[2] != 30 { //now in Angstrom
		Te.Errorf("native nm not converted to base Angstrom: %v", v)
	}
}
