package frame

import "fmt"

//The error types here mirror the decorated-error convention of the rest of
//the library: each failure kind is its own type, so callers can tell them
//apart with a type assertion, and every one carries a decoration slice that
//records the call path as the error travels up.

//errDecorate adds the caller name to the decoration slice of err, which
//must implement the decorated-error convention. Panics otherwise.
func errDecorate(err error, caller string) error {
	err2 := err.(interface {
		Error() string
		Decorate(string) []string
	})
	err2.Decorate(caller)
	return err2
}

//Error is the general frame error, used for invalid constructor input and
//other conditions that don't warrant their own type.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("gomd/frame: %s", err.message)
}

//Decorate adds deco to the decoration slice and returns the slice. An empty
//string only queries the current value.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns whether the error can be ignored.
func (err Error) Critical() bool { return err.critical }

//IndexError reports an atom index outside the frame, after resolution of
//negative indices.
type IndexError struct {
	index  int
	natoms int
	deco   []string
}

func (err *IndexError) Error() string {
	return fmt.Sprintf("gomd/frame: atom index %d out of range for %d atoms", err.index, err.natoms)
}

//Decorate adds deco to the decoration slice and returns the slice.
func (err *IndexError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns true; indexing errors are never recoverable.
func (err *IndexError) Critical() bool { return true }

//NewIndexError builds an IndexError for index i on a collection of n
//elements. Readers use it for out-of-range frame numbers as well.
func NewIndexError(i, n int) *IndexError {
	return &IndexError{i, n, nil}
}

//ShapeError reports a coordinate buffer whose dimensions can't describe a
//set of 3D positions.
type ShapeError struct {
	rows int
	cols int
	deco []string
}

func (err *ShapeError) Error() string {
	return fmt.Sprintf("gomd/frame: can't take a %dx%d matrix as coordinates, one dimension must be 3", err.rows, err.cols)
}

//Decorate adds deco to the decoration slice and returns the slice.
func (err *ShapeError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns true.
func (err *ShapeError) Critical() bool { return true }
