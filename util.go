package raf

import (
	"fmt"
	"image"
)

// A TruncatedInputError reports a read past the end of the input.
type TruncatedInputError struct {
	Offset int64
	Length int64
	Size   int64
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("raf: truncated input: %d bytes at offset %d exceed size %d", e.Length, e.Offset, e.Size)
}

// An InvalidContainerError reports that the input is not a RAF container.
type InvalidContainerError string

func (e InvalidContainerError) Error() string {
	return fmt.Sprintf("raf: invalid container: %s", string(e))
}

// A MalformedDirectoryError reports an inconsistent directory structure,
// including directory trees nested deeper than the configured limit.
type MalformedDirectoryError string

func (e MalformedDirectoryError) Error() string {
	return fmt.Sprintf("raf: malformed directory: %s", string(e))
}

// A DimensionMismatchError reports an image whose size differs from the CFA plane.
type DimensionMismatchError struct {
	Got  image.Point
	Want image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("raf: dimension mismatch: image is %dx%d, plane is %dx%d", e.Got.X, e.Got.Y, e.Want.X, e.Want.Y)
}

// An IncompleteBracketError reports a bracketed file with missing exposures.
type IncompleteBracketError struct {
	Found int
	Err   error
}

func (e *IncompleteBracketError) Error() string {
	return fmt.Sprintf("raf: incomplete bracket: found %d of %d exposures: %v", e.Found, len(ExposureLabels), e.Err)
}

// Cause returns the error that stopped the segment scan.
func (e *IncompleteBracketError) Cause() error { return e.Err }

// Unwrap returns the error that stopped the segment scan.
func (e *IncompleteBracketError) Unwrap() error { return e.Err }

// An IOError reports a failure of the underlying storage.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("raf: %s: %v", e.Op, e.Err)
}

// Cause returns the underlying storage error.
func (e *IOError) Cause() error { return e.Err }

// Unwrap returns the underlying storage error.
func (e *IOError) Unwrap() error { return e.Err }

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
