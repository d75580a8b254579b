package io

import "fmt"

// InsufficientBufferError tells the caller that the buffer provided is not sufficient/big
// enough to hold the whole data/sample.
type InsufficientBufferError struct {
	RequiredSize int
	ActualSize   int
}

func (e *InsufficientBufferError) Error() string {
	return fmt.Sprintf("provided buffer of length %d doesn't meet the size requirement of length, %d", e.ActualSize, e.RequiredSize)
}

// StrideError tells the caller that a row stride can't hold a full row
// without overlapping the next one.
type StrideError struct {
	Stride   int
	RowBytes int
}

func (e *StrideError) Error() string {
	return fmt.Sprintf("row stride %d is smaller than a row of %d bytes", e.Stride, e.RowBytes)
}
