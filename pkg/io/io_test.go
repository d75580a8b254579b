package io

import (
	"bytes"
	"errors"
	"testing"
)

func TestCopy(t *testing.T) {
	var dst []byte
	src := make([]byte, 4)

	n, err := Copy(dst, src)
	if err == nil {
		t.Fatal("expected err to be non-nill")
	}

	if n != 0 {
		t.Fatalf("expected n to be 0, but got %d", n)
	}

	e, ok := err.(*InsufficientBufferError)
	if !ok {
		t.Fatalf("expected error to be InsufficientBufferError")
	}

	if e.RequiredSize != len(src) {
		t.Fatalf("expected required size to be %d, but got %d", len(src), e.RequiredSize)
	}

	dst = make([]byte, 2*e.RequiredSize)
	n, err = Copy(dst, src)
	if err != nil {
		t.Fatalf("expected to not get an error after expanding the buffer")
	}

	if n != len(src) {
		t.Fatalf("expected n to be %d, but got %d", len(src), n)
	}
}

func TestCopyRows(t *testing.T) {
	src := []byte{
		1, 2, 3, 0xEE,
		4, 5, 6, 0xEE,
		7, 8, 9,
	}
	dst := bytes.Repeat([]byte{0xAA}, 3*5)

	if err := CopyRows(dst, 5, src, 4, 3, 3); err != nil {
		t.Fatal(err)
	}

	expected := []byte{
		1, 2, 3, 0xAA, 0xAA,
		4, 5, 6, 0xAA, 0xAA,
		7, 8, 9, 0xAA, 0xAA,
	}
	if !bytes.Equal(expected, dst) {
		t.Errorf("expected %v, got %v", expected, dst)
	}
}

func TestCopyRowsErrors(t *testing.T) {
	var strideErr *StrideError
	err := CopyRows(make([]byte, 16), 2, make([]byte, 16), 4, 3, 2)
	if !errors.As(err, &strideErr) {
		t.Fatalf("expected StrideError, got %v", err)
	}
	if strideErr.Stride != 2 || strideErr.RowBytes != 3 {
		t.Errorf("unexpected error fields: %+v", strideErr)
	}

	var bufErr *InsufficientBufferError
	err = CopyRows(make([]byte, 6), 4, make([]byte, 16), 4, 3, 2)
	if !errors.As(err, &bufErr) {
		t.Fatalf("expected InsufficientBufferError, got %v", err)
	}
	if bufErr.RequiredSize != 7 {
		t.Errorf("expected required size 7, got %d", bufErr.RequiredSize)
	}
}

func TestRequiredSize(t *testing.T) {
	cases := []struct {
		stride, rowBytes, rows, expected int
	}{
		{16, 10, 3, 42},
		{10, 10, 3, 30},
		{16, 10, 0, 0},
		{16, 10, 1, 10},
	}
	for _, c := range cases {
		if got := RequiredSize(c.stride, c.rowBytes, c.rows); got != c.expected {
			t.Errorf("RequiredSize(%d, %d, %d): expected %d, got %d", c.stride, c.rowBytes, c.rows, c.expected, got)
		}
	}
}
