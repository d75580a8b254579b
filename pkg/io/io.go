package io

// Copy copies data from src to dst. If dst is not big enough, return an
// InsufficientBufferError.
func Copy(dst, src []byte) (n int, err error) {
	if len(dst) < len(src) {
		return 0, &InsufficientBufferError{RequiredSize: len(src), ActualSize: len(dst)}
	}

	return copy(dst, src), nil
}

// RequiredSize returns the number of bytes needed to hold rows rows of
// rowBytes bytes each, spaced stride bytes apart. The last row needs no padding.
func RequiredSize(stride, rowBytes, rows int) int {
	if rows <= 0 || rowBytes <= 0 {
		return 0
	}
	return stride*(rows-1) + rowBytes
}

// CheckRows validates that buf can hold rows rows of rowBytes bytes spaced
// stride bytes apart.
func CheckRows(buf []byte, stride, rowBytes, rows int) error {
	if stride < rowBytes {
		return &StrideError{Stride: stride, RowBytes: rowBytes}
	}
	if need := RequiredSize(stride, rowBytes, rows); len(buf) < need {
		return &InsufficientBufferError{RequiredSize: need, ActualSize: len(buf)}
	}
	return nil
}

// CopyRows copies rows rows of rowBytes bytes from src to dst, each with its
// own stride. Padding bytes between rows are never read or written.
func CopyRows(dst []byte, dstStride int, src []byte, srcStride int, rowBytes, rows int) error {
	if err := CheckRows(dst, dstStride, rowBytes, rows); err != nil {
		return err
	}
	if err := CheckRows(src, srcStride, rowBytes, rows); err != nil {
		return err
	}

	if dstStride == rowBytes && srcStride == rowBytes {
		copy(dst[:rowBytes*rows], src[:rowBytes*rows])
		return nil
	}
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
	return nil
}
