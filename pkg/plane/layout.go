// Package plane describes biplanar 4:2:0 memory: a full resolution luma
// plane and a half resolution plane of interleaved Cb, Cr pairs, both
// addressed by explicit offsets and strides into one owned allocation.
package plane

import (
	"errors"
	"fmt"

	mio "github.com/pion/biplanar/pkg/io"
)

// Plane indices.
const (
	Luma   = 0
	Chroma = 1
)

const (
	// LumaBytesPerPixel is the size of one Y sample.
	LumaBytesPerPixel = 1
	// ChromaBytesPerPixel is the size of one interleaved Cb, Cr pair.
	ChromaBytesPerPixel = 2

	// DefaultAlignment is the row and plane alignment used when Options
	// leaves it unset.
	DefaultAlignment = 16
)

// Layout is the geometry of one plane inside a backing allocation.
type Layout struct {
	Width, Height int
	BytesPerPixel int
	// Stride is the distance in bytes between the starts of two rows.
	Stride int
	// Offset is the position of the first row in the backing allocation.
	Offset int
}

// RowBytes is the number of meaningful bytes in a row.
func (l Layout) RowBytes() int {
	return l.Width * l.BytesPerPixel
}

// Size is the number of bytes the plane spans. The last row is not padded.
func (l Layout) Size() int {
	return mio.RequiredSize(l.Stride, l.RowBytes(), l.Height)
}

// End is the offset just past the plane.
func (l Layout) End() int {
	return l.Offset + l.Size()
}

// MaxSize bounds the bytes a single buffer may span.
const MaxSize = 1 << 30

// ErrTooLarge is returned for layouts reaching past MaxSize.
var ErrTooLarge = errors.New("plane: layout exceeds maximum size")

// Validate checks that the layout describes a non-empty plane whose rows do
// not overlap.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 || l.BytesPerPixel <= 0 {
		return fmt.Errorf("plane: invalid geometry %dx%d with %d bytes per pixel", l.Width, l.Height, l.BytesPerPixel)
	}
	if l.Offset < 0 {
		return fmt.Errorf("plane: negative offset %d", l.Offset)
	}
	if l.Width > MaxSize || l.BytesPerPixel > 8 || l.Stride > MaxSize || l.Height > MaxSize || l.Offset > MaxSize {
		return fmt.Errorf("%w: %dx%d, stride %d, offset %d", ErrTooLarge, l.Width, l.Height, l.Stride, l.Offset)
	}
	if l.Stride < l.RowBytes() {
		return &mio.StrideError{Stride: l.Stride, RowBytes: l.RowBytes()}
	}
	if end := l.End(); end > MaxSize {
		return fmt.Errorf("%w: plane ends at %d", ErrTooLarge, end)
	}
	return nil
}

// ChromaSize returns the chroma plane dimensions for a luma plane of
// width x height. Odd dimensions round up so the last column and row of
// luma samples still own a chroma sample.
func ChromaSize(width, height int) (int, int) {
	return (width + 1) / 2, (height + 1) / 2
}

// Options controls how NewLayouts places the planes.
type Options struct {
	// Alignment of every stride and of the chroma plane offset. Zero means
	// DefaultAlignment.
	Alignment int
	// SharedStride gives both planes the larger of the two strides.
	SharedStride bool
	// StudioRange marks the samples as studio (video) range instead of full
	// range. It only affects the persisted header.
	StudioRange bool
}

func (o Options) alignment() int {
	if o.Alignment <= 0 {
		return DefaultAlignment
	}
	return o.Alignment
}

// NewLayouts returns luma and chroma layouts for a width x height image
// packed into a single allocation, chroma following luma. The returned size is
// the number of bytes the allocation needs.
func NewLayouts(width, height int, opts Options) (luma, chroma Layout, size int, err error) {
	if width <= 0 || height <= 0 {
		return Layout{}, Layout{}, 0, fmt.Errorf("plane: invalid dimensions %dx%d", width, height)
	}
	align := opts.alignment()

	cw, ch := ChromaSize(width, height)
	luma = Layout{
		Width:         width,
		Height:        height,
		BytesPerPixel: LumaBytesPerPixel,
	}
	chroma = Layout{
		Width:         cw,
		Height:        ch,
		BytesPerPixel: ChromaBytesPerPixel,
	}
	luma.Stride = alignUp(luma.RowBytes(), align)
	chroma.Stride = alignUp(chroma.RowBytes(), align)
	if opts.SharedStride {
		if chroma.Stride > luma.Stride {
			luma.Stride = chroma.Stride
		} else {
			chroma.Stride = luma.Stride
		}
	}

	chroma.Offset = alignUp(luma.Stride*luma.Height, align)
	size = chroma.Offset + chroma.Stride*chroma.Height
	return luma, chroma, size, nil
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}
