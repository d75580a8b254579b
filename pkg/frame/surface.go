package frame

import (
	"errors"
	"fmt"
	"image"

	mio "github.com/pion/biplanar/pkg/io"
	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one packed pixel.
const BytesPerPixel = 4

// ErrInvalidDimensions is returned for non-positive width or height.
var ErrInvalidDimensions = errors.New("frame: width and height must be positive")

// Surface is a packed 4-byte-per-pixel image buffer with an explicit row
// stride and channel order. The pixel at (x, y) starts at Pix[y*Stride+x*4].
type Surface struct {
	Width, Height int
	Stride        int
	Order         ChannelOrder
	Pix           []uint8
}

// NewSurface allocates a tightly packed surface.
func NewSurface(width, height int, order ChannelOrder) *Surface {
	return &Surface{
		Width:  width,
		Height: height,
		Stride: width * BytesPerPixel,
		Order:  order,
		Pix:    make([]uint8, width*height*BytesPerPixel),
	}
}

// Validate checks the geometry against the backing buffer.
func (s *Surface) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}
	if err := s.Order.Validate(); err != nil {
		return err
	}
	return mio.CheckRows(s.Pix, s.Stride, s.Width*BytesPerPixel, s.Height)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (s *Surface) PixOffset(x, y int) int {
	return y*s.Stride + x*BytesPerPixel
}

// RGBAt returns the red, green and blue channels of the pixel at (x, y).
func (s *Surface) RGBAt(x, y int) (r, g, b uint8) {
	px := s.Pix[s.PixOffset(x, y):]
	return px[s.Order.R], px[s.Order.G], px[s.Order.B]
}

// Permute returns a tightly packed copy of s stored in order.
func (s *Surface) Permute(order ChannelOrder) *Surface {
	dst := NewSurface(s.Width, s.Height, order)
	for y := 0; y < s.Height; y++ {
		src := s.Pix[y*s.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < s.Width; x++ {
			i := x * BytesPerPixel
			out[i+order.R] = src[i+s.Order.R]
			out[i+order.G] = src[i+s.Order.G]
			out[i+order.B] = src[i+s.Order.B]
			out[i+order.A] = src[i+s.Order.A]
		}
	}
	return dst
}

// FromImage copies img into a new RGBA surface. *image.RGBA and
// *image.NRGBA pixels are copied row by row, everything else is drawn.
// Alpha is carried but never applied to the color channels.
func FromImage(img image.Image) *Surface {
	bounds := img.Bounds()
	dst := NewSurface(bounds.Dx(), bounds.Dy(), OrderRGBA)
	rowBytes := dst.Width * BytesPerPixel

	switch src := img.(type) {
	case *image.RGBA:
		_ = mio.CopyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):], src.Stride, rowBytes, dst.Height)
		return dst
	case *image.NRGBA:
		_ = mio.CopyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):], src.Stride, rowBytes, dst.Height)
		return dst
	}

	rgba := &image.RGBA{Pix: dst.Pix, Stride: dst.Stride, Rect: image.Rect(0, 0, dst.Width, dst.Height)}
	draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	return dst
}
