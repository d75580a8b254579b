package biplanar

import (
	"image"

	mio "github.com/pion/biplanar/pkg/io"
)

// RGBView is the read-only result of a Session run: tightly packed B, G, R,
// A pixels with alpha fixed at 255.
type RGBView struct {
	width, height int
	pix           []byte
}

func (v *RGBView) Width() int  { return v.width }
func (v *RGBView) Height() int { return v.height }

// Stride is the distance in bytes between two rows.
func (v *RGBView) Stride() int { return v.width * 4 }

// BGRAAt returns the pixel at (x, y).
func (v *RGBView) BGRAAt(x, y int) (b, g, r, a uint8) {
	px := v.pix[y*v.Stride()+x*4:]
	return px[0], px[1], px[2], px[3]
}

// CopyTo copies the pixels into dst. If dst is not big enough, it returns an
// InsufficientBufferError.
func (v *RGBView) CopyTo(dst []byte) (int, error) {
	return mio.Copy(dst, v.pix)
}

// Image converts the view into an RGBA image for encoders.
func (v *RGBView) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	for i := 0; i < len(v.pix); i += 4 {
		img.Pix[i] = v.pix[i+2]
		img.Pix[i+1] = v.pix[i+1]
		img.Pix[i+2] = v.pix[i]
		img.Pix[i+3] = v.pix[i+3]
	}
	return img
}
