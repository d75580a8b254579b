package plane

import (
	"image"
)

// LumaImage exposes the luma plane as a gray image. It shares memory with
// the buffer and is only valid until the view is released.
func (v *View) LumaImage() *image.Gray {
	l := v.Layout(Luma)
	return &image.Gray{
		Pix:    v.Plane(Luma),
		Stride: l.Stride,
		Rect:   image.Rect(0, 0, l.Width, l.Height),
	}
}

// ChromaImage copies the chroma plane into an RGBA image with Cb in the red
// channel and Cr in the green channel, the way a two channel texture is
// displayed.
func (v *View) ChromaImage() *image.RGBA {
	l := v.Layout(Chroma)
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	for y := 0; y < l.Height; y++ {
		row := v.Row(Chroma, y)
		out := img.Pix[y*img.Stride:]
		for x := 0; x < l.Width; x++ {
			out[4*x] = row[2*x]
			out[4*x+1] = row[2*x+1]
			out[4*x+2] = 0
			out[4*x+3] = 0xFF
		}
	}
	return img
}

// YCbCr copies the planes into a 4:2:0 image.YCbCr with separate Cb and Cr
// planes.
func (v *View) YCbCr() *image.YCbCr {
	l := v.Layout(Luma)
	c := v.Layout(Chroma)
	img := image.NewYCbCr(image.Rect(0, 0, l.Width, l.Height), image.YCbCrSubsampleRatio420)
	for y := 0; y < l.Height; y++ {
		copy(img.Y[y*img.YStride:], v.Row(Luma, y))
	}
	for y := 0; y < c.Height; y++ {
		row := v.Row(Chroma, y)
		cb := img.Cb[y*img.CStride:]
		cr := img.Cr[y*img.CStride:]
		for x := 0; x < c.Width; x++ {
			cb[x] = row[2*x]
			cr[x] = row[2*x+1]
		}
	}
	return img
}
