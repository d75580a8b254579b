package video

import (
	"image"

	"golang.org/x/image/draw"
)

// Scaler represents scaling algorithm
type Scaler draw.Scaler

// List of scaling algorithms
var (
	ScalerNearestNeighbor = Scaler(draw.NearestNeighbor)
	ScalerApproxBiLinear  = Scaler(draw.ApproxBiLinear)
	ScalerBiLinear        = Scaler(draw.BiLinear)
	ScalerCatmullRom      = Scaler(draw.CatmullRom)
)

// Scale returns video scaling transform.
// Setting scaler=nil to use default scaler. (ScalerNearestNeighbor)
// A non-positive width or height keeps the aspect ratio of incoming image.
//
// 4:2:0 YCbCr frames are scaled plane by plane and stay YCbCr; every other
// frame is scaled into RGBA.
func Scale(width, height int, scaler Scaler) TransformFunc {
	if width <= 0 && height <= 0 {
		panic("video: both width and height are non-positive")
	}
	if scaler == nil {
		scaler = ScalerNearestNeighbor
	}

	return func(r Reader) Reader {
		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, noopRelease, err
			}
			if release != nil {
				defer release()
			}

			rect := targetRect(img.Bounds(), width, height)
			if v, ok := img.(*image.YCbCr); ok && v.SubsampleRatio == image.YCbCrSubsampleRatio420 {
				return scaleYCbCr(v, rect, scaler), noopRelease, nil
			}

			dst := image.NewRGBA(rect)
			scaler.Scale(dst, rect, img, img.Bounds(), draw.Src, nil)
			return dst, noopRelease, nil
		})
	}
}

func targetRect(src image.Rectangle, width, height int) image.Rectangle {
	switch {
	case height <= 0:
		height = src.Dy() * width / src.Dx()
	case width <= 0:
		width = src.Dx() * height / src.Dy()
	}
	return image.Rect(0, 0, width, height)
}

func scaleYCbCr(src *image.YCbCr, rect image.Rectangle, scaler Scaler) *image.YCbCr {
	dst := image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)
	b := src.Rect
	cRect := func(r image.Rectangle) image.Rectangle {
		return image.Rect(r.Min.X/2, r.Min.Y/2, (r.Max.X+1)/2, (r.Max.Y+1)/2)
	}
	cw, ch := (rect.Dx()+1)/2, (rect.Dy()+1)/2

	planes := []struct {
		dst, src         []byte
		dStride, sStride int
		dRect, sRect     image.Rectangle
	}{
		{dst.Y, src.Y, dst.YStride, src.YStride, rect, b},
		{dst.Cb, src.Cb, dst.CStride, src.CStride, image.Rect(0, 0, cw, ch), cRect(b)},
		{dst.Cr, src.Cr, dst.CStride, src.CStride, image.Rect(0, 0, cw, ch), cRect(b)},
	}
	for _, p := range planes {
		d := &image.Gray{Pix: p.dst, Stride: p.dStride, Rect: p.dRect}
		s := &image.Gray{Pix: p.src, Stride: p.sStride, Rect: p.sRect}
		scaler.Scale(d, d.Rect, s, s.Rect, draw.Src, nil)
	}
	return dst
}
