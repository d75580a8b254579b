package video

import (
	"image"

	"golang.org/x/image/draw"
)

// ToRGBA converts every frame into *image.RGBA. Frames that already are
// RGBA pass through untouched.
func ToRGBA(r Reader) Reader {
	return ReaderFunc(func() (image.Image, func(), error) {
		img, release, err := r.Read()
		if err != nil {
			return nil, noopRelease, err
		}
		if rgba, ok := img.(*image.RGBA); ok {
			return rgba, release, nil
		}
		if release != nil {
			defer release()
		}

		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
		return dst, noopRelease, nil
	})
}
