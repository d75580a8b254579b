package video

import (
	"image"
	"io"
)

type Reader interface {
	// Read returns the next frame. release hands the frame memory back to
	// the reader; the image must not be used afterwards.
	Read() (img image.Image, release func(), err error)
}

type ReaderFunc func() (img image.Image, release func(), err error)

func (rf ReaderFunc) Read() (img image.Image, release func(), err error) {
	img, release, err = rf()
	return
}

// TransformFunc produces a new Reader that will produces a transformed video
type TransformFunc func(r Reader) Reader

// Merge merges transforms and produces a new TransformFunc that will execute
// transforms in order
func Merge(transforms ...TransformFunc) TransformFunc {
	return func(r Reader) Reader {
		for _, transform := range transforms {
			if transform == nil {
				continue
			}

			r = transform(r)
		}

		return r
	}
}

func noopRelease() {}

// Images returns a Reader that yields imgs in order and then io.EOF.
func Images(imgs ...image.Image) Reader {
	i := 0
	return ReaderFunc(func() (image.Image, func(), error) {
		if i >= len(imgs) {
			return nil, noopRelease, io.EOF
		}
		img := imgs[i]
		i++
		return img, noopRelease, nil
	})
}

// ImageFunc maps one frame to another.
type ImageFunc func(img image.Image) (image.Image, error)

// Apply returns a transform running fn on every frame. The source frame is
// released once fn returns.
func Apply(fn ImageFunc) TransformFunc {
	return func(r Reader) Reader {
		return ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, noopRelease, err
			}
			out, err := fn(img)
			if release != nil {
				release()
			}
			if err != nil {
				return nil, noopRelease, err
			}
			return out, noopRelease, nil
		})
	}
}
