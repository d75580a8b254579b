// Package convert turns packed RGB surfaces into biplanar 4:2:0 YCbCr and
// provides the kernel that turns them back.
package convert

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pion/biplanar/pkg/colormatrix"
	"github.com/pion/biplanar/pkg/frame"
	mio "github.com/pion/biplanar/pkg/io"
	"github.com/pion/biplanar/pkg/plane"
)

// Forward converts packed RGB into luma and chroma planes. It holds no
// mutable state and may be shared between goroutines.
type Forward struct {
	Profile *colormatrix.Profile
	Policy  SubsamplePolicy
	// Workers bounds the goroutines used per conversion. Zero means
	// GOMAXPROCS.
	Workers int
}

// Convert writes src into the planes of dst, which must be locked for
// writing.
func (f *Forward) Convert(src *frame.Surface, perm frame.Permutation, dst *plane.View) error {
	if dst.Mode() != plane.LockReadWrite {
		return fmt.Errorf("convert: destination view is %v", dst.Mode())
	}
	return f.ConvertPlanes(src, perm,
		dst.Plane(plane.Luma), dst.Layout(plane.Luma),
		dst.Plane(plane.Chroma), dst.Layout(plane.Chroma))
}

// ConvertPlanes is Convert on raw plane memory. luma and chroma start at
// the first row of their plane; the layout offsets are not applied.
func (f *Forward) ConvertPlanes(src *frame.Surface, perm frame.Permutation, luma []byte, lumaLayout plane.Layout, chroma []byte, chromaLayout plane.Layout) error {
	if f.Profile == nil {
		return fmt.Errorf("convert: no color profile")
	}
	if err := perm.Validate(); err != nil {
		return err
	}
	if src.Width <= 0 || src.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", frame.ErrInvalidDimensions, src.Width, src.Height)
	}

	cw, ch := plane.ChromaSize(src.Width, src.Height)
	if lumaLayout.Width != src.Width || lumaLayout.Height != src.Height || lumaLayout.BytesPerPixel != plane.LumaBytesPerPixel {
		return fmt.Errorf("%w: luma plane is %dx%d, source is %dx%d", ErrGeometryMismatch, lumaLayout.Width, lumaLayout.Height, src.Width, src.Height)
	}
	if chromaLayout.Width != cw || chromaLayout.Height != ch || chromaLayout.BytesPerPixel != plane.ChromaBytesPerPixel {
		return fmt.Errorf("%w: chroma plane is %dx%d, want %dx%d", ErrGeometryMismatch, chromaLayout.Width, chromaLayout.Height, cw, ch)
	}

	if err := checkStride("source", src.Pix, src.Stride, src.Width*frame.BytesPerPixel, src.Height); err != nil {
		return err
	}
	if err := checkStride("luma", luma, lumaLayout.Stride, lumaLayout.RowBytes(), lumaLayout.Height); err != nil {
		return err
	}
	if err := checkStride("chroma", chroma, chromaLayout.Stride, chromaLayout.RowBytes(), chromaLayout.Height); err != nil {
		return err
	}

	job := &forwardJob{
		src:          src,
		order:        perm.Order(),
		luma:         luma,
		lumaStride:   lumaLayout.Stride,
		chroma:       chroma,
		chromaStride: chromaLayout.Stride,
		profile:      f.Profile,
		coeffs:       f.Profile.Forward(),
		policy:       f.Policy,
	}
	f.parallel(ch, job.blockRows)
	return nil
}

func checkStride(name string, buf []byte, stride, rowBytes, rows int) error {
	if err := mio.CheckRows(buf, stride, rowBytes, rows); err != nil {
		return &UnsupportedStrideError{Surface: name, Stride: stride, Required: rowBytes, Err: err}
	}
	return nil
}

// parallel splits n block rows into contiguous bands, one per worker.
func (f *Forward) parallel(n int, fn func(from, to int)) {
	workers := f.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	band := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for from := 0; from < n; from += band {
		to := from + band
		if to > n {
			to = n
		}
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			fn(from, to)
		}(from, to)
	}
	wg.Wait()
}

type forwardJob struct {
	src          *frame.Surface
	order        frame.ChannelOrder
	luma         []byte
	lumaStride   int
	chroma       []byte
	chromaStride int
	profile      *colormatrix.Profile
	coeffs       colormatrix.Coefficients
	policy       SubsamplePolicy
}

func (j *forwardJob) rgb(x, y int) (int32, int32, int32) {
	px := j.src.Pix[y*j.src.Stride+x*frame.BytesPerPixel:]
	return int32(px[j.order.R]), int32(px[j.order.G]), int32(px[j.order.B])
}

// blockRows converts block rows [from, to): luma rows 2*from up to 2*to and
// the matching chroma rows.
func (j *forwardJob) blockRows(from, to int) {
	w, h := j.src.Width, j.src.Height
	cw := (w + 1) / 2

	for by := from; by < to; by++ {
		y0 := 2 * by
		y1 := y0 + 1
		if y1 >= h {
			y1 = y0
		}

		for y := y0; y <= y1; y++ {
			row := j.luma[y*j.lumaStride:]
			for x := 0; x < w; x++ {
				r, g, b := j.rgb(x, y)
				v, _, _ := j.coeffs.Apply(r, g, b)
				row[x] = j.profile.ClampLuma(v)
			}
		}

		crow := j.chroma[by*j.chromaStride:]
		for bx := 0; bx < cw; bx++ {
			r, g, b := j.block(bx, by)
			_, cb, cr := j.coeffs.Apply(r, g, b)
			crow[2*bx] = j.profile.ClampChroma(cb)
			crow[2*bx+1] = j.profile.ClampChroma(cr)
		}
	}
}

// block returns the RGB a chroma sample is derived from.
func (j *forwardJob) block(bx, by int) (int32, int32, int32) {
	x0, y0 := 2*bx, 2*by
	if j.policy == SubsampleTopLeft {
		return j.rgb(x0, y0)
	}

	var sr, sg, sb, n int32
	for y := y0; y < y0+2 && y < j.src.Height; y++ {
		for x := x0; x < x0+2 && x < j.src.Width; x++ {
			r, g, b := j.rgb(x, y)
			sr += r
			sg += g
			sb += b
			n++
		}
	}
	return (sr + n/2) / n, (sg + n/2) / n, (sb + n/2) / n
}
