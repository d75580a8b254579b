package plane

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when locking a closed Buffer.
var ErrClosed = errors.New("plane: buffer closed")

// LockMode selects shared or exclusive access to a Buffer.
type LockMode int

const (
	// LockReadOnly views may coexist with each other.
	LockReadOnly LockMode = iota
	// LockReadWrite views are exclusive.
	LockReadWrite
)

func (m LockMode) String() string {
	switch m {
	case LockReadOnly:
		return "read-only"
	case LockReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("LockMode(%d)", int(m))
	}
}

// Buffer owns the memory of one biplanar 4:2:0 image. Pixel memory is only
// reachable through a View obtained from Lock.
type Buffer struct {
	mu      sync.RWMutex
	closed  bool
	backing []byte
	layouts [2]Layout
	studio  bool
}

// New allocates a buffer for a width x height image with both planes in one
// allocation.
func New(width, height int, opts Options) (*Buffer, error) {
	luma, chroma, size, err := NewLayouts(width, height, opts)
	if err != nil {
		return nil, err
	}
	return &Buffer{
		backing: make([]byte, size),
		layouts: [2]Layout{luma, chroma},
		studio:  opts.StudioRange,
	}, nil
}

// checkLayouts validates a luma and chroma pair and returns the number of
// backing bytes they span.
func checkLayouts(luma, chroma Layout) (int, error) {
	if err := luma.Validate(); err != nil {
		return 0, fmt.Errorf("plane: luma: %w", err)
	}
	if err := chroma.Validate(); err != nil {
		return 0, fmt.Errorf("plane: chroma: %w", err)
	}
	if luma.BytesPerPixel != LumaBytesPerPixel || chroma.BytesPerPixel != ChromaBytesPerPixel {
		return 0, fmt.Errorf("plane: unexpected bytes per pixel %d/%d", luma.BytesPerPixel, chroma.BytesPerPixel)
	}
	if cw, ch := ChromaSize(luma.Width, luma.Height); chroma.Width != cw || chroma.Height != ch {
		return 0, fmt.Errorf("plane: chroma plane is %dx%d, want %dx%d", chroma.Width, chroma.Height, cw, ch)
	}
	if luma.Offset < chroma.End() && chroma.Offset < luma.End() {
		return 0, fmt.Errorf("plane: planes overlap ([%d,%d) and [%d,%d))", luma.Offset, luma.End(), chroma.Offset, chroma.End())
	}

	size := luma.End()
	if chroma.End() > size {
		size = chroma.End()
	}
	return size, nil
}

// NewWithLayouts wraps backing with explicit plane layouts. A nil backing is
// allocated to fit both planes. The chroma layout must match ChromaSize of
// the luma layout and the planes must not overlap.
func NewWithLayouts(luma, chroma Layout, backing []byte) (*Buffer, error) {
	size, err := checkLayouts(luma, chroma)
	if err != nil {
		return nil, err
	}
	if backing == nil {
		backing = make([]byte, size)
	}
	if len(backing) < size {
		return nil, fmt.Errorf("plane: backing holds %d bytes, layouts need %d", len(backing), size)
	}
	return &Buffer{backing: backing, layouts: [2]Layout{luma, chroma}}, nil
}

func (b *Buffer) Width() int  { return b.layouts[Luma].Width }
func (b *Buffer) Height() int { return b.layouts[Luma].Height }

// Luma returns the luma plane layout.
func (b *Buffer) Luma() Layout { return b.layouts[Luma] }

// Chroma returns the chroma plane layout.
func (b *Buffer) Chroma() Layout { return b.layouts[Chroma] }

// FullRange reports whether samples use the full 0-255 range.
func (b *Buffer) FullRange() bool { return !b.studio }

// SetFullRange changes the range recorded in the header.
func (b *Buffer) SetFullRange(full bool) { b.studio = !full }

// Len is the size of the backing allocation.
func (b *Buffer) Len() int { return len(b.backing) }

// Lock acquires the buffer in the given mode. The returned View must be
// released on every path, typically with defer. A goroutine holding a view
// must not Lock the same buffer for writing.
func (b *Buffer) Lock(mode LockMode) (*View, error) {
	switch mode {
	case LockReadOnly:
		b.mu.RLock()
	case LockReadWrite:
		b.mu.Lock()
	default:
		return nil, fmt.Errorf("plane: invalid lock mode %v", mode)
	}
	if b.closed {
		b.unlock(mode)
		return nil, ErrClosed
	}
	return &View{buf: b, mode: mode}, nil
}

func (b *Buffer) unlock(mode LockMode) {
	if mode == LockReadWrite {
		b.mu.Unlock()
	} else {
		b.mu.RUnlock()
	}
}

// Close waits for outstanding views and drops the backing memory.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.backing = nil
	return nil
}

// View is a scoped acquisition of a Buffer. Slices obtained from a View are
// only valid until Release. Writing through a read-only view is a bug.
type View struct {
	buf      *Buffer
	mode     LockMode
	released atomic.Bool
}

// Release gives the lock back. Calling it more than once is a no-op.
func (v *View) Release() {
	if v.released.CompareAndSwap(false, true) {
		v.buf.unlock(v.mode)
	}
}

func (v *View) check() {
	if v.released.Load() {
		panic("plane: use of released view")
	}
}

// Mode reports how the view was acquired.
func (v *View) Mode() LockMode { return v.mode }

func (v *View) Width() int  { return v.buf.Width() }
func (v *View) Height() int { return v.buf.Height() }

// Layout returns the layout of plane i.
func (v *View) Layout(i int) Layout {
	return v.buf.layouts[i]
}

// Plane returns the bytes spanned by plane i, starting at its first row.
func (v *View) Plane(i int) []byte {
	v.check()
	l := v.buf.layouts[i]
	return v.buf.backing[l.Offset:l.End()]
}

// Row returns the meaningful bytes of row y of plane i, without padding.
func (v *View) Row(i, y int) []byte {
	v.check()
	l := v.buf.layouts[i]
	start := l.Offset + y*l.Stride
	return v.buf.backing[start : start+l.RowBytes()]
}

// Bytes returns the whole backing allocation.
func (v *View) Bytes() []byte {
	v.check()
	return v.buf.backing
}
