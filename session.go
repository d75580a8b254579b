// Package biplanar converts packed RGB images into biplanar 4:2:0 YCbCr
// buffers and reconstructs RGB from them with a data-parallel kernel.
package biplanar

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/biplanar/internal/logging"
	"github.com/pion/biplanar/pkg/colormatrix"
	"github.com/pion/biplanar/pkg/compute"
	"github.com/pion/biplanar/pkg/convert"
	"github.com/pion/biplanar/pkg/frame"
	"github.com/pion/biplanar/pkg/plane"
	pionlogging "github.com/pion/logging"
)

// ErrSessionClosed is returned by Run after Close.
var ErrSessionClosed = errors.New("biplanar: session closed")

// Session drives one conversion pipeline on a borrowed device. Runs are
// serialized so at most one dispatch targets the output surface.
type Session struct {
	ID string

	device  compute.Device
	cfg     Config
	profile *colormatrix.Profile
	forward *convert.Forward
	kernel  compute.Kernel
	log     pionlogging.LeveledLogger

	mu      sync.Mutex
	closed  bool
	planes  *plane.Buffer
	width   int
	height  int
	luma    compute.Surface
	chroma  compute.Surface
	out     compute.Surface
	pending *compute.Future
}

// NewSession builds the color profile and compiles the reverse kernel on
// device. The session never closes device.
func NewSession(device compute.Device, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	kernel, err := device.CompileKernel(convert.ReverseSource())
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:      uuid.New().String(),
		device:  device,
		cfg:     cfg,
		profile: profile,
		forward: &convert.Forward{
			Profile: profile,
			Policy:  cfg.Subsample,
			Workers: cfg.Workers,
		},
		kernel: kernel,
		log:    logging.NewLogger("biplanar"),
	}
	s.log.Debugf("session %s: %s on %s, %v chroma", s.ID, profile, device.Name(), cfg.Subsample)
	return s, nil
}

// Profile returns the color profile of the session.
func (s *Session) Profile() *colormatrix.Profile {
	return s.profile
}

// Planes returns the biplanar buffer of the last successful forward
// conversion, or nil.
func (s *Session) Planes() *plane.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planes
}

// Run converts src into biplanar YCbCr, reconstructs RGB on the device and
// returns it. The view is only returned when the dispatch completed.
func (s *Session) Run(ctx context.Context, src *frame.Surface) (*RGBView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := s.awaitPending(ctx); err != nil {
		return nil, err
	}

	perm, err := src.Order.Permutation()
	if err != nil {
		return nil, err
	}

	buf, err := plane.New(src.Width, src.Height, s.cfg.PlaneOptions(s.profile))
	if err != nil {
		return nil, err
	}
	if err := s.convert(src, perm, buf); err != nil {
		buf.Close()
		return nil, err
	}
	if s.planes != nil {
		s.planes.Close()
	}
	s.planes = buf

	if err := s.ensureSurfaces(buf); err != nil {
		return nil, err
	}
	if err := s.upload(buf); err != nil {
		return nil, err
	}

	group := compute.GroupSize(s.device.Limits())
	grid := compute.GridSize(src.Width, src.Height, group)
	f := s.device.Dispatch(ctx, s.kernel, grid, group, compute.Bindings{
		Surfaces: []compute.Surface{s.luma, s.chroma, s.out},
		Params:   convert.ReverseParams(s.profile, src.Width, src.Height),
	})
	s.pending = f

	status, err := f.Wait(ctx)
	if status == compute.StatusPending {
		return nil, fmt.Errorf("biplanar: waiting for dispatch: %w", err)
	}
	s.pending = nil
	if status != compute.StatusCompleted {
		s.log.Errorf("session %s: %v", s.ID, err)
		var dispatchErr *compute.DispatchError
		if !errors.As(err, &dispatchErr) {
			err = &compute.DispatchError{Kernel: s.kernel.Name(), Status: status, Err: err}
		}
		return nil, err
	}

	view := &RGBView{width: src.Width, height: src.Height, pix: make([]byte, src.Width*src.Height*4)}
	if err := s.out.Download(view.pix, 0); err != nil {
		return nil, err
	}
	return view, nil
}

// awaitPending waits for a dispatch an earlier Run gave up on. s.mu must be
// held.
func (s *Session) awaitPending(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}
	if status, err := s.pending.Wait(ctx); status == compute.StatusPending {
		return fmt.Errorf("biplanar: waiting for previous dispatch: %w", err)
	}
	s.pending = nil
	return nil
}

func (s *Session) convert(src *frame.Surface, perm frame.Permutation, buf *plane.Buffer) error {
	v, err := buf.Lock(plane.LockReadWrite)
	if err != nil {
		return err
	}
	defer v.Release()
	return s.forward.Convert(src, perm, v)
}

// ensureSurfaces allocates device surfaces sized to the planes, reusing the
// previous ones when the dimensions did not change.
func (s *Session) ensureSurfaces(buf *plane.Buffer) error {
	if s.out != nil && s.width == buf.Width() && s.height == buf.Height() {
		return nil
	}
	s.releaseSurfaces()

	alloc := func(label string, l plane.Layout, f compute.Format, usage compute.Usage) (compute.Surface, error) {
		return s.device.NewSurface(compute.SurfaceDescriptor{
			Label:  s.ID + "/" + label,
			Width:  l.Width,
			Height: l.Height,
			Format: f,
			Usage:  usage,
		})
	}

	var err error
	if s.luma, err = alloc("luma", buf.Luma(), compute.FormatR8, compute.UsageShaderRead); err != nil {
		return err
	}
	if s.chroma, err = alloc("chroma", buf.Chroma(), compute.FormatRG8, compute.UsageShaderRead); err != nil {
		s.releaseSurfaces()
		return err
	}
	outLayout := plane.Layout{Width: buf.Width(), Height: buf.Height()}
	if s.out, err = alloc("bgra", outLayout, compute.FormatBGRA8, compute.UsageShaderWrite); err != nil {
		s.releaseSurfaces()
		return err
	}
	s.width, s.height = buf.Width(), buf.Height()
	s.log.Debugf("session %s: allocated surfaces for %dx%d", s.ID, s.width, s.height)
	return nil
}

// upload copies each plane with its own stride.
func (s *Session) upload(buf *plane.Buffer) error {
	v, err := buf.Lock(plane.LockReadOnly)
	if err != nil {
		return err
	}
	defer v.Release()

	if err := s.luma.Upload(v.Plane(plane.Luma), buf.Luma().Stride); err != nil {
		return fmt.Errorf("biplanar: uploading luma: %w", err)
	}
	if err := s.chroma.Upload(v.Plane(plane.Chroma), buf.Chroma().Stride); err != nil {
		return fmt.Errorf("biplanar: uploading chroma: %w", err)
	}
	return nil
}

func (s *Session) releaseSurfaces() {
	for _, surf := range []*compute.Surface{&s.luma, &s.chroma, &s.out} {
		if *surf != nil {
			(*surf).Release()
			*surf = nil
		}
	}
	s.width, s.height = 0, 0
}

// Close waits for a pending dispatch, then releases the surfaces, the
// kernel and the last buffer. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.pending != nil {
		<-s.pending.Done()
		s.pending = nil
	}
	s.releaseSurfaces()
	s.kernel.Release()
	if s.planes != nil {
		s.planes.Close()
	}
	s.log.Debugf("session %s: closed", s.ID)
	return nil
}

// RoundTrip converts img to biplanar YCbCr and back on device.
func RoundTrip(ctx context.Context, device compute.Device, cfg Config, img image.Image) (*image.RGBA, error) {
	s, err := NewSession(device, cfg)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	view, err := s.Run(ctx, frame.FromImage(img))
	if err != nil {
		return nil, err
	}
	return view.Image(), nil
}
