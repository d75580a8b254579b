// Package compute is a small data-parallel dispatch layer. A Device compiles
// kernels, owns surfaces and runs a kernel over a 2D grid of work-groups,
// reporting completion through a Future.
package compute

import (
	"context"
	"fmt"
)

// Size is a 3D extent in work-items or work-groups.
type Size struct {
	X, Y, Z int
}

// Count is the number of elements spanned by s.
func (s Size) Count() int {
	return s.X * s.Y * s.Z
}

// norm treats a zero Z as a 2D size.
func (s Size) norm() Size {
	if s.Z == 0 {
		s.Z = 1
	}
	return s
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
}

// Limits describes the preferred and maximum work-group shape of a device.
type Limits struct {
	// ThreadExecutionWidth is the number of work-items the device runs in
	// lockstep.
	ThreadExecutionWidth int
	// MaxThreadsPerGroup bounds the number of work-items in one group.
	MaxThreadsPerGroup int
}

// GroupSize picks a work-group one execution width wide and as tall as the
// per-group limit allows.
func GroupSize(l Limits) Size {
	w := l.ThreadExecutionWidth
	maxThreads := l.MaxThreadsPerGroup
	if maxThreads < 1 {
		maxThreads = 1
	}
	if w < 1 {
		w = 1
	}
	if w > maxThreads {
		w = maxThreads
	}
	return Size{X: w, Y: maxThreads / w, Z: 1}
}

// GridSize returns how many groups cover a width x height image.
func GridSize(width, height int, group Size) Size {
	return Size{
		X: ceilDiv(width, group.X),
		Y: ceilDiv(height, group.Y),
		Z: 1,
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Format is the texel format of a Surface.
type Format int

const (
	FormatR8 Format = iota + 1
	FormatRG8
	FormatBGRA8
)

// BytesPerPixel is the size of one texel.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRG8:
		return 2
	case FormatBGRA8:
		return 4
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case FormatR8:
		return "r8"
	case FormatRG8:
		return "rg8"
	case FormatBGRA8:
		return "bgra8"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Usage tells the device how a kernel accesses a surface.
type Usage int

const (
	UsageShaderRead Usage = 1 << iota
	UsageShaderWrite
)

// SurfaceDescriptor describes a 2D surface. Device side rows are tightly
// packed.
type SurfaceDescriptor struct {
	Label         string
	Width, Height int
	Format        Format
	Usage         Usage
}

// RowBytes is the size of one tightly packed row.
func (d SurfaceDescriptor) RowBytes() int {
	return d.Width * d.Format.BytesPerPixel()
}

func (d SurfaceDescriptor) validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", d.Width, d.Height)
	}
	if d.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("invalid surface format %v", d.Format)
	}
	if d.Usage&(UsageShaderRead|UsageShaderWrite) == 0 {
		return fmt.Errorf("surface %q has no usage", d.Label)
	}
	return nil
}

// Surface is device-visible 2D memory.
type Surface interface {
	Descriptor() SurfaceDescriptor
	// Upload copies exactly RowBytes per row from src, rows stride bytes
	// apart. Padding in src never reaches the device. stride <= 0 means
	// src is tightly packed.
	Upload(src []byte, stride int) error
	// Download copies the surface into dst with the given row stride.
	Download(dst []byte, stride int) error
	// Fill sets every byte of the surface to v.
	Fill(v byte) error
	// Release frees the device memory. Further use returns ErrReleased.
	Release()
}

// KernelSource carries every representation of a kernel a device may need.
type KernelSource struct {
	Name string
	// WGSL is the shader text. Its entry point is "main" and its workgroup
	// size is written as WG_X and WG_Y, substituted at pipeline creation.
	WGSL string
	// Func is the per work-item function run by CPU devices.
	Func WorkItemFunc
}

// WorkItemFunc runs one work-item at global position (x, y). It must only
// write memory owned by that work-item.
type WorkItemFunc func(x, y int, args *Args)

// Args is what a WorkItemFunc sees: the bound surfaces in binding order and
// the scalar parameters.
type Args struct {
	Surfaces []*Texture
	Params   []int32
}

// Texture is the CPU view of a bound surface.
type Texture struct {
	Width, Height int
	BytesPerPixel int
	Stride        int
	Pix           []byte
}

// Kernel is a compiled kernel owned by a Device.
type Kernel interface {
	Name() string
	Release()
}

// Bindings are the arguments of one dispatch. Surfaces bind in order starting
// at binding 0, Params follow as the last binding.
type Bindings struct {
	Surfaces []Surface
	Params   []int32
}

// Device runs kernels. Callers borrow a device; whoever created it closes it.
type Device interface {
	Name() string
	Limits() Limits
	CompileKernel(src KernelSource) (Kernel, error)
	NewSurface(desc SurfaceDescriptor) (Surface, error)
	// Dispatch enqueues k over grid groups of group work-items and returns
	// immediately. Dispatches on one device run in submission order.
	Dispatch(ctx context.Context, k Kernel, grid, group Size, b Bindings) *Future
	Close() error
}
