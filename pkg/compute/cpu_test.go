package compute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countKernel increments the R8 texel of every in-bounds work-item.
var countKernel = KernelSource{
	Name: "count",
	Func: func(x, y int, args *Args) {
		out := args.Surfaces[0]
		if x >= out.Width || y >= out.Height {
			return
		}
		out.Pix[y*out.Stride+x]++
	},
}

func newTestSurface(t *testing.T, d Device, w, h int, f Format) Surface {
	t.Helper()
	s, err := d.NewSurface(SurfaceDescriptor{
		Label:  "test",
		Width:  w,
		Height: h,
		Format: f,
		Usage:  UsageShaderRead | UsageShaderWrite,
	})
	require.NoError(t, err)
	return s
}

func TestCPUGridCoverage(t *testing.T) {
	d := NewCPUDevice(WithLimits(Limits{ThreadExecutionWidth: 8, MaxThreadsPerGroup: 32}), WithWorkers(3))
	defer d.Close()

	k, err := d.CompileKernel(countKernel)
	require.NoError(t, err)

	sizes := []struct{ w, h int }{{1, 1}, {8, 4}, {9, 5}, {37, 23}, {64, 3}}
	for _, sz := range sizes {
		sz := sz
		t.Run(fmt.Sprintf("%dx%d", sz.w, sz.h), func(t *testing.T) {
			s := newTestSurface(t, d, sz.w, sz.h, FormatR8)
			defer s.Release()
			require.NoError(t, s.Fill(0))

			group := GroupSize(d.Limits())
			grid := GridSize(sz.w, sz.h, group)
			status, err := d.Dispatch(context.Background(), k, grid, group, Bindings{Surfaces: []Surface{s}}).Wait(context.Background())
			require.NoError(t, err)
			require.Equal(t, StatusCompleted, status)

			out := make([]byte, sz.w*sz.h)
			require.NoError(t, s.Download(out, 0))
			for i, v := range out {
				if v != 1 {
					t.Fatalf("Pixel (%d, %d) written %d times", i%sz.w, i/sz.w, v)
				}
			}
		})
	}
}

func TestCPUInOrder(t *testing.T) {
	d := NewCPUDevice()
	defer d.Close()

	var (
		mu    sync.Mutex
		order []int32
	)
	k, err := d.CompileKernel(KernelSource{
		Name: "record",
		Func: func(x, y int, args *Args) {
			if args.Params[0]%2 == 0 {
				time.Sleep(time.Millisecond)
			}
			mu.Lock()
			order = append(order, args.Params[0])
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	var futures []*Future
	for i := int32(0); i < 8; i++ {
		futures = append(futures, d.Dispatch(context.Background(), k, Size{X: 1, Y: 1}, Size{X: 1, Y: 1}, Bindings{Params: []int32{i}}))
	}
	for _, f := range futures {
		status, err := f.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, StatusCompleted, status)
	}

	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7}, order)
	assert.Equal(t, uint64(8), d.Stats().Dispatches)
}

func TestCPUCancelled(t *testing.T) {
	d := NewCPUDevice(WithWorkers(1))
	defer d.Close()

	k, err := d.CompileKernel(countKernel)
	require.NoError(t, err)
	s := newTestSurface(t, d, 4, 4, FormatR8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err := d.Dispatch(ctx, k, Size{X: 1, Y: 1}, Size{X: 4, Y: 4}, Bindings{Surfaces: []Surface{s}}).Wait(context.Background())
	assert.Equal(t, StatusCancelled, status)

	var dispatchErr *DispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Equal(t, StatusCancelled, dispatchErr.Status)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCPUCancelledBetweenGroups(t *testing.T) {
	d := NewCPUDevice(WithWorkers(1))
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	k, err := d.CompileKernel(KernelSource{
		Name: "cancel",
		Func: func(x, y int, args *Args) {
			runs.Add(1)
			cancel()
		},
	})
	require.NoError(t, err)

	status, err := d.Dispatch(ctx, k, Size{X: 10, Y: 1}, Size{X: 1, Y: 1}, Bindings{}).Wait(context.Background())
	assert.Equal(t, StatusCancelled, status)
	assert.Error(t, err)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, uint64(1), d.Stats().Cancelled)
}

func TestCPUDispatchQueueFull(t *testing.T) {
	d := NewCPUDevice(WithWorkers(1))
	defer d.Close()

	started := make(chan struct{}, 1)
	unblock := make(chan struct{})
	k, err := d.CompileKernel(KernelSource{
		Name: "block",
		Func: func(x, y int, args *Args) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-unblock
		},
	})
	require.NoError(t, err)

	one := Size{X: 1, Y: 1}
	futures := []*Future{d.Dispatch(context.Background(), k, one, one, Bindings{})}
	<-started
	for i := 0; i < cpuQueueDepth; i++ {
		futures = append(futures, d.Dispatch(context.Background(), k, one, one, Bindings{}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := d.Dispatch(ctx, k, one, one, Bindings{})
	select {
	case <-f.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Dispatch on a full queue ignored the cancelled context")
	}
	assert.Equal(t, StatusCancelled, f.Status())
	assert.True(t, errors.Is(f.Err(), context.Canceled))

	close(unblock)
	for _, f := range futures {
		status, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, status)
	}
	assert.Equal(t, uint64(1), d.Stats().Cancelled)
}

func TestCPUPanicFailsDispatch(t *testing.T) {
	d := NewCPUDevice()
	defer d.Close()

	k, err := d.CompileKernel(KernelSource{
		Name: "panic",
		Func: func(x, y int, args *Args) {
			if x == 3 && y == 2 {
				panic("boom")
			}
		},
	})
	require.NoError(t, err)

	f := d.Dispatch(context.Background(), k, Size{X: 2, Y: 2}, Size{X: 4, Y: 4}, Bindings{})
	<-f.Done()
	assert.Equal(t, StatusError, f.Status())

	var dispatchErr *DispatchError
	require.True(t, errors.As(f.Err(), &dispatchErr))
	assert.Equal(t, "panic", dispatchErr.Kernel)
	assert.Equal(t, uint64(1), d.Stats().Failures)
}

func TestCPUDispatchValidation(t *testing.T) {
	d := NewCPUDevice(WithLimits(Limits{ThreadExecutionWidth: 4, MaxThreadsPerGroup: 16}))
	other := NewCPUDevice()
	defer other.Close()

	k, err := d.CompileKernel(countKernel)
	require.NoError(t, err)
	foreign, err := other.CompileKernel(countKernel)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = d.Dispatch(ctx, foreign, Size{X: 1, Y: 1}, Size{X: 1, Y: 1}, Bindings{}).Wait(ctx)
	assert.True(t, errors.Is(err, ErrUnknownKernel))

	_, err = d.Dispatch(ctx, k, Size{X: 1, Y: 1}, Size{X: 8, Y: 8}, Bindings{}).Wait(ctx)
	assert.Error(t, err, "group over the limit")

	_, err = d.Dispatch(ctx, k, Size{}, Size{X: 1, Y: 1}, Bindings{}).Wait(ctx)
	assert.Error(t, err, "empty grid")

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, err = d.Dispatch(ctx, k, Size{X: 1, Y: 1}, Size{X: 1, Y: 1}, Bindings{}).Wait(ctx)
	assert.True(t, errors.Is(err, ErrDeviceClosed))

	_, err = d.CompileKernel(countKernel)
	var resErr *DeviceResourceError
	assert.True(t, errors.As(err, &resErr))

	_, err = d.CompileKernel(KernelSource{Name: "gpu-only", WGSL: "fn main() {}"})
	assert.Error(t, err)
}

func TestCPUSurfaceStrides(t *testing.T) {
	d := NewCPUDevice()
	defer d.Close()

	s := newTestSurface(t, d, 2, 2, FormatRG8)

	// Rows of 4 bytes padded to 6; padding must not reach the surface.
	src := []byte{
		1, 2, 3, 4, 0xEE, 0xEE,
		5, 6, 7, 8,
	}
	require.NoError(t, s.Upload(src, 6))

	tight := make([]byte, 8)
	require.NoError(t, s.Download(tight, 0))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, tight)

	padded := make([]byte, 10)
	require.NoError(t, s.Download(padded, 5))
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 5, 6, 7, 8, 0}, padded)

	assert.Error(t, s.Upload(src[:7], 6), "short source")

	s.Release()
	assert.True(t, errors.Is(s.Upload(src, 6), ErrReleased))
}

func TestFutureWaitTimeout(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	status, err := f.Wait(ctx)
	assert.Equal(t, StatusPending, status)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	f.Resolve(StatusCompleted, nil)
	f.Resolve(StatusError, errors.New("ignored"))
	status, err = f.Wait(context.Background())
	assert.Equal(t, StatusCompleted, status)
	assert.NoError(t, err)
}

func TestNoGPUWithoutTag(t *testing.T) {
	d, err := NewWGPUDevice()
	if err == nil {
		d.Close()
		t.Skip("built with GPU support")
	}
	assert.True(t, errors.Is(err, ErrNoGPU) || errors.As(err, new(*DeviceResourceError)))
}
