package compute

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pion/biplanar/internal/logging"
	mio "github.com/pion/biplanar/pkg/io"
	pionlogging "github.com/pion/logging"
)

// DefaultCPULimits mirror a typical GPU so kernels see the same group shape
// on every device.
var DefaultCPULimits = Limits{ThreadExecutionWidth: 32, MaxThreadsPerGroup: 512}

const cpuQueueDepth = 16

// CPUDevice runs kernels on a goroutine pool. Dispatches are executed one at
// a time in submission order by a single dispatcher goroutine; the groups of
// one dispatch are spread over the workers.
type CPUDevice struct {
	limits  Limits
	workers int
	log     pionlogging.LeveledLogger

	mu     sync.RWMutex
	closed bool
	queue  chan *cpuJob
	wg     sync.WaitGroup

	dispatches atomic.Uint64
	groups     atomic.Uint64
	failures   atomic.Uint64
	cancels    atomic.Uint64
}

// CPUOption is a type for specifying CPUDevice options
type CPUOption func(*CPUDevice)

// WithLimits overrides the group shape limits reported by the device
func WithLimits(l Limits) CPUOption {
	return func(d *CPUDevice) {
		d.limits = l
	}
}

// WithWorkers sets how many goroutines execute work-groups
func WithWorkers(n int) CPUOption {
	return func(d *CPUDevice) {
		d.workers = n
	}
}

// WithLogger replaces the device logger
func WithLogger(l pionlogging.LeveledLogger) CPUOption {
	return func(d *CPUDevice) {
		d.log = l
	}
}

// NewCPUDevice starts a CPU device. Close stops its dispatcher.
func NewCPUDevice(opts ...CPUOption) *CPUDevice {
	d := &CPUDevice{
		limits: DefaultCPULimits,
		queue:  make(chan *cpuJob, cpuQueueDepth),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers <= 0 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	if d.log == nil {
		d.log = logging.NewLogger("compute")
	}

	d.wg.Add(1)
	go d.dispatcher()
	return d
}

func (d *CPUDevice) Name() string   { return "cpu" }
func (d *CPUDevice) Limits() Limits { return d.limits }

// CPUStats are cumulative device counters.
type CPUStats struct {
	Dispatches uint64
	Groups     uint64
	Failures   uint64
	Cancelled  uint64
}

// Stats returns a snapshot of the device counters.
func (d *CPUDevice) Stats() CPUStats {
	return CPUStats{
		Dispatches: d.dispatches.Load(),
		Groups:     d.groups.Load(),
		Failures:   d.failures.Load(),
		Cancelled:  d.cancels.Load(),
	}
}

type cpuKernel struct {
	device *CPUDevice
	name   string
	fn     WorkItemFunc
}

func (k *cpuKernel) Name() string { return k.name }
func (k *cpuKernel) Release()     {}

// CompileKernel binds the CPU function of src.
func (d *CPUDevice) CompileKernel(src KernelSource) (Kernel, error) {
	if d.isClosed() {
		return nil, &DeviceResourceError{Op: "compile " + src.Name, Err: ErrDeviceClosed}
	}
	if src.Func == nil {
		return nil, &DeviceResourceError{Op: "compile " + src.Name, Err: fmt.Errorf("no CPU implementation")}
	}
	return &cpuKernel{device: d, name: src.Name, fn: src.Func}, nil
}

type cpuSurface struct {
	mu       sync.Mutex
	desc     SurfaceDescriptor
	pix      []byte
	released bool
}

// NewSurface allocates a tightly packed surface.
func (d *CPUDevice) NewSurface(desc SurfaceDescriptor) (Surface, error) {
	if d.isClosed() {
		return nil, &DeviceResourceError{Op: "allocate " + desc.Label, Err: ErrDeviceClosed}
	}
	if err := desc.validate(); err != nil {
		return nil, &DeviceResourceError{Op: "allocate " + desc.Label, Err: err}
	}
	return &cpuSurface{
		desc: desc,
		pix:  make([]byte, desc.RowBytes()*desc.Height),
	}, nil
}

func (s *cpuSurface) Descriptor() SurfaceDescriptor { return s.desc }

func (s *cpuSurface) Upload(src []byte, stride int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	rowBytes := s.desc.RowBytes()
	if stride <= 0 {
		stride = rowBytes
	}
	return mio.CopyRows(s.pix, rowBytes, src, stride, rowBytes, s.desc.Height)
}

func (s *cpuSurface) Download(dst []byte, stride int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	rowBytes := s.desc.RowBytes()
	if stride <= 0 {
		stride = rowBytes
	}
	return mio.CopyRows(dst, stride, s.pix, rowBytes, rowBytes, s.desc.Height)
}

func (s *cpuSurface) Fill(v byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	for i := range s.pix {
		s.pix[i] = v
	}
	return nil
}

func (s *cpuSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.pix = nil
}

func (s *cpuSurface) texture() *Texture {
	return &Texture{
		Width:         s.desc.Width,
		Height:        s.desc.Height,
		BytesPerPixel: s.desc.Format.BytesPerPixel(),
		Stride:        s.desc.RowBytes(),
		Pix:           s.pix,
	}
}

type cpuJob struct {
	ctx      context.Context
	kernel   *cpuKernel
	grid     Size
	group    Size
	surfaces []*cpuSurface
	params   []int32
	future   *Future
}

// Dispatch enqueues a kernel run. Validation failures resolve the returned
// future immediately. While the queue is full Dispatch blocks until ctx is
// done, which resolves the future as cancelled.
func (d *CPUDevice) Dispatch(ctx context.Context, k Kernel, grid, group Size, b Bindings) *Future {
	name := ""
	if k != nil {
		name = k.Name()
	}
	kernel, ok := k.(*cpuKernel)
	if !ok || kernel.device != d {
		return failedFuture(name, StatusError, ErrUnknownKernel)
	}
	grid, group = grid.norm(), group.norm()
	if grid.Z != 1 || group.Z != 1 || grid.Count() <= 0 || group.Count() <= 0 {
		return failedFuture(name, StatusError, fmt.Errorf("unsupported grid %v or group %v", grid, group))
	}
	if group.Count() > d.limits.MaxThreadsPerGroup {
		return failedFuture(name, StatusError, fmt.Errorf("group %v exceeds %d threads", group, d.limits.MaxThreadsPerGroup))
	}

	job := &cpuJob{
		ctx:    ctx,
		kernel: kernel,
		grid:   grid,
		group:  group,
		params: append([]int32(nil), b.Params...),
		future: NewFuture(),
	}
	for i, s := range b.Surfaces {
		cs, ok := s.(*cpuSurface)
		if !ok {
			return failedFuture(name, StatusError, fmt.Errorf("binding %d is not a CPU surface", i))
		}
		job.surfaces = append(job.surfaces, cs)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return failedFuture(name, StatusError, ErrDeviceClosed)
	}
	select {
	case d.queue <- job:
		return job.future
	case <-ctx.Done():
		d.cancels.Add(1)
		return failedFuture(name, StatusCancelled, ctx.Err())
	}
}

func (d *CPUDevice) dispatcher() {
	defer d.wg.Done()
	for job := range d.queue {
		d.run(job)
	}
}

func (d *CPUDevice) run(job *cpuJob) {
	d.dispatches.Add(1)
	status, err := d.execute(job)
	switch status {
	case StatusCompleted:
		job.future.Resolve(StatusCompleted, nil)
		return
	case StatusCancelled:
		d.cancels.Add(1)
	default:
		d.failures.Add(1)
		d.log.Errorf("dispatch of %s failed: %v", job.kernel.name, err)
	}
	job.future.Resolve(status, &DispatchError{Kernel: job.kernel.name, Status: status, Err: err})
}

func (d *CPUDevice) execute(job *cpuJob) (Status, error) {
	if err := job.ctx.Err(); err != nil {
		return StatusCancelled, err
	}

	// Surfaces stay locked for the whole dispatch so uploads and downloads
	// never observe a half written surface.
	seen := make(map[*cpuSurface]bool, len(job.surfaces))
	args := &Args{Params: job.params}
	for _, s := range job.surfaces {
		if !seen[s] {
			seen[s] = true
			s.mu.Lock()
			defer s.mu.Unlock()
		}
		if s.released {
			return StatusError, ErrReleased
		}
		args.Surfaces = append(args.Surfaces, s.texture())
	}

	total := job.grid.X * job.grid.Y
	var (
		next     atomic.Int64
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		failed.Store(true)
	}

	workers := d.workers
	if workers > total {
		workers = total
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("work-item panic: %v", r))
				}
			}()
			for !failed.Load() {
				i := int(next.Add(1) - 1)
				if i >= total {
					return
				}
				if job.ctx.Err() != nil {
					return
				}
				d.runGroup(job, args, i)
				d.groups.Add(1)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return StatusError, firstErr
	}
	if err := job.ctx.Err(); err != nil {
		return StatusCancelled, err
	}
	return StatusCompleted, nil
}

func (d *CPUDevice) runGroup(job *cpuJob, args *Args, i int) {
	gx := i % job.grid.X
	gy := i / job.grid.X
	x0 := gx * job.group.X
	y0 := gy * job.group.Y
	for ly := 0; ly < job.group.Y; ly++ {
		for lx := 0; lx < job.group.X; lx++ {
			job.kernel.fn(x0+lx, y0+ly, args)
		}
	}
}

func (d *CPUDevice) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Close lets queued dispatches finish and stops the dispatcher.
func (d *CPUDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}
