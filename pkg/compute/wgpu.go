//go:build gpu

package compute

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/pion/biplanar/internal/logging"
	mio "github.com/pion/biplanar/pkg/io"
	pionlogging "github.com/pion/logging"
)

const (
	wgpuPreferredWidth = 32
	wgpuMapTimeout     = 2 * time.Second
)

// WGPUDevice runs kernels through WebGPU. Surfaces are storage buffers of
// tightly packed rows, padded to a multiple of four bytes.
type WGPUDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	name     string
	limits   Limits
	log      pionlogging.LeveledLogger

	// mu serializes every queue operation.
	mu     sync.Mutex
	closed bool

	// Dispatches run in submission order on one goroutine.
	sendMu   sync.RWMutex
	stopped  bool
	jobs     chan func()
	finished chan struct{}
}

// NewWGPUDevice opens the default high performance adapter.
func NewWGPUDevice() (Device, error) {
	d := &WGPUDevice{
		log:      logging.NewLogger("compute"),
		jobs:     make(chan func(), cpuQueueDepth),
		finished: make(chan struct{}),
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.instance == nil {
		return nil, &DeviceResourceError{Op: "create instance", Err: ErrNoGPU}
	}

	var err error
	d.adapter, err = d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || d.adapter == nil {
		d.instance.Release()
		return nil, &DeviceResourceError{Op: "request adapter", Err: fmt.Errorf("%w: %v", ErrNoGPU, err)}
	}

	d.device, err = d.adapter.RequestDevice(&wgpu.DeviceDescriptor{})
	if err != nil || d.device == nil {
		d.adapter.Release()
		d.instance.Release()
		return nil, &DeviceResourceError{Op: "request device", Err: fmt.Errorf("%w: %v", ErrNoGPU, err)}
	}
	d.queue = d.device.GetQueue()

	info := d.adapter.GetInfo()
	d.name = "wgpu:" + strings.TrimSpace(info.Name)

	supported := d.adapter.GetLimits()
	maxThreads := int(supported.Limits.MaxComputeInvocationsPerWorkgroup)
	width := wgpuPreferredWidth
	if maxX := int(supported.Limits.MaxComputeWorkgroupSizeX); width > maxX {
		width = maxX
	}
	if maxY := int(supported.Limits.MaxComputeWorkgroupSizeY); width > 0 && maxThreads/width > maxY {
		maxThreads = width * maxY
	}
	d.limits = Limits{ThreadExecutionWidth: width, MaxThreadsPerGroup: maxThreads}

	d.log.Infof("using %s with limits %+v", d.name, d.limits)
	go d.worker()
	return d, nil
}

func (d *WGPUDevice) worker() {
	defer close(d.finished)
	for job := range d.jobs {
		d.mu.Lock()
		job()
		d.mu.Unlock()
	}
}

func (d *WGPUDevice) Name() string   { return d.name }
func (d *WGPUDevice) Limits() Limits { return d.limits }

type wgpuKernel struct {
	device    *WGPUDevice
	name      string
	source    string
	pipelines map[Size]*wgpu.ComputePipeline
}

func (k *wgpuKernel) Name() string { return k.name }

func (k *wgpuKernel) Release() {
	k.device.mu.Lock()
	defer k.device.mu.Unlock()
	for group, p := range k.pipelines {
		p.Release()
		delete(k.pipelines, group)
	}
}

// CompileKernel builds the pipeline for the device's default group size so
// shader errors surface here rather than at dispatch.
func (d *WGPUDevice) CompileKernel(src KernelSource) (Kernel, error) {
	if src.WGSL == "" {
		return nil, &DeviceResourceError{Op: "compile " + src.Name, Err: fmt.Errorf("no WGSL source")}
	}
	k := &wgpuKernel{
		device:    d,
		name:      src.Name,
		source:    src.WGSL,
		pipelines: make(map[Size]*wgpu.ComputePipeline),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, &DeviceResourceError{Op: "compile " + src.Name, Err: ErrDeviceClosed}
	}
	if _, err := d.pipeline(k, GroupSize(d.limits)); err != nil {
		return nil, err
	}
	return k, nil
}

// pipeline returns the pipeline of k for group, creating it on first use.
// d.mu must be held.
func (d *WGPUDevice) pipeline(k *wgpuKernel, group Size) (*wgpu.ComputePipeline, error) {
	if p, ok := k.pipelines[group]; ok {
		return p, nil
	}

	code := strings.NewReplacer(
		"WG_X", strconv.Itoa(group.X),
		"WG_Y", strconv.Itoa(group.Y),
	).Replace(k.source)

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          k.name + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, &DeviceResourceError{Op: "compile " + k.name, Err: err}
	}
	defer module.Release()

	p, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   fmt.Sprintf("%s_%dx%d", k.name, group.X, group.Y),
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return nil, &DeviceResourceError{Op: "link " + k.name, Err: err}
	}
	k.pipelines[group] = p
	return p, nil
}

type wgpuSurface struct {
	device   *WGPUDevice
	desc     SurfaceDescriptor
	buffer   *wgpu.Buffer
	size     uint64
	released bool
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// NewSurface allocates a storage buffer for desc.
func (d *WGPUDevice) NewSurface(desc SurfaceDescriptor) (Surface, error) {
	if err := desc.validate(); err != nil {
		return nil, &DeviceResourceError{Op: "allocate " + desc.Label, Err: err}
	}
	size := uint64(align4(desc.RowBytes() * desc.Height))

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, &DeviceResourceError{Op: "allocate " + desc.Label, Err: ErrDeviceClosed}
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, &DeviceResourceError{Op: "allocate " + desc.Label, Err: err}
	}
	return &wgpuSurface{device: d, desc: desc, buffer: buf, size: size}, nil
}

func (s *wgpuSurface) Descriptor() SurfaceDescriptor { return s.desc }

func (s *wgpuSurface) Upload(src []byte, stride int) error {
	rowBytes := s.desc.RowBytes()
	if stride <= 0 {
		stride = rowBytes
	}
	staging := make([]byte, s.size)
	if err := mio.CopyRows(staging, rowBytes, src, stride, rowBytes, s.desc.Height); err != nil {
		return err
	}
	return s.write(staging)
}

func (s *wgpuSurface) Fill(v byte) error {
	staging := make([]byte, s.size)
	for i := range staging {
		staging[i] = v
	}
	return s.write(staging)
}

func (s *wgpuSurface) write(data []byte) error {
	d := s.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	d.queue.WriteBuffer(s.buffer, 0, data)
	return nil
}

func (s *wgpuSurface) Download(dst []byte, stride int) error {
	rowBytes := s.desc.RowBytes()
	if stride <= 0 {
		stride = rowBytes
	}
	if err := mio.CheckRows(dst, stride, rowBytes, s.desc.Height); err != nil {
		return err
	}

	d := s.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	data, err := d.readBuffer(s.buffer, s.size)
	if err != nil {
		return err
	}
	return mio.CopyRows(dst, stride, data, rowBytes, rowBytes, s.desc.Height)
}

func (s *wgpuSurface) Release() {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.buffer.Destroy()
	s.buffer.Release()
}

// readBuffer copies buf through a staging buffer. d.mu must be held.
func (d *WGPUDevice) readBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, &DeviceResourceError{Op: "allocate readback", Err: err}
	}
	defer staging.Destroy()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, &DeviceResourceError{Op: "create encoder", Err: err}
	}
	encoder.CopyBufferToBuffer(buf, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, &DeviceResourceError{Op: "finish encoder", Err: err}
	}
	d.queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("compute: map readback: %w", err)
	}

	timeout := time.After(wgpuMapTimeout)
Loop:
	for {
		d.device.Poll(false, nil)
		select {
		case <-done:
			break Loop
		case <-timeout:
			return nil, fmt.Errorf("compute: readback timed out after %v", wgpuMapTimeout)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	mapped := staging.GetMappedRange(0, uint(size))
	if mapped == nil {
		return nil, fmt.Errorf("compute: failed to get mapped range")
	}
	out := make([]byte, size)
	copy(out, mapped)
	staging.Unmap()
	return out, nil
}

// Dispatch queues the kernel behind earlier dispatches and returns at once.
func (d *WGPUDevice) Dispatch(ctx context.Context, k Kernel, grid, group Size, b Bindings) *Future {
	name := ""
	if k != nil {
		name = k.Name()
	}
	kernel, ok := k.(*wgpuKernel)
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

	surfaces := make([]*wgpuSurface, len(b.Surfaces))
	for i, s := range b.Surfaces {
		ws, ok := s.(*wgpuSurface)
		if !ok || ws.device != d {
			return failedFuture(name, StatusError, fmt.Errorf("binding %d is not a surface of this device", i))
		}
		surfaces[i] = ws
	}
	params := append([]int32(nil), b.Params...)

	f := NewFuture()
	job := func() {
		status, err := d.run(ctx, kernel, grid, group, surfaces, params)
		if status == StatusCompleted {
			f.Resolve(status, nil)
			return
		}
		if status == StatusError {
			d.log.Errorf("dispatch of %s failed: %v", name, err)
		}
		f.Resolve(status, &DispatchError{Kernel: name, Status: status, Err: err})
	}

	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	if d.stopped {
		return failedFuture(name, StatusError, ErrDeviceClosed)
	}
	d.jobs <- job
	return f
}

// run encodes and submits one dispatch and waits for the queue to drain.
// d.mu must be held.
func (d *WGPUDevice) run(ctx context.Context, k *wgpuKernel, grid, group Size, surfaces []*wgpuSurface, params []int32) (Status, error) {
	if d.closed {
		return StatusError, ErrDeviceClosed
	}
	if err := ctx.Err(); err != nil {
		return StatusCancelled, err
	}

	pipeline, err := d.pipeline(k, group)
	if err != nil {
		return StatusError, err
	}

	if len(params) == 0 {
		params = []int32{0}
	}
	paramBuf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    k.name + "_params",
		Contents: wgpu.ToBytes(params),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return StatusError, &DeviceResourceError{Op: "allocate params", Err: err}
	}
	defer paramBuf.Destroy()

	entries := make([]wgpu.BindGroupEntry, 0, len(surfaces)+1)
	for i, s := range surfaces {
		if s.released {
			return StatusError, ErrReleased
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(i), Buffer: s.buffer, Size: s.buffer.GetSize()})
	}
	entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(len(surfaces)), Buffer: paramBuf, Size: paramBuf.GetSize()})

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.name + "_bind",
		Layout:  pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return StatusError, &DeviceResourceError{Op: "bind " + k.name, Err: err}
	}
	defer bg.Release()

	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: k.name + "_enc"})
	if err != nil {
		return StatusError, err
	}
	pass := enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: k.name + "_pass"})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(uint32(grid.X), uint32(grid.Y), 1)
	pass.End()

	cmd, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		return StatusError, err
	}
	d.queue.Submit(cmd)
	cmd.Release()

	// Work already submitted cannot be recalled; wait for it either way so
	// the bound buffers outlive it.
	for !d.device.Poll(true, nil) {
		time.Sleep(100 * time.Microsecond)
	}
	return StatusCompleted, nil
}

// Close waits for queued dispatches and releases the device. Surfaces and
// kernels must be released first.
func (d *WGPUDevice) Close() error {
	d.sendMu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.sendMu.Unlock()
	<-d.finished

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
	return nil
}
