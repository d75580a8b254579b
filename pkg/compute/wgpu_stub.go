//go:build !gpu

package compute

// NewWGPUDevice reports ErrNoGPU unless built with the gpu tag.
func NewWGPUDevice() (Device, error) {
	return nil, ErrNoGPU
}
