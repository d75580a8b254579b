package compute

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceClosed  = errors.New("compute: device closed")
	ErrUnknownKernel = errors.New("compute: kernel does not belong to this device")
	ErrNoGPU         = errors.New("compute: built without GPU support")
	ErrReleased      = errors.New("compute: surface released")
)

// DeviceResourceError reports a failed allocation or kernel compilation.
type DeviceResourceError struct {
	Op  string
	Err error
}

func (e *DeviceResourceError) Error() string {
	return fmt.Sprintf("compute: %s: %v", e.Op, e.Err)
}

func (e *DeviceResourceError) Unwrap() error {
	return e.Err
}

// DispatchError reports a dispatch that did not complete successfully.
type DispatchError struct {
	Kernel string
	Status Status
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("compute: dispatch of %s finished with status %v: %v", e.Kernel, e.Status, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
