package biplanar

import (
	"github.com/pion/biplanar/pkg/convert"
	"github.com/pion/biplanar/pkg/frame"
	"github.com/pion/biplanar/pkg/plane"
)

// Encode converts src into a new biplanar buffer without touching a device.
// The caller owns the returned buffer.
func Encode(cfg Config, src *frame.Surface) (*plane.Buffer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	perm, err := src.Order.Permutation()
	if err != nil {
		return nil, err
	}

	buf, err := plane.New(src.Width, src.Height, cfg.PlaneOptions(profile))
	if err != nil {
		return nil, err
	}
	v, err := buf.Lock(plane.LockReadWrite)
	if err != nil {
		return nil, err
	}
	defer v.Release()

	f := &convert.Forward{Profile: profile, Policy: cfg.Subsample, Workers: cfg.Workers}
	if err := f.Convert(src, perm, v); err != nil {
		return nil, err
	}
	return buf, nil
}
