package frame

import (
	"fmt"
)

// decodePacked tags frame with its channel order. Pixels are not swizzled;
// the converter applies the permutation while it reads.
func decodePacked(order ChannelOrder) DecoderFunc {
	return func(frame []byte, width, height, stride int) (*Surface, error) {
		if stride <= 0 {
			stride = width * BytesPerPixel
		}
		s := &Surface{
			Width:  width,
			Height: height,
			Stride: stride,
			Order:  order,
			Pix:    frame,
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("frame: decode %s: %w", order, err)
		}
		return s, nil
	}
}
