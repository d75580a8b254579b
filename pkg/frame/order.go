package frame

import (
	"errors"
	"fmt"
)

// ErrInvalidPermutation is returned when a permute map does not name every
// byte of a pixel exactly once.
var ErrInvalidPermutation = errors.New("frame: invalid channel permutation")

// ChannelOrder gives the byte index of each channel within a 4-byte pixel.
// A is the alpha or ignored byte.
type ChannelOrder struct {
	R, G, B, A int
}

var (
	OrderRGBA = ChannelOrder{R: 0, G: 1, B: 2, A: 3}
	OrderBGRA = ChannelOrder{R: 2, G: 1, B: 0, A: 3}
	OrderARGB = ChannelOrder{R: 1, G: 2, B: 3, A: 0}
	OrderABGR = ChannelOrder{R: 3, G: 2, B: 1, A: 0}

	// Orders with an ignored fourth byte share the layout of their alpha twin.
	OrderRGBX = OrderRGBA
	OrderXRGB = OrderARGB
)

// Permutation is a permute map into canonical A, R, G, B order: canonical
// byte i is taken from source byte p[i]. An RGBX source therefore uses
// {3, 0, 1, 2}.
type Permutation [4]uint8

// IdentityPermutation leaves ARGB pixels untouched.
var IdentityPermutation = Permutation{0, 1, 2, 3}

// Validate checks that every source byte is used exactly once.
func (p Permutation) Validate() error {
	var seen [4]bool
	for _, v := range p {
		if v > 3 || seen[v] {
			return fmt.Errorf("%w: %v", ErrInvalidPermutation, [4]uint8(p))
		}
		seen[v] = true
	}
	return nil
}

// Order returns the source channel order described by p.
func (p Permutation) Order() ChannelOrder {
	return ChannelOrder{A: int(p[0]), R: int(p[1]), G: int(p[2]), B: int(p[3])}
}

// Validate checks that o names four distinct byte indices.
func (o ChannelOrder) Validate() error {
	return o.permutation().Validate()
}

// Permutation returns the permute map that brings pixels in order o into
// canonical A, R, G, B order.
func (o ChannelOrder) Permutation() (Permutation, error) {
	p := o.permutation()
	if err := p.Validate(); err != nil {
		return Permutation{}, err
	}
	return p, nil
}

func (o ChannelOrder) permutation() Permutation {
	idx := func(v int) uint8 {
		if v < 0 || v > 3 {
			return 0xFF
		}
		return uint8(v)
	}
	return Permutation{idx(o.A), idx(o.R), idx(o.G), idx(o.B)}
}

func (o ChannelOrder) String() string {
	var name [4]byte
	for i := range name {
		name[i] = '?'
	}
	set := func(i int, c byte) {
		if i >= 0 && i < 4 {
			name[i] = c
		}
	}
	set(o.R, 'R')
	set(o.G, 'G')
	set(o.B, 'B')
	set(o.A, 'A')
	return string(name[:])
}
