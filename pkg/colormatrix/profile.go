// Package colormatrix derives RGB <-> YCbCr transforms from a named matrix
// standard and an 8-bit value range.
package colormatrix

import "fmt"

// Profile holds the forward and inverse transforms of one standard and range.
// A Profile is immutable and safe for concurrent use.
type Profile struct {
	standard Standard
	rng      Range
	forward  Coefficients
	inverse  Coefficients
}

// Build derives a Profile. Forward and inverse transforms come from the same
// scaled matrix so a round trip only loses quantization.
func Build(standard Standard, rng Range) (*Profile, error) {
	w, ok := standardWeights[standard]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStandard, int(standard))
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	kr, kb := w.kr, w.kb
	kg := 1 - kr - kb
	ls := float64(rng.LumaMax-rng.LumaMin) / 255
	cs := float64(rng.ChromaMax-rng.ChromaMin) / 255
	cbDiv := 2 * (1 - kb)
	crDiv := 2 * (1 - kr)

	fwd := mat3{
		{kr * ls, kg * ls, kb * ls},
		{-kr / cbDiv * cs, -kg / cbDiv * cs, (1 - kb) / cbDiv * cs},
		{(1 - kr) / crDiv * cs, -kg / crDiv * cs, -kb / crDiv * cs},
	}
	inv, err := fwd.inverse()
	if err != nil {
		return nil, fmt.Errorf("colormatrix: %s: %w", standard, err)
	}

	p := &Profile{standard: standard, rng: rng}
	for i := range fwd {
		for j := range fwd[i] {
			p.forward.M[i][j] = quantize(fwd[i][j])
			p.inverse.M[i][j] = quantize(inv[i][j])
		}
	}

	// Green absorbs rounding residue so greys land exactly on the bias.
	p.forward.M[0][1] = quantize(ls) - p.forward.M[0][0] - p.forward.M[0][2]
	p.forward.M[1][1] = -(p.forward.M[1][0] + p.forward.M[1][2])
	p.forward.M[2][1] = -(p.forward.M[2][0] + p.forward.M[2][2])

	bias := [3]int32{int32(rng.LumaBias), int32(rng.ChromaBias), int32(rng.ChromaBias)}
	for i := range bias {
		p.forward.Offset[i] = bias[i] << Shift
		m := p.inverse.M[i]
		p.inverse.Offset[i] = -(m[0]*bias[0] + m[1]*bias[1] + m[2]*bias[2])
	}
	return p, nil
}

// MustBuild is like Build but panics on error. Intended for package level
// profiles built from constants.
func MustBuild(standard Standard, rng Range) *Profile {
	p, err := Build(standard, rng)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Profile) Standard() Standard { return p.standard }
func (p *Profile) Range() Range       { return p.rng }

// Forward returns a copy of the RGB to YCbCr transform.
func (p *Profile) Forward() Coefficients { return p.forward }

// Inverse returns a copy of the YCbCr to RGB transform.
func (p *Profile) Inverse() Coefficients { return p.inverse }

// RGBToYCbCr converts one pixel, clamping to the profile range.
func (p *Profile) RGBToYCbCr(r, g, b uint8) (y, cb, cr uint8) {
	yy, u, v := p.forward.Apply(int32(r), int32(g), int32(b))
	return p.ClampLuma(yy), p.ClampChroma(u), p.ClampChroma(v)
}

// YCbCrToRGB converts one pixel, clamping to [0,255].
func (p *Profile) YCbCrToRGB(y, cb, cr uint8) (r, g, b uint8) {
	rr, gg, bb := p.inverse.Apply(int32(y), int32(cb), int32(cr))
	return Clamp8(rr), Clamp8(gg), Clamp8(bb)
}

// ClampLuma clamps v to [LumaMin, LumaMax].
func (p *Profile) ClampLuma(v int32) uint8 {
	return clamp(v, int32(p.rng.LumaMin), int32(p.rng.LumaMax))
}

// ClampChroma clamps v to [ChromaMin, ChromaMax].
func (p *Profile) ClampChroma(v int32) uint8 {
	return clamp(v, int32(p.rng.ChromaMin), int32(p.rng.ChromaMax))
}

// Clamp8 clamps v to [0,255].
func Clamp8(v int32) uint8 {
	return clamp(v, 0, 255)
}

func clamp(v, lo, hi int32) uint8 {
	if v < lo {
		return uint8(lo)
	}
	if v > hi {
		return uint8(hi)
	}
	return uint8(v)
}

func (p *Profile) String() string {
	kind := "custom"
	switch p.rng {
	case FullRange:
		kind = "full"
	case StudioRange:
		kind = "studio"
	}
	return fmt.Sprintf("%s/%s", p.standard, kind)
}
