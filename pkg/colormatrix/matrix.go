package colormatrix

import (
	"errors"
	"math"
)

// Q16 fixed point: 1.0 == 1<<Shift.
const (
	Shift = 16
	One   = 1 << Shift
	half  = 1 << (Shift - 1)
)

const detTolerance = 1e-12

var errSingular = errors.New("colormatrix: singular matrix")

type mat3 [3][3]float64

func (a mat3) mulVec(v [3]float64) [3]float64 {
	var out [3]float64
	for i := range a {
		out[i] = a[i][0]*v[0] + a[i][1]*v[1] + a[i][2]*v[2]
	}
	return out
}

// inverse uses the cofactor expansion along the first row.
func (a mat3) inverse() (mat3, error) {
	c0 := a[1][1]*a[2][2] - a[1][2]*a[2][1]
	c1 := -a[1][0]*a[2][2] + a[1][2]*a[2][0]
	c2 := a[1][0]*a[2][1] - a[1][1]*a[2][0]

	det := a[0][0]*c0 + a[0][1]*c1 + a[0][2]*c2
	if math.Abs(det) < detTolerance {
		return mat3{}, errSingular
	}

	var b mat3
	b[0][0] = c0 / det
	b[0][1] = (a[0][2]*a[2][1] - a[0][1]*a[2][2]) / det
	b[0][2] = (a[0][1]*a[1][2] - a[0][2]*a[1][1]) / det
	b[1][0] = c1 / det
	b[1][1] = (a[0][0]*a[2][2] - a[0][2]*a[2][0]) / det
	b[1][2] = (a[0][2]*a[1][0] - a[0][0]*a[1][2]) / det
	b[2][0] = c2 / det
	b[2][1] = (a[0][1]*a[2][0] - a[0][0]*a[2][1]) / det
	b[2][2] = (a[0][0]*a[1][1] - a[0][1]*a[1][0]) / det
	return b, nil
}

// Coefficients is a fixed point affine transform:
//
//	out[i] = (M[i][0]*in[0] + M[i][1]*in[1] + M[i][2]*in[2] + Offset[i] + 1<<15) >> 16
//
// Offset is already expressed in Q16.
type Coefficients struct {
	M      [3][3]int32
	Offset [3]int32
}

// Apply evaluates the transform without clamping.
func (c *Coefficients) Apply(a, b, d int32) (int32, int32, int32) {
	return c.row(0, a, b, d), c.row(1, a, b, d), c.row(2, a, b, d)
}

func (c *Coefficients) row(i int, a, b, d int32) int32 {
	return (c.M[i][0]*a + c.M[i][1]*b + c.M[i][2]*d + c.Offset[i] + half) >> Shift
}

// Params flattens the transform as 9 matrix entries followed by 3 offsets.
func (c *Coefficients) Params() []int32 {
	out := make([]int32, 0, 12)
	for i := range c.M {
		out = append(out, c.M[i][:]...)
	}
	return append(out, c.Offset[:]...)
}

func quantize(v float64) int32 {
	return int32(math.Round(v * One))
}
