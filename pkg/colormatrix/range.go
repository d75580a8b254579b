package colormatrix

import (
	"fmt"
	"strings"
)

// Range maps normalized YCbCr onto 8-bit code values. Min/Max are the clamp
// bounds and also define the scale; biases are the code values of zero luma
// and zero chroma.
type Range struct {
	LumaMin, LumaMax     int
	ChromaMin, ChromaMax int
	LumaBias, ChromaBias int
}

var (
	// FullRange uses every code value, as 420f pixel buffers do.
	FullRange = Range{LumaMin: 0, LumaMax: 255, ChromaMin: 0, ChromaMax: 255, LumaBias: 0, ChromaBias: 128}
	// StudioRange keeps the BT.601/BT.709 headroom and footroom.
	StudioRange = Range{LumaMin: 16, LumaMax: 235, ChromaMin: 16, ChromaMax: 240, LumaBias: 16, ChromaBias: 128}
)

// ParseRange accepts the names ParseQuantization does. An empty name is
// FullRange.
func ParseRange(s string) (Range, error) {
	if strings.TrimSpace(s) == "" {
		return FullRange, nil
	}
	q, err := ParseQuantization(s)
	if err != nil {
		return Range{}, err
	}
	return q.Range()
}

// IsFull reports whether r is FullRange.
func (r Range) IsFull() bool {
	return r == FullRange
}

// Validate returns an *InvalidRangeError if the bounds are unusable.
func (r Range) Validate() error {
	check := func(field string, v int) error {
		if v < 0 || v > 255 {
			return &InvalidRangeError{Range: r, Reason: fmt.Sprintf("%s %d outside 0..255", field, v)}
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"luma min", r.LumaMin}, {"luma max", r.LumaMax},
		{"chroma min", r.ChromaMin}, {"chroma max", r.ChromaMax},
		{"luma bias", r.LumaBias}, {"chroma bias", r.ChromaBias},
	} {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}
	if r.LumaMin >= r.LumaMax {
		return &InvalidRangeError{Range: r, Reason: "luma min must be below luma max"}
	}
	if r.ChromaMin >= r.ChromaMax {
		return &InvalidRangeError{Range: r, Reason: "chroma min must be below chroma max"}
	}
	return nil
}

// InvalidRangeError reports malformed range bounds at profile build time.
type InvalidRangeError struct {
	Range  Range
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("colormatrix: invalid range %+v: %s", e.Range, e.Reason)
}
