package colormatrix

import (
	"errors"
	"fmt"
	"strings"
)

// Quantization names one of the predefined ranges.
type Quantization int

const (
	// QuantizationFull selects FullRange. It is the zero value.
	QuantizationFull Quantization = iota
	// QuantizationStudio selects StudioRange.
	QuantizationStudio
)

// ErrUnknownQuantization is returned for names ParseQuantization rejects.
var ErrUnknownQuantization = errors.New("colormatrix: unknown range")

func (q Quantization) String() string {
	switch q {
	case QuantizationFull:
		return "full"
	case QuantizationStudio:
		return "studio"
	}
	return fmt.Sprintf("Quantization(%d)", int(q))
}

// ParseQuantization accepts "full" or "studio" ("video" and "limited" are
// aliases).
func ParseQuantization(s string) (Quantization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return QuantizationFull, nil
	case "studio", "video", "limited":
		return QuantizationStudio, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuantization, s)
}

// Range returns the code value range q names.
func (q Quantization) Range() (Range, error) {
	switch q {
	case QuantizationFull:
		return FullRange, nil
	case QuantizationStudio:
		return StudioRange, nil
	}
	return Range{}, fmt.Errorf("%w: %d", ErrUnknownQuantization, int(q))
}

// MarshalText implements encoding.TextMarshaler.
func (q Quantization) MarshalText() ([]byte, error) {
	if _, err := q.Range(); err != nil {
		return nil, err
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quantization) UnmarshalText(text []byte) error {
	v, err := ParseQuantization(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}
