package colormatrix

import (
	"errors"
	"fmt"
	"strings"
)

// Standard names a set of luminance weighting coefficients.
type Standard int

const (
	// BT601 is ITU-R BT.601 (SDTV).
	BT601 Standard = iota + 1
	// BT709 is ITU-R BT.709 (HDTV).
	BT709
	// BT2020 is ITU-R BT.2020 non-constant luminance.
	BT2020
)

// ErrUnknownStandard is returned for a Standard without known weights.
var ErrUnknownStandard = errors.New("colormatrix: unknown matrix standard")

type weights struct {
	kr, kb float64
}

var standardWeights = map[Standard]weights{
	BT601:  {kr: 0.299, kb: 0.114},
	BT709:  {kr: 0.2126, kb: 0.0722},
	BT2020: {kr: 0.2627, kb: 0.0593},
}

var standardNames = map[Standard]string{
	BT601:  "BT601",
	BT709:  "BT709",
	BT2020: "BT2020",
}

func (s Standard) String() string {
	if name, ok := standardNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Standard(%d)", int(s))
}

// ParseStandard accepts "BT601", "bt.709", "709", "2020" and similar spellings.
func ParseStandard(s string) (Standard, error) {
	norm := strings.ToUpper(strings.NewReplacer(".", "", "-", "", "_", "", " ", "").Replace(s))
	norm = strings.TrimPrefix(norm, "ITUR")
	norm = strings.TrimPrefix(norm, "BT")
	switch norm {
	case "601":
		return BT601, nil
	case "709":
		return BT709, nil
	case "2020":
		return BT2020, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStandard, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Standard) MarshalText() ([]byte, error) {
	if _, ok := standardNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStandard, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Standard) UnmarshalText(text []byte) error {
	v, err := ParseStandard(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
