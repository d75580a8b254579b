package convert

import (
	"fmt"
	"strings"
)

// SubsamplePolicy selects how one chroma sample is derived from a 2x2 block.
type SubsamplePolicy int

const (
	// SubsampleBoxAverage averages the RGB of the block's samples before
	// applying the matrix. Edge blocks of odd sized images average the
	// samples they have.
	SubsampleBoxAverage SubsamplePolicy = iota
	// SubsampleTopLeft takes the top-left sample of each block.
	SubsampleTopLeft
)

var policyNames = map[SubsamplePolicy]string{
	SubsampleBoxAverage: "box-average",
	SubsampleTopLeft:    "top-left",
}

func (p SubsamplePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("SubsamplePolicy(%d)", int(p))
}

// ParseSubsamplePolicy accepts the names printed by String, with or without
// separators.
func ParseSubsamplePolicy(s string) (SubsamplePolicy, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch norm {
	case "", "boxaverage", "box", "average":
		return SubsampleBoxAverage, nil
	case "topleft", "sample", "nearest":
		return SubsampleTopLeft, nil
	}
	return 0, fmt.Errorf("convert: unknown subsample policy %q", s)
}

func (p SubsamplePolicy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("convert: unknown subsample policy %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *SubsamplePolicy) UnmarshalText(text []byte) error {
	v, err := ParseSubsamplePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
