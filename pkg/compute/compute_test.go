package compute

import (
	"testing"
)

func TestGroupSize(t *testing.T) {
	cases := map[string]struct {
		limits   Limits
		expected Size
	}{
		"Typical":   {Limits{ThreadExecutionWidth: 32, MaxThreadsPerGroup: 1024}, Size{32, 32, 1}},
		"Uneven":    {Limits{ThreadExecutionWidth: 32, MaxThreadsPerGroup: 100}, Size{32, 3, 1}},
		"WideWidth": {Limits{ThreadExecutionWidth: 64, MaxThreadsPerGroup: 16}, Size{16, 1, 1}},
		"Zero":      {Limits{}, Size{1, 1, 1}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			g := GroupSize(c.limits)
			if g != c.expected {
				t.Errorf("Expected %v, got %v", c.expected, g)
			}
			if c.limits.MaxThreadsPerGroup > 0 && g.Count() > c.limits.MaxThreadsPerGroup {
				t.Errorf("Group %v exceeds the limit", g)
			}
		})
	}
}

func TestGridSize(t *testing.T) {
	cases := map[string]struct {
		width, height int
		group         Size
		expected      Size
	}{
		"Exact":   {64, 32, Size{32, 16, 1}, Size{2, 2, 1}},
		"Partial": {65, 33, Size{32, 16, 1}, Size{3, 3, 1}},
		"Small":   {1, 1, Size{32, 16, 1}, Size{1, 1, 1}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			if g := GridSize(c.width, c.height, c.group); g != c.expected {
				t.Errorf("Expected %v, got %v", c.expected, g)
			}
		})
	}
}

func TestFormatBytesPerPixel(t *testing.T) {
	expected := map[Format]int{FormatR8: 1, FormatRG8: 2, FormatBGRA8: 4, Format(0): 0}
	for f, bpp := range expected {
		if got := f.BytesPerPixel(); got != bpp {
			t.Errorf("%v: expected %d, got %d", f, bpp, got)
		}
	}
}
