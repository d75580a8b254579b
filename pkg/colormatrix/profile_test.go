package colormatrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBT709FullCoefficients(t *testing.T) {
	p, err := Build(BT709, FullRange)
	require.NoError(t, err)

	fwd := p.Forward()
	assert.Equal(t, [3][3]int32{
		{13933, 46871, 4732},
		{-7509, -25259, 32768},
		{32768, -29763, -3005},
	}, fwd.M)
	assert.Equal(t, [3]int32{0, 128 << Shift, 128 << Shift}, fwd.Offset)

	inv := p.Inverse()
	assert.Equal(t, [3][3]int32{
		{65536, 0, 103206},
		{65536, -12276, -30679},
		{65536, 121609, 0},
	}, inv.M)
	assert.Equal(t, [3]int32{-13210368, 5498240, -15565952}, inv.Offset)
}

func TestKnownVectors(t *testing.T) {
	type rgb struct{ r, g, b uint8 }
	type ycc struct{ y, cb, cr uint8 }

	cases := map[string]struct {
		standard Standard
		rng      Range
		in       rgb
		expected ycc
	}{
		"BT709FullWhite":   {BT709, FullRange, rgb{255, 255, 255}, ycc{255, 128, 128}},
		"BT709FullBlack":   {BT709, FullRange, rgb{0, 0, 0}, ycc{0, 128, 128}},
		"BT709FullRed":     {BT709, FullRange, rgb{255, 0, 0}, ycc{54, 99, 255}},
		"BT709FullGreen":   {BT709, FullRange, rgb{0, 255, 0}, ycc{182, 30, 12}},
		"BT709FullBlue":    {BT709, FullRange, rgb{0, 0, 255}, ycc{18, 255, 116}},
		"BT709FullGrey":    {BT709, FullRange, rgb{128, 128, 128}, ycc{128, 128, 128}},
		"BT601FullRed":     {BT601, FullRange, rgb{255, 0, 0}, ycc{76, 85, 255}},
		"BT2020FullRed":    {BT2020, FullRange, rgb{255, 0, 0}, ycc{67, 92, 255}},
		"BT709StudioWhite": {BT709, StudioRange, rgb{255, 255, 255}, ycc{235, 128, 128}},
		"BT709StudioBlack": {BT709, StudioRange, rgb{0, 0, 0}, ycc{16, 128, 128}},
		"BT709StudioGrey":  {BT709, StudioRange, rgb{128, 128, 128}, ycc{126, 128, 128}},
		"BT709StudioRed":   {BT709, StudioRange, rgb{255, 0, 0}, ycc{63, 102, 240}},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			p := MustBuild(c.standard, c.rng)
			y, cb, cr := p.RGBToYCbCr(c.in.r, c.in.g, c.in.b)
			if got := (ycc{y, cb, cr}); got != c.expected {
				t.Errorf("expected %+v, got %+v", c.expected, got)
			}
		})
	}
}

func TestGreysAreExact(t *testing.T) {
	for _, s := range []Standard{BT601, BT709, BT2020} {
		p := MustBuild(s, FullRange)
		for v := 0; v < 256; v++ {
			g := uint8(v)
			y, cb, cr := p.RGBToYCbCr(g, g, g)
			if y != g || cb != 128 || cr != 128 {
				t.Fatalf("%s: grey %d -> (%d,%d,%d)", s, v, y, cb, cr)
			}
			r, gg, b := p.YCbCrToRGB(y, cb, cr)
			if r != g || gg != g || b != g {
				t.Fatalf("%s: grey %d reconstructed as (%d,%d,%d)", s, v, r, gg, b)
			}
		}
	}
}

func TestRoundTripBound(t *testing.T) {
	cases := map[string]struct {
		rng       Range
		tolerance int
	}{
		"Full":   {FullRange, 1},
		"Studio": {StudioRange, 2},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			for _, s := range []Standard{BT601, BT709, BT2020} {
				p := MustBuild(s, c.rng)
				for r := 0; r < 256; r += 5 {
					for g := 0; g < 256; g += 3 {
						for b := 0; b < 256; b += 17 {
							y, cb, cr := p.RGBToYCbCr(uint8(r), uint8(g), uint8(b))
							rr, gg, bb := p.YCbCrToRGB(y, cb, cr)
							if absDiff(rr, r) > c.tolerance || absDiff(gg, g) > c.tolerance || absDiff(bb, b) > c.tolerance {
								t.Fatalf("%s: (%d,%d,%d) -> (%d,%d,%d) -> (%d,%d,%d)", s, r, g, b, y, cb, cr, rr, gg, bb)
							}
						}
					}
				}
			}
		})
	}
}

func TestInverseClamps(t *testing.T) {
	p := MustBuild(BT709, FullRange)

	// Saturated chroma on a bright luma overshoots in the matrix path.
	r, g, b := p.YCbCrToRGB(255, 255, 255)
	assert.Equal(t, [3]uint8{255, 172, 255}, [3]uint8{r, g, b})

	r, g, b = p.YCbCrToRGB(0, 0, 0)
	assert.Equal(t, [3]uint8{0, 84, 0}, [3]uint8{r, g, b})
}

func TestBuildInvalidRange(t *testing.T) {
	cases := map[string]Range{
		"LumaInverted":   {LumaMin: 200, LumaMax: 100, ChromaMin: 0, ChromaMax: 255, ChromaBias: 128},
		"LumaEqual":      {LumaMin: 10, LumaMax: 10, ChromaMin: 0, ChromaMax: 255, ChromaBias: 128},
		"ChromaInverted": {LumaMin: 0, LumaMax: 255, ChromaMin: 240, ChromaMax: 16, ChromaBias: 128},
		"BiasTooLarge":   {LumaMin: 0, LumaMax: 255, ChromaMin: 0, ChromaMax: 255, ChromaBias: 256},
		"NegativeBias":   {LumaMin: 0, LumaMax: 255, ChromaMin: 0, ChromaMax: 255, LumaBias: -1},
	}
	for name, rng := range cases {
		rng := rng
		t.Run(name, func(t *testing.T) {
			_, err := Build(BT709, rng)
			var e *InvalidRangeError
			if !errors.As(err, &e) {
				t.Fatalf("expected InvalidRangeError, got %v", err)
			}
		})
	}
}

func TestBuildUnknownStandard(t *testing.T) {
	_, err := Build(Standard(42), FullRange)
	if !errors.Is(err, ErrUnknownStandard) {
		t.Fatalf("expected ErrUnknownStandard, got %v", err)
	}
}

func TestParseStandard(t *testing.T) {
	cases := map[string]Standard{
		"BT709":        BT709,
		"bt.709":       BT709,
		"ITU-R BT.601": BT601,
		"2020":         BT2020,
		"bt_2020":      BT2020,
	}
	for in, expected := range cases {
		got, err := ParseStandard(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, got, in)
	}

	_, err := ParseStandard("BT.2100")
	assert.ErrorIs(t, err, ErrUnknownStandard)
}

func TestStandardText(t *testing.T) {
	var s Standard
	require.NoError(t, s.UnmarshalText([]byte("bt601")))
	assert.Equal(t, BT601, s)

	text, err := BT2020.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "BT2020", string(text))

	_, err = Standard(0).MarshalText()
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("studio")
	require.NoError(t, err)
	assert.Equal(t, StudioRange, r)
	assert.False(t, r.IsFull())

	r, err = ParseRange("Full")
	require.NoError(t, err)
	assert.True(t, r.IsFull())

	_, err = ParseRange("hdr")
	assert.Error(t, err)
}

func absDiff(a uint8, b int) int {
	d := int(a) - b
	if d < 0 {
		return -d
	}
	return d
}

func BenchmarkRGBToYCbCr(b *testing.B) {
	p := MustBuild(BT709, FullRange)
	for i := 0; i < b.N; i++ {
		p.RGBToYCbCr(uint8(i), uint8(i>>8), uint8(i>>16))
	}
}

func TestQuantization(t *testing.T) {
	cases := map[string]struct {
		text     string
		expected Quantization
		rng      Range
	}{
		"Full":    {"full", QuantizationFull, FullRange},
		"Studio":  {"Studio", QuantizationStudio, StudioRange},
		"Limited": {"limited", QuantizationStudio, StudioRange},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			var q Quantization
			require.NoError(t, q.UnmarshalText([]byte(c.text)))
			assert.Equal(t, c.expected, q)
			r, err := q.Range()
			require.NoError(t, err)
			assert.Equal(t, c.rng, r)
		})
	}

	q := QuantizationStudio
	err := q.UnmarshalText([]byte("hdr"))
	assert.True(t, errors.Is(err, ErrUnknownQuantization))
	assert.Equal(t, QuantizationStudio, q)

	text, err := QuantizationStudio.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "studio", string(text))

	_, err = Quantization(7).MarshalText()
	assert.Error(t, err)
}
