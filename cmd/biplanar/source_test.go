package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pion/biplanar/pkg/frame"
	"github.com/pion/biplanar/pkg/plane"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRaw(t *testing.T) {
	cases := map[string]struct {
		format        string
		width, height int
		stride        int
		data          []byte
		order         frame.ChannelOrder
		r, g, b       uint8
	}{
		"RGBA": {
			format: "rgba", width: 2, height: 1,
			data:  []byte{10, 20, 30, 255, 1, 2, 3, 255},
			order: frame.OrderRGBA, r: 10, g: 20, b: 30,
		},
		"BGRX": {
			format: "BGRX", width: 2, height: 1,
			data:  []byte{30, 20, 10, 0, 3, 2, 1, 0},
			order: frame.OrderBGRA, r: 10, g: 20, b: 30,
		},
		"PaddedRows": {
			format: "ARGB", width: 1, height: 2, stride: 8,
			data:  []byte{255, 10, 20, 30, 9, 9, 9, 9, 255, 1, 2, 3},
			order: frame.OrderARGB, r: 10, g: 20, b: 30,
		},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			s, err := decodeRaw(c.data, c.format, c.width, c.height, c.stride)
			require.NoError(t, err)
			assert.Equal(t, c.order, s.Order)
			r, g, b := s.RGBAt(0, 0)
			assert.Equal(t, [3]uint8{c.r, c.g, c.b}, [3]uint8{r, g, b})
		})
	}
}

func TestDecodeRawErrors(t *testing.T) {
	_, err := decodeRaw(make([]byte, 7), "RGBA", 2, 1, 0)
	assert.Error(t, err)

	_, err = decodeRaw(make([]byte, 8), "NV12", 2, 1, 0)
	assert.Error(t, err)

	_, err = decodeRaw(make([]byte, 8), "YUYV", 2, 1, 0)
	assert.Error(t, err)

	_, err = decodeRaw(make([]byte, 8), "RGBA", 0, 1, 0)
	assert.True(t, errors.Is(err, frame.ErrInvalidDimensions))
}

func TestWrapNV12(t *testing.T) {
	// 3x3 luma, 2x2 chroma pairs.
	data := []byte{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		100, 200, 101, 201,
		102, 202, 103, 203,
	}
	buf, err := wrapNV12(data, 3, 3)
	require.NoError(t, err)
	defer buf.Close()

	v, err := buf.Lock(plane.LockReadOnly)
	require.NoError(t, err)
	defer v.Release()
	assert.Equal(t, []byte{7, 8, 9}, v.Row(plane.Luma, 2))
	assert.Equal(t, []byte{102, 202, 103, 203}, v.Row(plane.Chroma, 1))

	_, err = wrapNV12(data[:16], 3, 3)
	assert.Error(t, err)
}

func TestConvertRawCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "frame.bgra")
	out := filepath.Join(dir, "frame.bp42")

	// A 2x2 red frame in BGRA order.
	raw := bytes.Repeat([]byte{0, 0, 255, 255}, 4)
	require.NoError(t, os.WriteFile(in, raw, 0o600))

	rootCmd.SetArgs([]string{"convert", "-i", in, "-o", out, "--format", "BGRA", "--width", "2", "--height", "2"})
	require.NoError(t, rootCmd.Execute())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	buf, err := plane.ReadFrom(f)
	require.NoError(t, err)
	defer buf.Close()

	v, err := buf.Lock(plane.LockReadOnly)
	require.NoError(t, err)
	defer v.Release()
	assert.Equal(t, []byte{54, 54}, v.Row(plane.Luma, 1))
	assert.Equal(t, []byte{99, 255}, v.Row(plane.Chroma, 0))
}
