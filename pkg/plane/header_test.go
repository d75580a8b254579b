package plane

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	b, err := New(5, 3, Options{Alignment: 8})
	if err != nil {
		t.Fatal(err)
	}

	raw := b.MarshalHeader()
	if len(raw) != HeaderSize {
		t.Fatalf("Expected %d bytes, got %d", HeaderSize, len(raw))
	}
	if !bytes.Equal(raw[0:4], []byte("BP42")) || !bytes.Equal(raw[8:12], []byte("420f")) {
		t.Errorf("Unexpected magic or fourcc: %q %q", raw[0:4], raw[8:12])
	}
	// Chroma offset is 24 and stored little-endian.
	if !bytes.Equal(raw[36:40], []byte{24, 0, 0, 0}) {
		t.Errorf("Expected little-endian chroma offset, got %v", raw[36:40])
	}

	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Header(), h) {
		t.Errorf("Expected %+v, got %+v", b.Header(), h)
	}
	luma, chroma := h.Layouts()
	if luma != b.Luma() || chroma != b.Chroma() {
		t.Errorf("Layouts differ: %+v %+v", luma, chroma)
	}
}

func TestHeaderStudioRange(t *testing.T) {
	b, err := New(2, 2, Options{StudioRange: true})
	if err != nil {
		t.Fatal(err)
	}
	h, err := ParseHeader(b.MarshalHeader())
	if err != nil {
		t.Fatal(err)
	}
	if h.FullRange || h.FourCC != FourCCVideo {
		t.Errorf("Expected studio range header, got %+v", h)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	b, err := New(2, 2, Options{})
	if err != nil {
		t.Fatal(err)
	}
	good := b.MarshalHeader()

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'
	badVersion := append([]byte(nil), good...)
	badVersion[4] = 2

	cases := map[string]struct {
		data     []byte
		expected error
	}{
		"Short":   {good[:HeaderSize-1], ErrShortHeader},
		"Magic":   {badMagic, ErrBadMagic},
		"Version": {badVersion, ErrUnsupportedVersion},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			if _, err := ParseHeader(c.data); !errors.Is(err, c.expected) {
				t.Errorf("Expected %v, got %v", c.expected, err)
			}
		})
	}
}

func TestWriteReadFrom(t *testing.T) {
	b, err := New(3, 3, Options{Alignment: 4})
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.Lock(LockReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 3; y++ {
		copy(v.Row(Luma, y), []byte{byte(y), byte(y + 1), byte(y + 2)})
	}
	copy(v.Row(Chroma, 1), []byte{1, 2, 3, 4})
	v.Release()

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != out.Len() {
		t.Errorf("Expected %d bytes reported, got %d", out.Len(), n)
	}

	got, err := ReadFrom(&out)
	if err != nil {
		t.Fatal(err)
	}
	if got.Luma() != b.Luma() || got.Chroma() != b.Chroma() || !got.FullRange() {
		t.Fatalf("Unexpected geometry %+v %+v", got.Luma(), got.Chroma())
	}

	gv, err := got.Lock(LockReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer gv.Release()
	if !bytes.Equal(gv.Row(Luma, 2), []byte{2, 3, 4}) {
		t.Errorf("Unexpected luma row %v", gv.Row(Luma, 2))
	}
	if !bytes.Equal(gv.Row(Chroma, 1), []byte{1, 2, 3, 4}) {
		t.Errorf("Unexpected chroma row %v", gv.Row(Chroma, 1))
	}

	if _, err := ReadFrom(bytes.NewReader([]byte("BP"))); !errors.Is(err, ErrShortHeader) {
		t.Errorf("Expected ErrShortHeader, got %v", err)
	}
}

func TestReadFromInvalidGeometry(t *testing.T) {
	b, err := New(4, 4, Options{})
	if err != nil {
		t.Fatal(err)
	}
	good := b.Header()

	withPlanes := func(luma, chroma PlaneHeader) Header {
		h := good
		h.Width, h.Height = luma.Width, luma.Height
		h.Planes = [2]PlaneHeader{luma, chroma}
		return h
	}

	cases := map[string]struct {
		header   Header
		expected error
	}{
		"HugeStrideAndHeight": {
			header: withPlanes(
				PlaneHeader{Stride: 0x80000000, Width: 2, Height: 0xFFFFFFFF},
				PlaneHeader{Offset: 0, Stride: 4, Width: 1, Height: 1},
			),
			expected: ErrTooLarge,
		},
		"PlaneEndsPastMaximum": {
			header: withPlanes(
				PlaneHeader{Stride: 1 << 16, Width: 2, Height: 1 << 15},
				PlaneHeader{Offset: 0, Stride: 4, Width: 1, Height: 1},
			),
			expected: ErrTooLarge,
		},
		"HugeWidth": {
			header: withPlanes(
				PlaneHeader{Stride: 16, Width: 0xFFFFFFFF, Height: 1},
				PlaneHeader{Offset: 0, Stride: 4, Width: 1, Height: 1},
			),
			expected: ErrTooLarge,
		},
		"HugeOffset": {
			header: withPlanes(
				PlaneHeader{Stride: 16, Width: 4, Height: 4},
				PlaneHeader{Offset: 0xFFFFFFF0, Stride: 16, Width: 2, Height: 2},
			),
			expected: ErrTooLarge,
		},
	}
	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			_, err := ReadFrom(bytes.NewReader(c.header.Marshal()))
			if !errors.Is(err, c.expected) {
				t.Errorf("Expected %v, got %v", c.expected, err)
			}
		})
	}

	// Geometry errors are reported before any plane data is read.
	mismatch := withPlanes(
		PlaneHeader{Stride: 16, Width: 4, Height: 4},
		PlaneHeader{Offset: 64, Stride: 16, Width: 1, Height: 1},
	)
	_, err = ReadFrom(bytes.NewReader(mismatch.Marshal()))
	if err == nil || errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected a chroma geometry error, got %v", err)
	}
	overlap := withPlanes(
		PlaneHeader{Stride: 16, Width: 4, Height: 4},
		PlaneHeader{Offset: 16, Stride: 16, Width: 2, Height: 2},
	)
	if _, err := ReadFrom(bytes.NewReader(overlap.Marshal())); err == nil {
		t.Error("Expected an overlap error")
	}
}
