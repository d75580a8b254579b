package plane

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the encoded size of a Header.
const HeaderSize = 52

// HeaderVersion is the only version ParseHeader accepts.
const HeaderVersion = 1

const flagFullRange = 1 << 0

var (
	headerMagic = [4]byte{'B', 'P', '4', '2'}

	// FourCCFull and FourCCVideo name biplanar 4:2:0 8-bit samples in full
	// and studio range.
	FourCCFull  = [4]byte{'4', '2', '0', 'f'}
	FourCCVideo = [4]byte{'4', '2', '0', 'v'}
)

var (
	ErrBadMagic           = errors.New("plane: bad header magic")
	ErrUnsupportedVersion = errors.New("plane: unsupported header version")
	ErrShortHeader        = errors.New("plane: short header")
)

// Header is the persisted description of a Buffer. Every multi-byte field
// is little-endian:
//
//	0  magic "BP42"
//	4  version u16
//	6  flags u16, bit 0 set for full range
//	8  fourcc
//	12 width u32
//	16 height u32
//	20 luma offset, stride, width, height u32
//	36 chroma offset, stride, width, height u32
type Header struct {
	Version   uint16
	FullRange bool
	FourCC    [4]byte
	Width     uint32
	Height    uint32
	Planes    [2]PlaneHeader
}

// PlaneHeader is the geometry of one plane in a Header.
type PlaneHeader struct {
	Offset, Stride uint32
	Width, Height  uint32
}

// Header describes b.
func (b *Buffer) Header() Header {
	h := Header{
		Version:   HeaderVersion,
		FullRange: b.FullRange(),
		FourCC:    FourCCFull,
		Width:     uint32(b.Width()),
		Height:    uint32(b.Height()),
	}
	if !h.FullRange {
		h.FourCC = FourCCVideo
	}
	for i, l := range b.layouts {
		h.Planes[i] = PlaneHeader{
			Offset: uint32(l.Offset),
			Stride: uint32(l.Stride),
			Width:  uint32(l.Width),
			Height: uint32(l.Height),
		}
	}
	return h
}

// MarshalHeader encodes the header of b.
func (b *Buffer) MarshalHeader() []byte {
	return b.Header().Marshal()
}

// Marshal encodes h into HeaderSize bytes.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], headerMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	var flags uint16
	if h.FullRange {
		flags |= flagFullRange
	}
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	copy(buf[8:12], h.FourCC[:])
	binary.LittleEndian.PutUint32(buf[12:16], h.Width)
	binary.LittleEndian.PutUint32(buf[16:20], h.Height)
	for i, p := range h.Planes {
		o := 20 + i*16
		binary.LittleEndian.PutUint32(buf[o:], p.Offset)
		binary.LittleEndian.PutUint32(buf[o+4:], p.Stride)
		binary.LittleEndian.PutUint32(buf[o+8:], p.Width)
		binary.LittleEndian.PutUint32(buf[o+12:], p.Height)
	}
	return buf
}

// ParseHeader decodes the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	if [4]byte(data[0:4]) != headerMagic {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, data[0:4])
	}

	h := Header{Version: binary.LittleEndian.Uint16(data[4:6])}
	if h.Version != HeaderVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	h.FullRange = binary.LittleEndian.Uint16(data[6:8])&flagFullRange != 0
	h.FourCC = [4]byte(data[8:12])
	h.Width = binary.LittleEndian.Uint32(data[12:16])
	h.Height = binary.LittleEndian.Uint32(data[16:20])
	for i := range h.Planes {
		o := 20 + i*16
		h.Planes[i] = PlaneHeader{
			Offset: binary.LittleEndian.Uint32(data[o:]),
			Stride: binary.LittleEndian.Uint32(data[o+4:]),
			Width:  binary.LittleEndian.Uint32(data[o+8:]),
			Height: binary.LittleEndian.Uint32(data[o+12:]),
		}
	}
	return h, nil
}

// Layouts converts the plane geometry of h.
func (h Header) Layouts() (luma, chroma Layout) {
	conv := func(p PlaneHeader, bpp int) Layout {
		return Layout{
			Width:         int(p.Width),
			Height:        int(p.Height),
			BytesPerPixel: bpp,
			Stride:        int(p.Stride),
			Offset:        int(p.Offset),
		}
	}
	return conv(h.Planes[Luma], LumaBytesPerPixel), conv(h.Planes[Chroma], ChromaBytesPerPixel)
}

// dataSize is the number of backing bytes persisted after the header.
func (b *Buffer) dataSize() int {
	size := b.layouts[Luma].End()
	if end := b.layouts[Chroma].End(); end > size {
		size = end
	}
	return size
}

// WriteTo writes the header followed by the plane memory.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	v, err := b.Lock(LockReadOnly)
	if err != nil {
		return 0, err
	}
	defer v.Release()

	n, err := w.Write(b.MarshalHeader())
	total := int64(n)
	if err != nil {
		return total, err
	}
	n, err = w.Write(v.Bytes()[:b.dataSize()])
	total += int64(n)
	return total, err
}

// ReadFrom reads a Buffer written by WriteTo.
func ReadFrom(r io.Reader) (*Buffer, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrShortHeader, err)
		}
		return nil, err
	}
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if h.Planes[Luma].Width != h.Width || h.Planes[Luma].Height != h.Height {
		return nil, fmt.Errorf("plane: luma plane is %dx%d in a %dx%d header",
			h.Planes[Luma].Width, h.Planes[Luma].Height, h.Width, h.Height)
	}

	luma, chroma := h.Layouts()
	size, err := checkLayouts(luma, chroma)
	if err != nil {
		return nil, err
	}
	backing := make([]byte, size)
	if _, err := io.ReadFull(r, backing); err != nil {
		return nil, fmt.Errorf("plane: reading plane data: %w", err)
	}

	b, err := NewWithLayouts(luma, chroma, backing)
	if err != nil {
		return nil, err
	}
	b.SetFullRange(h.FullRange)
	return b, nil
}
