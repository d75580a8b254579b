// Package rtpraw carries biplanar 4:2:0 frames as uncompressed RTP video
// (RFC 4175, YCbCr-4:2:0, 8 bit).
//
// Every pixel group covers a 2x2 block and is laid out as
// Y00 Y01 Y10 Y11 Cb Cr. Line numbers and offsets in the payload headers
// address the top-left pixel of the first group in a segment.
package rtpraw

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// DefaultMTU matches the MTU used by the RTP senders of this module.
	DefaultMTU = 1200
	// ClockRate is the RTP clock rate for uncompressed video.
	ClockRate = 90000

	// PixelGroupSize is the number of bytes in one 2x2 pixel group.
	PixelGroupSize = 6

	rtpHeaderSize     = 12
	extSeqSize        = 2
	lineHeaderSize    = 6
	maxLineOrOffset   = 1<<15 - 1
	continuationBit   = 1 << 15
	lineOrOffsetMask  = continuationBit - 1
	minPayloadForData = extSeqSize + lineHeaderSize + PixelGroupSize
)

var (
	ErrOddDimensions   = errors.New("rtpraw: frame dimensions must be even")
	ErrMTUTooSmall     = errors.New("rtpraw: mtu too small for one pixel group")
	ErrShortPayload    = errors.New("rtpraw: short payload")
	ErrIncompleteFrame = errors.New("rtpraw: frame incomplete")
)

// FrameTooLargeError is returned when a dimension can not be addressed by
// the 15 bit line and offset fields.
type FrameTooLargeError struct {
	Width, Height int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("rtpraw: frame %dx%d exceeds %d pixels per side", e.Width, e.Height, maxLineOrOffset)
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return ErrOddDimensions
	}
	if width > maxLineOrOffset || height > maxLineOrOffset {
		return &FrameTooLargeError{Width: width, Height: height}
	}
	return nil
}

// segment is one line header: length bytes of pixel groups for line
// pair line starting at pixel offset.
type segment struct {
	length int
	line   int
	offset int
}

func putSegment(b []byte, s segment, more bool) {
	binary.BigEndian.PutUint16(b[0:], uint16(s.length))
	binary.BigEndian.PutUint16(b[2:], uint16(s.line))
	offset := uint16(s.offset)
	if more {
		offset |= continuationBit
	}
	binary.BigEndian.PutUint16(b[4:], offset)
}

// parseSegments reads the line headers of payload, past the extended
// sequence number, and returns them with the offset of the first data byte.
func parseSegments(payload []byte) ([]segment, int, error) {
	var segs []segment
	pos := extSeqSize
	for {
		if len(payload) < pos+lineHeaderSize {
			return nil, 0, ErrShortPayload
		}
		h := payload[pos : pos+lineHeaderSize]
		pos += lineHeaderSize

		offset := binary.BigEndian.Uint16(h[4:])
		segs = append(segs, segment{
			length: int(binary.BigEndian.Uint16(h[0:])),
			line:   int(binary.BigEndian.Uint16(h[2:]) & lineOrOffsetMask),
			offset: int(offset & lineOrOffsetMask),
		})
		if offset&continuationBit == 0 {
			break
		}
	}

	need := pos
	for _, s := range segs {
		need += s.length
	}
	if len(payload) < need {
		return nil, 0, ErrShortPayload
	}
	return segs, pos, nil
}
