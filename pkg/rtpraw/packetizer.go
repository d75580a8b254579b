package rtpraw

import (
	"encoding/binary"

	"github.com/pion/biplanar/pkg/plane"
	"github.com/pion/rtp"
)

// Packetizer splits biplanar frames into RTP packets.
type Packetizer struct {
	MTU         int
	PayloadType uint8
	SSRC        uint32
	Sequencer   rtp.Sequencer
}

// NewPacketizer returns a Packetizer with a random starting sequence number.
func NewPacketizer(mtu int, pt uint8, ssrc uint32) *Packetizer {
	return &Packetizer{
		MTU:         mtu,
		PayloadType: pt,
		SSRC:        ssrc,
		Sequencer:   rtp.NewRandomSequencer(),
	}
}

// Packetize reads the frame held by view and returns its packets. The last
// packet of the frame carries the marker bit.
func (p *Packetizer) Packetize(view *plane.View, timestamp uint32) ([]*rtp.Packet, error) {
	width, height := view.Width(), view.Height()
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	maxPayload := p.MTU - rtpHeaderSize
	if maxPayload < minPayloadForData {
		return nil, ErrMTUTooSmall
	}

	groupsPerPair := width / 2
	line, x := 0, 0
	var pkts []*rtp.Packet
	for line < height {
		space := maxPayload - extSeqSize
		var segs []segment
		for line < height && space >= lineHeaderSize+PixelGroupSize {
			n := (space - lineHeaderSize) / PixelGroupSize
			if left := groupsPerPair - x/2; n > left {
				n = left
			}
			segs = append(segs, segment{length: n * PixelGroupSize, line: line, offset: x})
			space -= lineHeaderSize + n*PixelGroupSize

			x += 2 * n
			if x == width {
				x = 0
				line += 2
			}
		}

		pkts = append(pkts, p.packet(view, segs, timestamp, line >= height))
	}
	return pkts, nil
}

func (p *Packetizer) packet(view *plane.View, segs []segment, timestamp uint32, last bool) *rtp.Packet {
	size := extSeqSize
	for _, s := range segs {
		size += lineHeaderSize + s.length
	}
	payload := make([]byte, size)

	seq := p.Sequencer.NextSequenceNumber()
	binary.BigEndian.PutUint16(payload, uint16(p.Sequencer.RollOverCount()))

	pos := extSeqSize
	for i, s := range segs {
		putSegment(payload[pos:], s, i < len(segs)-1)
		pos += lineHeaderSize
	}
	for _, s := range segs {
		pos += packGroups(payload[pos:pos+s.length], view, s)
	}

	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         last,
			PayloadType:    p.PayloadType,
			SequenceNumber: seq,
			Timestamp:      timestamp,
			SSRC:           p.SSRC,
		},
		Payload: payload,
	}
}

func packGroups(dst []byte, view *plane.View, s segment) int {
	y0 := view.Row(plane.Luma, s.line)
	y1 := view.Row(plane.Luma, s.line+1)
	c := view.Row(plane.Chroma, s.line/2)

	x := s.offset
	for i := 0; i < len(dst); i += PixelGroupSize {
		dst[i] = y0[x]
		dst[i+1] = y0[x+1]
		dst[i+2] = y1[x]
		dst[i+3] = y1[x+1]
		dst[i+4] = c[x]
		dst[i+5] = c[x+1]
		x += 2
	}
	return len(dst)
}
