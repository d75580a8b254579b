package rtpraw

import (
	"fmt"

	"github.com/pion/biplanar/pkg/plane"
	"github.com/pion/rtp"
)

// Depacketizer reassembles frames of a fixed size from RTP packets.
// Packets of one frame share a timestamp and may arrive in any order; the
// marker bit closes the frame.
type Depacketizer struct {
	width, height int
	opts          plane.Options

	buf       *plane.Buffer
	view      *plane.View
	timestamp uint32
	// seen marks the pixel groups of the current frame that arrived,
	// indexed by (line/2)*(width/2) + offset/2.
	seen     []bool
	received int
}

func NewDepacketizer(width, height int, opts plane.Options) (*Depacketizer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	return &Depacketizer{
		width:  width,
		height: height,
		opts:   opts,
		seen:   make([]bool, (width/2)*(height/2)),
	}, nil
}

// Push consumes one packet. When pkt completes a frame the frame is
// returned and the caller owns it. A marker on a frame with missing pixel
// groups drops the frame and returns ErrIncompleteFrame.
func (d *Depacketizer) Push(pkt *rtp.Packet) (*plane.Buffer, error) {
	segs, pos, err := parseSegments(pkt.Payload)
	if err != nil {
		return nil, err
	}

	if d.buf != nil && pkt.Timestamp != d.timestamp {
		d.reset()
	}
	if d.buf == nil {
		if err := d.start(pkt.Timestamp); err != nil {
			return nil, err
		}
	}

	for _, s := range segs {
		if err := d.check(s); err != nil {
			return nil, err
		}
		unpackGroups(d.view, s, pkt.Payload[pos:pos+s.length])
		pos += s.length
		d.mark(s)
	}

	if !pkt.Marker {
		return nil, nil
	}
	if d.received != len(d.seen) {
		d.reset()
		return nil, ErrIncompleteFrame
	}
	buf := d.buf
	d.view.Release()
	d.buf, d.view = nil, nil
	return buf, nil
}

func (d *Depacketizer) start(ts uint32) error {
	buf, err := plane.New(d.width, d.height, d.opts)
	if err != nil {
		return err
	}
	view, err := buf.Lock(plane.LockReadWrite)
	if err != nil {
		return err
	}
	d.buf, d.view, d.timestamp = buf, view, ts
	d.clearSeen()
	return nil
}

// mark records the groups of s, counting each group once per frame.
func (d *Depacketizer) mark(s segment) {
	first := (s.line/2)*(d.width/2) + s.offset/2
	for i := first; i < first+s.length/PixelGroupSize; i++ {
		if !d.seen[i] {
			d.seen[i] = true
			d.received++
		}
	}
}

func (d *Depacketizer) clearSeen() {
	for i := range d.seen {
		d.seen[i] = false
	}
	d.received = 0
}

func (d *Depacketizer) reset() {
	if d.view != nil {
		d.view.Release()
	}
	if d.buf != nil {
		_ = d.buf.Close()
	}
	d.buf, d.view = nil, nil
	d.clearSeen()
}

func (d *Depacketizer) check(s segment) error {
	if s.length%PixelGroupSize != 0 || s.line%2 != 0 || s.offset%2 != 0 ||
		s.line+2 > d.height || s.offset+2*s.length/PixelGroupSize > d.width {
		return fmt.Errorf("rtpraw: segment line %d offset %d length %d out of %dx%d frame",
			s.line, s.offset, s.length, d.width, d.height)
	}
	return nil
}

func unpackGroups(view *plane.View, s segment, src []byte) {
	y0 := view.Row(plane.Luma, s.line)
	y1 := view.Row(plane.Luma, s.line+1)
	c := view.Row(plane.Chroma, s.line/2)

	x := s.offset
	for i := 0; i < len(src); i += PixelGroupSize {
		y0[x] = src[i]
		y0[x+1] = src[i+1]
		y1[x] = src[i+2]
		y1[x+1] = src[i+3]
		c[x] = src[i+4]
		c[x+1] = src[i+5]
		x += 2
	}
}
