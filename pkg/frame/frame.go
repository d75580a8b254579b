package frame

// Decoder wraps raw packed pixel bytes into a Surface. stride <= 0 means the
// rows are tightly packed.
type Decoder interface {
	Decode(frame []byte, width, height, stride int) (*Surface, error)
}

// DecoderFunc is a proxy type for Decoder
type DecoderFunc func(frame []byte, width, height, stride int) (*Surface, error)

func (f DecoderFunc) Decode(frame []byte, width, height, stride int) (*Surface, error) {
	return f(frame, width, height, stride)
}
