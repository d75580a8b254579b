package frame

type Format string

const (
	// Packed formats, 4 bytes per pixel

	// FormatRGBA stores R, G, B, A
	FormatRGBA Format = "RGBA"
	// FormatBGRA stores B, G, R, A
	FormatBGRA Format = "BGRA"
	// FormatARGB stores A, R, G, B
	FormatARGB Format = "ARGB"
	// FormatABGR stores A, B, G, R
	FormatABGR Format = "ABGR"

	// Biplanar formats

	// FormatNV12 is 4:2:0 with a full resolution Y plane followed by an
	// interleaved CbCr plane. https://www.fourcc.org/pixel-format/yuv-nv12/
	FormatNV12 Format = "NV12"
)

// Packed aliases where the fourth byte is ignored

// FormatRGBX is an alias of FormatRGBA
const FormatRGBX = FormatRGBA

// FormatXRGB is an alias of FormatARGB
const FormatXRGB = FormatARGB

// FormatBGRX is an alias of FormatBGRA
const FormatBGRX = FormatBGRA

var formatOrders = map[Format]ChannelOrder{
	FormatRGBA: OrderRGBA,
	FormatBGRA: OrderBGRA,
	FormatARGB: OrderARGB,
	FormatABGR: OrderABGR,
}

// Order returns the channel order of a packed format.
func (f Format) Order() (ChannelOrder, bool) {
	o, ok := formatOrders[f]
	return o, ok
}
