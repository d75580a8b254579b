package frame

// Return a function to get the number of bytes a tightly packed frame will
// occupy in the given format
var FrameSizeMap = map[Format]frameSizeFunc{
	FormatRGBA: frameSizePacked,
	FormatBGRA: frameSizePacked,
	FormatARGB: frameSizePacked,
	FormatABGR: frameSizePacked,
	FormatNV12: frameSizeNV12,
}

type frameSizeFunc func(width, height int) uint

func frameSizePacked(width, height int) uint {
	return uint(BytesPerPixel * width * height)
}

// Odd dimensions round the chroma plane up so every luma sample has a
// chroma sample.
func frameSizeNV12(width, height int) uint {
	yi := width * height
	ci := 2 * ((width + 1) / 2) * ((height + 1) / 2)
	return uint(yi + ci)
}
