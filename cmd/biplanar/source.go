package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pion/biplanar/pkg/frame"
	"github.com/pion/biplanar/pkg/plane"
	"github.com/spf13/cobra"
)

// addSourceFlags registers the input flags shared by the commands that read
// RGB sources.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "Input image (png, jpeg, bmp, tiff) or raw frame")
	cmd.Flags().String("format", "", "Raw input pixel format (RGBA, BGRA, ARGB, ABGR, RGBX, ...); empty decodes an image file")
	cmd.Flags().Int("width", 0, "Raw input width")
	cmd.Flags().Int("height", 0, "Raw input height")
	cmd.Flags().Int("stride", 0, "Raw input row stride in bytes, 0 for tightly packed rows")
	cmd.MarkFlagRequired("input")
}

// isRaw reports whether the command reads a raw frame instead of an image.
func isRaw(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("format")
	return format != ""
}

// loadSurface reads the command's input as a packed RGB surface.
func loadSurface(cmd *cobra.Command) (*frame.Surface, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("input")
	if !isRaw(cmd) {
		img, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		return frame.FromImage(img), nil
	}

	format, _ := flags.GetString("format")
	width, _ := flags.GetInt("width")
	height, _ := flags.GetInt("height")
	stride, _ := flags.GetInt("stride")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return decodeRaw(data, format, width, height, stride)
}

func parseFormat(name string) frame.Format {
	switch f := frame.Format(strings.ToUpper(name)); f {
	case "RGBX":
		return frame.FormatRGBX
	case "BGRX":
		return frame.FormatBGRX
	case "XRGB":
		return frame.FormatXRGB
	default:
		return f
	}
}

func checkFrameSize(data []byte, f frame.Format, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", frame.ErrInvalidDimensions, width, height)
	}
	size, ok := frame.FrameSizeMap[f]
	if !ok {
		return fmt.Errorf("unsupported raw format %s", f)
	}
	if need := size(width, height); uint(len(data)) < need {
		return fmt.Errorf("raw %s frame %dx%d needs %d bytes, got %d", f, width, height, need, len(data))
	}
	return nil
}

// decodeRaw wraps a raw packed frame. Tightly packed frames are checked
// against the format's frame size.
func decodeRaw(data []byte, format string, width, height, stride int) (*frame.Surface, error) {
	f := parseFormat(format)
	dec, err := frame.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	if stride <= 0 {
		if err := checkFrameSize(data, f, width, height); err != nil {
			return nil, err
		}
	}
	return dec.Decode(data, width, height, stride)
}

// wrapNV12 wraps a tightly packed NV12 frame as a biplanar buffer.
func wrapNV12(data []byte, width, height int) (*plane.Buffer, error) {
	if err := checkFrameSize(data, frame.FormatNV12, width, height); err != nil {
		return nil, err
	}
	luma, chroma, size, err := plane.NewLayouts(width, height, plane.Options{Alignment: 1})
	if err != nil {
		return nil, err
	}
	return plane.NewWithLayouts(luma, chroma, data[:size])
}
