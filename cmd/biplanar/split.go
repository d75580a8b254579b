package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pion/biplanar/pkg/frame"
	"github.com/pion/biplanar/pkg/plane"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Write the luma and chroma planes of a biplanar file as PNG images",
	RunE:  runSplit,
}

func init() {
	splitCmd.Flags().StringP("input", "i", "", "Input biplanar file")
	splitCmd.Flags().StringP("dir", "d", ".", "Output directory")
	splitCmd.Flags().String("format", "", "Raw input format; NV12 reads a tightly packed frame instead of a biplanar file")
	splitCmd.Flags().Int("width", 0, "Raw input width")
	splitCmd.Flags().Int("height", 0, "Raw input height")
	splitCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(splitCmd)
}

func readBuffer(path string) (*plane.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	buf, err := plane.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return buf, nil
}

func readRawNV12(cmd *cobra.Command, path string) (*plane.Buffer, error) {
	format, _ := cmd.Flags().GetString("format")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	if f := parseFormat(format); f != frame.FormatNV12 {
		return nil, fmt.Errorf("split reads NV12 raw frames, not %s", f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return wrapNV12(data, width, height)
}

func runSplit(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	dir, _ := cmd.Flags().GetString("dir")

	var (
		buf *plane.Buffer
		err error
	)
	if isRaw(cmd) {
		buf, err = readRawNV12(cmd, inputPath)
	} else {
		buf, err = readBuffer(inputPath)
	}
	if err != nil {
		return err
	}
	defer buf.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	v, err := buf.Lock(plane.LockReadOnly)
	if err != nil {
		return err
	}
	defer v.Release()

	luma := filepath.Join(dir, "luma.png")
	if err := writePNG(luma, v.LumaImage()); err != nil {
		return err
	}
	chroma := filepath.Join(dir, "chroma.png")
	if err := writePNG(chroma, v.ChromaImage()); err != nil {
		return err
	}

	fmt.Printf("Wrote %s and %s\n", luma, chroma)
	return nil
}
