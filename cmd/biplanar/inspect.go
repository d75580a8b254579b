package main

import (
	"fmt"

	"github.com/pion/biplanar/pkg/plane"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Print the header of a biplanar file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	buf, err := readBuffer(path)
	if err != nil {
		return err
	}
	defer buf.Close()

	h := buf.Header()
	rng := "studio"
	if h.FullRange {
		rng = "full"
	}

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Version:    %d\n", h.Version)
	fmt.Printf("FourCC:     %s\n", string(h.FourCC[:]))
	fmt.Printf("Range:      %s\n", rng)
	fmt.Printf("Dimensions: %d x %d\n", h.Width, h.Height)
	for i, name := range []string{"Luma", "Chroma"} {
		p := h.Planes[i]
		fmt.Printf("%-7s     offset %d, stride %d, %d x %d\n", name+":", p.Offset, p.Stride, p.Width, p.Height)
	}
	fmt.Printf("Header:     %d bytes\n", plane.HeaderSize)
	fmt.Printf("Planes:     %d bytes\n", buf.Len())
	return nil
}
