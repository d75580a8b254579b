package main

import (
	"fmt"
	"os"

	"github.com/pion/biplanar"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an image or raw RGB frame to a biplanar YCbCr file",
	RunE:  runConvert,
}

func init() {
	addSourceFlags(convertCmd)
	convertCmd.Flags().StringP("output", "o", "", "Output biplanar file")
	convertCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := loadSurface(cmd)
	if err != nil {
		return err
	}

	buf, err := biplanar.Encode(cfg, src)
	if err != nil {
		return fmt.Errorf("converting: %w", err)
	}
	defer buf.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	n, err := buf.WriteTo(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s: %dx%d, %d bytes\n", outputPath, buf.Width(), buf.Height(), n)
	return nil
}
