package main

import (
	"fmt"

	"github.com/pion/biplanar"
	"github.com/pion/biplanar/pkg/compute"
	"github.com/pion/biplanar/pkg/io/video"
	"github.com/spf13/cobra"
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Convert an image or raw RGB frame to biplanar YCbCr and reconstruct it on a device",
	RunE:  runRoundtrip,
}

func init() {
	addSourceFlags(roundtripCmd)
	roundtripCmd.Flags().StringP("output", "o", "", "Output PNG file")
	roundtripCmd.Flags().Bool("gpu", false, "Reconstruct on the WebGPU device")
	roundtripCmd.Flags().Int("scale-width", 0, "Scale image input to this width first, raw output afterwards")
	roundtripCmd.Flags().Int("scale-height", 0, "Scale image input to this height first, raw output afterwards")
	roundtripCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(roundtripCmd)
}

func openDevice(gpu bool) (compute.Device, error) {
	if !gpu {
		return compute.NewCPUDevice(), nil
	}
	d, err := compute.NewWGPUDevice()
	if err != nil {
		return nil, fmt.Errorf("opening gpu: %w", err)
	}
	return d, nil
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	gpu, _ := cmd.Flags().GetBool("gpu")
	width, _ := cmd.Flags().GetInt("scale-width")
	height, _ := cmd.Flags().GetInt("scale-height")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	device, err := openDevice(gpu)
	if err != nil {
		return err
	}
	defer device.Close()

	session, err := biplanar.NewSession(device, cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	var scale video.TransformFunc
	if width > 0 || height > 0 {
		scale = video.Scale(width, height, video.ScalerCatmullRom)
	}

	var r video.Reader
	if isRaw(cmd) {
		src, err := loadSurface(cmd)
		if err != nil {
			return err
		}
		view, err := session.Run(cmd.Context(), src)
		if err != nil {
			return fmt.Errorf("round trip: %w", err)
		}
		r = video.Merge(scale)(video.Images(view.Image()))
	} else {
		inputPath, _ := cmd.Flags().GetString("input")
		img, err := decodeFile(inputPath)
		if err != nil {
			return err
		}
		r = video.Merge(scale, session.Transform(cmd.Context()))(video.Images(img))
	}

	out, release, err := r.Read()
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	defer release()

	if err := writePNG(outputPath, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %s on %s\n", outputPath, session.Profile(), device.Name())
	return nil
}
