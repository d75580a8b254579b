package main

import (
	"fmt"
	"os"

	"github.com/pion/biplanar/internal/logging"
	pionlogging "github.com/pion/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "biplanar",
	Short: "Convert images to biplanar 4:2:0 YCbCr and back",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logging.SetLevel(pionlogging.LogLevelDebug)
		}
	},
	SilenceUsage: true,
}

func init() {
	addConfigFlags(rootCmd)
}

func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("matrix", "", "Matrix standard (bt601, bt709, bt2020)")
	flags.String("range", "", "Quantization range (full, studio)")
	flags.String("subsample", "", "Chroma subsampling (box-average, top-left)")
	flags.Int("alignment", 0, "Plane stride alignment in bytes")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
