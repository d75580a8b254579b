package main

import (
	"github.com/pion/biplanar"
	"github.com/pion/biplanar/pkg/colormatrix"
	"github.com/spf13/cobra"
)

// loadConfig reads --config when given and applies the flags that were set
// on top of it.
func loadConfig(cmd *cobra.Command) (biplanar.Config, error) {
	flags := cmd.Flags()

	cfg := biplanar.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = biplanar.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("matrix") {
		s, _ := flags.GetString("matrix")
		std, err := colormatrix.ParseStandard(s)
		if err != nil {
			return cfg, err
		}
		cfg.Matrix = std
	}
	if flags.Changed("range") {
		s, _ := flags.GetString("range")
		if err := cfg.Range.UnmarshalText([]byte(s)); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("subsample") {
		s, _ := flags.GetString("subsample")
		if err := cfg.Subsample.UnmarshalText([]byte(s)); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("alignment") {
		cfg.Alignment, _ = flags.GetInt("alignment")
	}
	return cfg, cfg.Validate()
}
