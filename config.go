package biplanar

import (
	"fmt"
	"os"

	"github.com/pion/biplanar/pkg/colormatrix"
	"github.com/pion/biplanar/pkg/convert"
	"github.com/pion/biplanar/pkg/plane"
	"gopkg.in/yaml.v3"
)

// Config selects the color conversion and buffer layout of a Session.
type Config struct {
	Matrix    colormatrix.Standard     `yaml:"matrix"`
	Range     colormatrix.Quantization `yaml:"range"`
	Subsample convert.SubsamplePolicy  `yaml:"subsample"`
	// Alignment of plane strides and offsets in bytes. Zero uses the plane
	// package default.
	Alignment    int  `yaml:"alignment"`
	SharedStride bool `yaml:"shared_stride"`
	// Workers bounds the goroutines of the forward conversion. Zero means
	// GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultConfig is BT.709 full range with box averaged chroma.
func DefaultConfig() Config {
	return Config{
		Matrix:    colormatrix.BT709,
		Range:     colormatrix.QuantizationFull,
		Subsample: convert.SubsampleBoxAverage,
		Alignment: plane.DefaultAlignment,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("biplanar: reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("biplanar: parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Matrix == 0 {
		c.Matrix = colormatrix.BT709
	}
	return c
}

// Validate checks every field without building anything.
func (c Config) Validate() error {
	c = c.withDefaults()
	if _, err := c.Matrix.MarshalText(); err != nil {
		return err
	}
	if _, err := c.Range.Range(); err != nil {
		return err
	}
	if _, err := c.Subsample.MarshalText(); err != nil {
		return err
	}
	if c.Alignment < 0 || c.Alignment&(c.Alignment-1) != 0 {
		return fmt.Errorf("biplanar: alignment %d is not a power of two", c.Alignment)
	}
	if c.Workers < 0 {
		return fmt.Errorf("biplanar: negative worker count %d", c.Workers)
	}
	return nil
}

// Profile builds the color profile the config names.
func (c Config) Profile() (*colormatrix.Profile, error) {
	c = c.withDefaults()
	rng, err := c.Range.Range()
	if err != nil {
		return nil, err
	}
	return colormatrix.Build(c.Matrix, rng)
}

// PlaneOptions returns the buffer layout options for a profile built from c.
func (c Config) PlaneOptions(p *colormatrix.Profile) plane.Options {
	return plane.Options{
		Alignment:    c.Alignment,
		SharedStride: c.SharedStride,
		StudioRange:  !p.Range().IsFull(),
	}
}
