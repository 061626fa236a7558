package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the passplan configuration, read from a TOML file and then
// overridden by flags.
type Config struct {
	// Backend is "software", "wgpu" or "auto".
	Backend string `toml:"backend"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	// MaxAttachmentSize limits software targets, e.g. to mimic a device.
	MaxAttachmentSize int  `toml:"max_attachment_size"`
	FramebufferFetch  bool `toml:"framebuffer_fetch"`
	SampleCount       int  `toml:"sample_count"`
	// Output is the PNG path for one scene, or a directory for several.
	Output string `toml:"output"`
	// Format names a recording formatter: "text" or "yaml".
	Format  string `toml:"format"`
	Verbose bool   `toml:"verbose"`
	Color   bool   `toml:"color"`
	Strict  bool   `toml:"strict"`
}

func defaultConfig() Config {
	return Config{
		Backend:     "software",
		Width:       256,
		Height:      256,
		SampleCount: 1,
		Format:      "text",
		Color:       true,
	}
}

// loadConfig reads path over the defaults. A missing file is not an error
// when the path was not given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Backend {
	case "software", "wgpu", "auto":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	}
	if c.SampleCount != 1 && c.SampleCount != 4 {
		return fmt.Errorf("config: sample_count must be 1 or 4, got %d", c.SampleCount)
	}
	return nil
}
