// Package config loads the optional lottieplay.yaml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/lottie/pkg/graphics"
)

// Config represents the optional lottieplay.yaml configuration.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Display  DisplayConfig  `yaml:"display"`
}

// PlaybackConfig contains timeline settings.
type PlaybackConfig struct {
	Loop *bool `yaml:"loop,omitempty"`
}

// DisplayConfig contains frame presentation settings.
type DisplayConfig struct {
	// Width and Height bound the rendered frame in pixels. Zero means
	// fit to the terminal.
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`

	// Color tints the animation, as "#rrggbb" or "#aarrggbb".
	Color string `yaml:"color,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Loop    bool
	Box     graphics.Size
	Colored *graphics.Color
}

// LoadOptional reads lottieplay.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "lottieplay.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read lottieplay.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse lottieplay.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads lottieplay.yaml (if present) and resolves defaults: playback
// loops, frames fit the terminal, no tint.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{Loop: true}
	if cfg.Playback.Loop != nil {
		resolved.Loop = *cfg.Playback.Loop
	}
	if cfg.Display.Width > 0 && cfg.Display.Height > 0 {
		resolved.Box = graphics.SizeOf(cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Display.Color != "" {
		color, err := ParseColor(cfg.Display.Color)
		if err != nil {
			return nil, err
		}
		resolved.Colored = &color
	}
	return resolved, nil
}

// ParseColor parses "#rrggbb" or "#aarrggbb" into a Color.
func ParseColor(s string) (graphics.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return 0, fmt.Errorf("invalid color %q: want #rrggbb or #aarrggbb", s)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %v", s, err)
	}
	return graphics.Color(value), nil
}
