// Package config handles meshfold configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshfold/internal/reveal"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all meshfold settings.
type Config struct {
	Fold    FoldConfig    `yaml:"fold"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Logging LoggingConfig `yaml:"logging"`
}

// FoldConfig holds the reveal engine settings.
type FoldConfig struct {
	Speed          float32 `yaml:"speed"`
	SizeOffsetStep int     `yaml:"size_offset_step"` // triangles per +1 speed multiplier, 0 disables
	ClearOnStart   bool    `yaml:"clear_on_start"`
}

// ViewerConfig holds window settings.
type ViewerConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Title      string `yaml:"title"`
}

// MeshConfig selects the mesh to reveal. Path wins over Primitive.
type MeshConfig struct {
	Path         string `yaml:"path"`
	Primitive    string `yaml:"primitive"`
	Subdivisions int    `yaml:"subdivisions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Fold: FoldConfig{
			Speed:          1,
			SizeOffsetStep: 800,
			ClearOnStart:   true,
		},
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			Title:  "meshfold",
		},
		Mesh: MeshConfig{
			Primitive:    "icosphere",
			Subdivisions: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Reveal converts the fold section to engine settings.
func (f FoldConfig) Reveal() reveal.Config {
	return reveal.Config{
		FoldSpeed:      f.Speed,
		SizeOffsetStep: f.SizeOffsetStep,
		ClearOnStart:   f.ClearOnStart,
	}
}

// Validate checks the settings that cannot be corrected later.
func (c *Config) Validate() error {
	if err := c.Fold.Reveal().Validate(); err != nil {
		return fmt.Errorf("%w: fold: %v", ErrInvalid, err)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("%w: viewer size %dx%d", ErrInvalid, c.Viewer.Width, c.Viewer.Height)
	}
	if c.Mesh.Path == "" && c.Mesh.Primitive == "" {
		return fmt.Errorf("%w: mesh needs a path or a primitive", ErrInvalid)
	}
	return nil
}

// LoadMesh reads the configured mesh file or builds the configured primitive.
func (m MeshConfig) LoadMesh() (meshio.Mesh, error) {
	if m.Path != "" {
		return meshio.Load(m.Path)
	}
	return meshio.Primitive(m.Primitive, m.Subdivisions)
}
