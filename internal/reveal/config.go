package reveal

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// ErrInvalidConfig is returned for out-of-range engine settings.
var ErrInvalidConfig = errors.New("invalid reveal config")

// Config holds the engine settings.
type Config struct {
	// FoldSpeed multiplies the animation speed of every stage.
	FoldSpeed float32

	// SizeOffsetStep adds 1 to the speed multiplier per this many
	// triangles in the mesh. Zero disables size scaling.
	SizeOffsetStep int

	// ClearOnStart hides the mesh until a reveal runs. When false the full
	// mesh is shown after Initialize.
	ClearOnStart bool
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		FoldSpeed:      1,
		SizeOffsetStep: 800,
		ClearOnStart:   true,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.FoldSpeed <= 0 || math32.IsInf(c.FoldSpeed, 0) || math32.IsNaN(c.FoldSpeed) {
		return fmt.Errorf("%w: fold speed %v must be positive", ErrInvalidConfig, c.FoldSpeed)
	}
	if c.SizeOffsetStep < 0 {
		return fmt.Errorf("%w: size offset step %d is negative", ErrInvalidConfig, c.SizeOffsetStep)
	}
	return nil
}

// SizeOffset returns the speed multiplier for a mesh of triCount triangles.
func (c Config) SizeOffset(triCount int) float32 {
	if c.SizeOffsetStep <= 0 {
		return 1
	}
	return 1 + float32(triCount/c.SizeOffsetStep)
}
