package physics

import (
	"fmt"
	"math"
)

// DefaultPixelsPerMeter matches the scale designers author scenes at.
const DefaultPixelsPerMeter = 64

// Settings is the world-owned configuration passed into every step.
// Gravity, slop and limits are in meters; +Y points down in screen space.
type Settings struct {
	Gravity        Vector2D
	PixelsPerMeter float64
	// TimeStep is the fixed tick used by Advance, in seconds.
	TimeStep float64
	// MaxSubSteps bounds how many fixed ticks one Advance call may run.
	MaxSubSteps int
	// CorrectionPercent is the share of excess penetration removed per tick.
	CorrectionPercent float64
	// CorrectionSlop is the penetration tolerated without correction.
	CorrectionSlop float64
	MaxVelocity    float64
	MaxCoordinate  float64
}

// DefaultSettings returns earth-like gravity at 64 pixels per meter and 60 Hz
func DefaultSettings() Settings {
	return Settings{
		Gravity:           Vector2D{X: 0, Y: 9.81},
		PixelsPerMeter:    DefaultPixelsPerMeter,
		TimeStep:          1.0 / 60.0,
		MaxSubSteps:       8,
		CorrectionPercent: 0.4,
		CorrectionSlop:    0.01,
		MaxVelocity:       1000,
		MaxCoordinate:     1e6,
	}
}

// Validate reports the first unusable field
func (s Settings) Validate() error {
	switch {
	case !s.Gravity.IsFinite():
		return fmt.Errorf("gravity %v: %w", s.Gravity, ErrInvalidSettings)
	case !(s.PixelsPerMeter > 0) || math.IsInf(s.PixelsPerMeter, 0):
		return fmt.Errorf("pixels per meter %v: %w", s.PixelsPerMeter, ErrInvalidSettings)
	case !(s.TimeStep > 0) || math.IsInf(s.TimeStep, 0):
		return fmt.Errorf("time step %v: %w", s.TimeStep, ErrInvalidSettings)
	case s.MaxSubSteps < 1:
		return fmt.Errorf("max sub steps %d: %w", s.MaxSubSteps, ErrInvalidSettings)
	case !(s.CorrectionPercent >= 0 && s.CorrectionPercent <= 1):
		return fmt.Errorf("correction percent %v: %w", s.CorrectionPercent, ErrInvalidSettings)
	case !(s.CorrectionSlop >= 0) || math.IsInf(s.CorrectionSlop, 0):
		return fmt.Errorf("correction slop %v: %w", s.CorrectionSlop, ErrInvalidSettings)
	case !(s.MaxVelocity > 0) || math.IsInf(s.MaxVelocity, 0):
		return fmt.Errorf("max velocity %v: %w", s.MaxVelocity, ErrInvalidSettings)
	case !(s.MaxCoordinate > 0) || math.IsInf(s.MaxCoordinate, 0):
		return fmt.Errorf("max coordinate %v: %w", s.MaxCoordinate, ErrInvalidSettings)
	}
	return nil
}
