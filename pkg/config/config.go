// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// SceneConfig is everything needed to build a physics world at scene load
type SceneConfig struct {
	Name   string       `json:"name" yaml:"name"`
	World  WorldConfig  `json:"world" yaml:"world"`
	Bodies []BodyConfig `json:"bodies" yaml:"bodies"`
}

// WorldConfig contains the world-wide simulation parameters
type WorldConfig struct {
	Gravity           VectorConfig `json:"gravity" yaml:"gravity"`
	PixelsPerMeter    float64      `json:"pixelsPerMeter" yaml:"pixels_per_meter"`
	TimeStep          float64      `json:"timeStep" yaml:"time_step"`
	MaxSubSteps       int          `json:"maxSubSteps" yaml:"max_sub_steps"`
	CorrectionPercent float64      `json:"correctionPercent" yaml:"correction_percent"`
	CorrectionSlop    float64      `json:"correctionSlop" yaml:"correction_slop"`
	MaxVelocity       float64      `json:"maxVelocity" yaml:"max_velocity"`
	MaxCoordinate     float64      `json:"maxCoordinate" yaml:"max_coordinate"`
}

// VectorConfig is a 2D vector as written in configuration files
type VectorConfig struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// BodyConfig describes one body. Position, Radius and HalfWidth/HalfHeight
// are in pixels; Velocity is in m/s; Rotation is in radians.
type BodyConfig struct {
	Name            string       `json:"name" yaml:"name"`
	Shape           string       `json:"shape" yaml:"shape"`
	Radius          float64      `json:"radius,omitempty" yaml:"radius,omitempty"`
	HalfWidth       float64      `json:"halfWidth,omitempty" yaml:"half_width,omitempty"`
	HalfHeight      float64      `json:"halfHeight,omitempty" yaml:"half_height,omitempty"`
	Position        VectorConfig `json:"position" yaml:"position"`
	Rotation        float64      `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Velocity        VectorConfig `json:"velocity" yaml:"velocity"`
	AngularVelocity float64      `json:"angularVelocity,omitempty" yaml:"angular_velocity,omitempty"`
	Type            string       `json:"type" yaml:"type"`
	Density         float64      `json:"density,omitempty" yaml:"density,omitempty"`
	Mass            float64      `json:"mass,omitempty" yaml:"mass,omitempty"`
	Restitution     float64      `json:"restitution" yaml:"restitution"`
	Friction        float64      `json:"friction" yaml:"friction"`
	LinearDamping   float64      `json:"linearDamping,omitempty" yaml:"linear_damping,omitempty"`
}

// format is the on-disk encoding picked from a file extension
type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatFor(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// LoadConfig loads a scene configuration from a JSON or YAML file.
// Fields missing from the file keep their DefaultWorldConfig values.
func LoadConfig(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := SceneConfig{World: DefaultWorldConfig()}
	switch formatFor(path) {
	case formatYAML:
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &config, nil
}

// SaveConfig saves a configuration to a file, using YAML for .yaml/.yml
// paths and indented JSON otherwise
func SaveConfig(config *SceneConfig, path string) error {
	var (
		data []byte
		err  error
	)
	switch formatFor(path) {
	case formatYAML:
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the world settings and every body definition
func (c *SceneConfig) Validate() error {
	if err := c.World.Settings().Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Name != "" {
			if seen[b.Name] {
				return fmt.Errorf("body %d: duplicate name %q", i, b.Name)
			}
			seen[b.Name] = true
		}
		def, err := b.Def()
		if err != nil {
			return fmt.Errorf("body %d (%s): %w", i, b.Name, err)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("body %d (%s): %w", i, b.Name, err)
		}
		if t := b.Transform(); !t.Position.IsFinite() || math.IsNaN(t.Rotation) || math.IsInf(t.Rotation, 0) {
			return fmt.Errorf("body %d (%s) position %v rotation %v must be finite: %w",
				i, b.Name, t.Position, t.Rotation, physics.ErrInvalidBodyDef)
		}
	}
	return nil
}

// Settings converts the world configuration into physics settings
func (w WorldConfig) Settings() physics.Settings {
	return physics.Settings{
		Gravity:           physics.Vector2D{X: w.Gravity.X, Y: w.Gravity.Y},
		PixelsPerMeter:    w.PixelsPerMeter,
		TimeStep:          w.TimeStep,
		MaxSubSteps:       w.MaxSubSteps,
		CorrectionPercent: w.CorrectionPercent,
		CorrectionSlop:    w.CorrectionSlop,
		MaxVelocity:       w.MaxVelocity,
		MaxCoordinate:     w.MaxCoordinate,
	}
}

// Def builds a physics body definition, including its collider
func (b BodyConfig) Def() (physics.BodyDef, error) {
	kind, err := physics.ParseShapeKind(b.Shape)
	if err != nil {
		return physics.BodyDef{}, err
	}
	bodyType, err := physics.ParseBodyType(b.Type)
	if err != nil {
		return physics.BodyDef{}, err
	}

	var collider *physics.Collider
	switch kind {
	case physics.ShapeCircle:
		collider, err = physics.NewCircleCollider(b.Radius)
	default:
		collider, err = physics.NewBoxCollider(b.HalfWidth, b.HalfHeight)
	}
	if err != nil {
		return physics.BodyDef{}, err
	}

	return physics.BodyDef{
		Type:            bodyType,
		Collider:        collider,
		Density:         b.Density,
		Mass:            b.Mass,
		Restitution:     b.Restitution,
		Friction:        b.Friction,
		LinearDamping:   b.LinearDamping,
		Velocity:        physics.Vector2D{X: b.Velocity.X, Y: b.Velocity.Y},
		AngularVelocity: b.AngularVelocity,
	}, nil
}

// Transform returns the initial pixel-space transform of the body
func (b BodyConfig) Transform() physics.Transform {
	return physics.Transform{
		Position: physics.Vector2D{X: b.Position.X, Y: b.Position.Y},
		Rotation: b.Rotation,
	}
}

// DefaultWorldConfig mirrors physics.DefaultSettings
func DefaultWorldConfig() WorldConfig {
	s := physics.DefaultSettings()
	return WorldConfig{
		Gravity:           VectorConfig{X: s.Gravity.X, Y: s.Gravity.Y},
		PixelsPerMeter:    s.PixelsPerMeter,
		TimeStep:          s.TimeStep,
		MaxSubSteps:       s.MaxSubSteps,
		CorrectionPercent: s.CorrectionPercent,
		CorrectionSlop:    s.CorrectionSlop,
		MaxVelocity:       s.MaxVelocity,
		MaxCoordinate:     s.MaxCoordinate,
	}
}

// DefaultConfig returns the reference scene: a bouncing ball above a
// static floor
func DefaultConfig() *SceneConfig {
	world := DefaultWorldConfig()
	world.Gravity = VectorConfig{X: 0, Y: 10}

	return &SceneConfig{
		Name:  "ball-on-floor",
		World: world,
		Bodies: []BodyConfig{
			{
				Name:        "ball",
				Shape:       "circle",
				Radius:      50,
				Position:    VectorConfig{X: 200, Y: 50},
				Type:        "dynamic",
				Density:     1,
				Restitution: 0.6,
				Friction:    0.2,
			},
			{
				Name:        "floor",
				Shape:       "box",
				HalfWidth:   300,
				HalfHeight:  5,
				Position:    VectorConfig{X: 300, Y: 600},
				Type:        "static",
				Restitution: 0.6,
				Friction:    0.4,
			},
		},
	}
}
