package scene

import (
	"fmt"

	"github.com/opd-ai/go-physics2d/pkg/config"
	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// Scene is a world populated from a SceneConfig. It owns the transforms
// its bodies read and write, one per configured body.
type Scene struct {
	Name       string
	world      *physics.World
	transforms []physics.Transform
	bodies     []*physics.Body
	names      []string
	byName     map[string]*physics.Body
}

// Load resets world, applies the configured settings and creates every
// body. Body i gets entity id i+1. Every body is built before the world is
// touched, so an invalid cfg leaves the running scene in place.
func Load(world *physics.World, cfg *config.SceneConfig) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "scene %q", cfg.Name)
	}
	settings := cfg.World.Settings()
	defs := make([]physics.BodyDef, len(cfg.Bodies))
	for i, bc := range cfg.Bodies {
		def, err := bc.Def()
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		defs[i] = def
	}

	if err := world.Reset(); err != nil {
		return nil, err
	}
	if err := world.Configure(settings); err != nil {
		return nil, err
	}

	s := &Scene{
		Name:       cfg.Name,
		world:      world,
		transforms: make([]physics.Transform, len(cfg.Bodies)),
		bodies:     make([]*physics.Body, 0, len(cfg.Bodies)),
		names:      make([]string, 0, len(cfg.Bodies)),
		byName:     make(map[string]*physics.Body, len(cfg.Bodies)),
	}
	for i, bc := range cfg.Bodies {
		s.transforms[i] = bc.Transform()
		body, err := world.CreateBody(physics.EntityID(i+1), &s.transforms[i], defs[i])
		if err != nil {
			_ = world.Reset()
			return nil, fmt.Errorf("body %d: %w", i, err)
		}

		name := bc.Name
		if name == "" {
			name = fmt.Sprintf("body-%d", i+1)
		}
		s.bodies = append(s.bodies, body)
		s.names = append(s.names, name)
		s.byName[name] = body
	}
	return s, nil
}

// World returns the populated world
func (s *Scene) World() *physics.World {
	return s.world
}

// Body looks a body up by its configured name
func (s *Scene) Body(name string) (*physics.Body, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// NameOf returns the configured name of the body for entity, if any
func (s *Scene) NameOf(entity physics.EntityID) string {
	for i, b := range s.bodies {
		if b.Entity() == entity {
			return s.names[i]
		}
	}
	return ""
}

// Names returns body names in creation order
func (s *Scene) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
