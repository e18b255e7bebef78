// pkg/scene/system.go
package scene

import (
	"context"
	"fmt"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
)

// physicsEntity links an engo entity to its body. The SpaceComponent stays
// owned by the entity; transform is the copy the world reads and writes.
type physicsEntity struct {
	basic     *ecs.BasicEntity
	space     *common.SpaceComponent
	transform *physics.Transform
	body      *physics.Body
	// read is the transform as copied in from space this update
	read physics.Transform
}

// PhysicsSystem drives a physics world from an engo ecs.World. Each Update
// copies entity centers in, advances the world in fixed ticks and writes
// the results back.
type PhysicsSystem struct {
	world    *physics.World
	entities []physicsEntity
	index    map[uint64]int
	logger   *logging.Logger
}

// NewPhysicsSystem wraps world. A nil logger discards output.
func NewPhysicsSystem(world *physics.World, logger *logging.Logger) *PhysicsSystem {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PhysicsSystem{
		world:  world,
		index:  make(map[uint64]int),
		logger: logger.With("system", "physics"),
	}
}

// World returns the simulated world
func (s *PhysicsSystem) World() *physics.World {
	return s.world
}

// Priority runs physics before rendering systems
func (s *PhysicsSystem) Priority() int {
	return 100
}

// Add attaches a body to the entity. The SpaceComponent center is the body
// position and its rotation, in degrees, the body rotation.
func (s *PhysicsSystem) Add(basic *ecs.BasicEntity, space *common.SpaceComponent, def physics.BodyDef) (*physics.Body, error) {
	if basic == nil || space == nil {
		return nil, fmt.Errorf("physics system: entity and space component are required")
	}

	transform := &physics.Transform{}
	readSpace(space, transform)

	body, err := s.world.CreateBody(physics.EntityID(basic.ID()), transform, def)
	if err != nil {
		return nil, logging.WrapError(err, "attaching body to entity %d", basic.ID())
	}

	s.index[basic.ID()] = len(s.entities)
	s.entities = append(s.entities, physicsEntity{
		basic:     basic,
		space:     space,
		transform: transform,
		body:      body,
	})
	return body, nil
}

// Remove detaches the entity's body. Unknown entities are ignored.
func (s *PhysicsSystem) Remove(basic ecs.BasicEntity) {
	i, ok := s.index[basic.ID()]
	if !ok {
		return
	}

	if err := s.world.RemoveBody(s.entities[i].body); err != nil {
		s.logger.Error(context.Background(), "failed to remove body", err, "entity", basic.ID())
	}

	delete(s.index, basic.ID())
	s.entities = append(s.entities[:i:i], s.entities[i+1:]...)
	for j := i; j < len(s.entities); j++ {
		s.index[s.entities[j].basic.ID()] = j
	}
}

// Body returns the body attached to basic
func (s *PhysicsSystem) Body(basic ecs.BasicEntity) (*physics.Body, bool) {
	i, ok := s.index[basic.ID()]
	if !ok {
		return nil, false
	}
	return s.entities[i].body, true
}

// Update advances the world by dt seconds of frame time
func (s *PhysicsSystem) Update(dt float32) {
	for i := range s.entities {
		e := &s.entities[i]
		readSpace(e.space, e.transform)
		e.read = *e.transform
	}

	if s.world.Advance(float64(dt)) == 0 {
		return
	}

	for _, e := range s.entities {
		if e.body.Type() == physics.Static || *e.transform == e.read {
			continue
		}
		writeSpace(e.transform, e.space)
	}
}

func readSpace(space *common.SpaceComponent, t *physics.Transform) {
	c := space.Center()
	t.Position = physics.Vector2D{X: float64(c.X), Y: float64(c.Y)}
	t.Rotation = float64(space.Rotation) * math.Pi / 180
}

func writeSpace(t *physics.Transform, space *common.SpaceComponent) {
	space.Rotation = float32(t.Rotation * 180 / math.Pi)
	space.SetCenter(engo.Point{X: float32(t.Position.X), Y: float32(t.Position.Y)})
}
