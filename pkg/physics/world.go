// pkg/physics/world.go
package physics

import (
	"context"
	"fmt"
	"math"

	"github.com/opd-ai/go-physics2d/pkg/event"
	"github.com/opd-ai/go-physics2d/pkg/logging"
)

// pairKey identifies a touching pair in registration order
type pairKey struct {
	a, b *Body
}

// World owns the registered bodies of one scene and advances them.
// It is driven from the scene's update loop and is not safe for concurrent use.
type World struct {
	settings Settings

	bodies   []*Body
	byEntity map[EntityID]*Body

	contacts      []Manifold
	touching      map[pairKey]struct{}
	touchingOrder []pairKey

	accumulator float64
	tick        uint64
	stepping    bool

	bus    *event.Bus
	logger *logging.Logger
	logCtx context.Context
}

// NewWorld creates an empty world. A nil bus or logger is replaced by a
// private bus and a discarding logger.
func NewWorld(settings Settings, bus *event.Bus, logger *logging.Logger) (*World, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if bus == nil {
		bus = event.NewEventBus()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &World{
		settings: settings,
		byEntity: make(map[EntityID]*Body),
		touching: make(map[pairKey]struct{}),
		bus:      bus,
		logger:   logger,
		logCtx:   context.Background(),
	}, nil
}

// SetLogContext sets the context attached to the world's log entries,
// typically one carrying a run correlation ID
func (w *World) SetLogContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	w.logCtx = ctx
}

// Settings returns the active configuration
func (w *World) Settings() Settings {
	return w.settings
}

// EventBus returns the bus contact and diagnostic events are published on
func (w *World) EventBus() *event.Bus {
	return w.bus
}

// Tick returns the number of completed steps since creation or the last Reset
func (w *World) Tick() uint64 {
	return w.tick
}

// Configure replaces the settings between ticks. Mass data is rebuilt
// because it depends on the pixel scale.
func (w *World) Configure(settings Settings) error {
	if w.stepping {
		return ErrMidStep
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	w.settings = settings
	for _, b := range w.bodies {
		b.syncFromTransform(settings.PixelsPerMeter)
		b.updateMassData()
	}
	return nil
}

// Reset removes every body and clears contact state, as on scene load.
// Pairs still touching report ContactEnded before WorldReset is published.
func (w *World) Reset() error {
	if w.stepping {
		return ErrMidStep
	}
	ended := w.touchingOrder
	for _, b := range w.bodies {
		b.world = nil
	}
	w.bodies = nil
	w.byEntity = make(map[EntityID]*Body)
	w.contacts = nil
	w.touching = make(map[pairKey]struct{})
	w.touchingOrder = nil
	w.accumulator = 0
	w.tick = 0

	for _, k := range ended {
		w.publishContact(event.ContactEnded, k, nil)
	}
	w.bus.Publish(&event.BaseEvent{EventType: event.WorldReset, Source: w})
	return nil
}

// CreateBody builds a body for entity and registers it. The transform stays
// owned by the caller and is read and written every step.
func (w *World) CreateBody(entity EntityID, transform *Transform, def BodyDef) (*Body, error) {
	if w.stepping {
		return nil, ErrMidStep
	}
	if transform == nil {
		return nil, fmt.Errorf("entity %d: %w", entity, ErrNilTransform)
	}
	if err := def.Validate(); err != nil {
		return nil, logging.WrapError(err, "entity %d", entity)
	}
	if _, exists := w.byEntity[entity]; exists {
		return nil, fmt.Errorf("entity %d: %w", entity, ErrDuplicateBody)
	}
	if !transform.Position.IsFinite() || !isFinite(transform.Rotation) {
		return nil, fmt.Errorf("entity %d transform must be finite: %w", entity, ErrInvalidBodyDef)
	}

	b := newBody(entity, transform, def, w.settings.PixelsPerMeter)
	b.world = w
	w.bodies = append(w.bodies, b)
	w.byEntity[entity] = b

	w.bus.Publish(event.NewBodyEvent(event.BodyAdded, w, uint64(entity), b.bodyType.String()))
	return b, nil
}

// RemoveBody unregisters b. Pairs it was touching report ContactEnded.
func (w *World) RemoveBody(b *Body) error {
	if w.stepping {
		return ErrMidStep
	}
	if b == nil || b.world != w {
		return ErrUnknownBody
	}

	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i:i], w.bodies[i+1:]...)
			break
		}
	}
	delete(w.byEntity, b.entity)
	b.world = nil

	w.dropContactsOf(b)
	w.bus.Publish(event.NewBodyEvent(event.BodyRemoved, w, uint64(b.entity), b.bodyType.String()))
	return nil
}

// dropContactsOf forgets every contact involving b
func (w *World) dropContactsOf(b *Body) {
	keptOrder := make([]pairKey, 0, len(w.touchingOrder))
	for _, k := range w.touchingOrder {
		if k.a == b || k.b == b {
			delete(w.touching, k)
			w.publishContact(event.ContactEnded, k, nil)
			continue
		}
		keptOrder = append(keptOrder, k)
	}
	w.touchingOrder = keptOrder

	kept := make([]Manifold, 0, len(w.contacts))
	for _, m := range w.contacts {
		if m.BodyA != b && m.BodyB != b {
			kept = append(kept, m)
		}
	}
	w.contacts = kept
}

// Body looks up the body registered for entity
func (w *World) Body(entity EntityID) (*Body, bool) {
	b, ok := w.byEntity[entity]
	return b, ok
}

// Bodies returns the registered bodies in registration order
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// Len returns the number of registered bodies
func (w *World) Len() int {
	return len(w.bodies)
}

// Contacts returns the manifolds computed during the last step
func (w *World) Contacts() []Manifold {
	out := make([]Manifold, len(w.contacts))
	copy(out, w.contacts)
	return out
}

// Step advances the world by dt seconds: integrate, broad phase, narrow
// phase, resolve, publish. Every phase finishes for all bodies before the
// next begins. Events are dispatched after the step has completed.
func (w *World) Step(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		w.logger.Warn(w.logCtx, "ignoring step with invalid time step", "dt", dt)
		return
	}

	w.stepping = true
	w.tick++
	ppm := w.settings.PixelsPerMeter

	for _, b := range w.bodies {
		b.syncFromTransform(ppm)
	}

	unstable := w.integrate(dt)

	var manifolds []Manifold
	for _, p := range candidatePairs(w.bodies) {
		if m, ok := detectBodies(p.a, p.b); ok {
			manifolds = append(manifolds, m)
		}
	}

	for i := range manifolds {
		resolveManifold(&manifolds[i], w.settings)
	}

	for _, b := range w.bodies {
		b.publishTransform(ppm)
	}
	w.contacts = manifolds
	w.stepping = false

	w.reportInstabilities(unstable)
	w.updateContactState(manifolds)
}

func (w *World) integrate(dt float64) []instability {
	var unstable []instability
	for _, b := range w.bodies {
		prev := b.pose()
		b.Integrate(dt, w.settings.Gravity)
		unstable = append(unstable, b.sanitize(prev, w.settings)...)
	}
	return unstable
}

// Advance consumes elapsed seconds in fixed TimeStep ticks and returns the
// number of ticks run. Time beyond MaxSubSteps ticks is dropped.
func (w *World) Advance(elapsed float64) int {
	if !(elapsed >= 0) || math.IsInf(elapsed, 0) {
		w.logger.Warn(w.logCtx, "ignoring invalid elapsed time", "elapsed", elapsed)
		return 0
	}

	step := w.settings.TimeStep
	w.accumulator += elapsed
	steps := 0
	for w.accumulator >= step && steps < w.settings.MaxSubSteps {
		w.Step(step)
		w.accumulator -= step
		steps++
	}

	if w.accumulator >= step {
		dropped := w.accumulator - math.Mod(w.accumulator, step)
		w.accumulator -= dropped
		w.logger.Warn(w.logCtx, "dropping simulation time",
			"dropped_seconds", dropped,
			"max_sub_steps", w.settings.MaxSubSteps,
		)
	}
	return steps
}

// IsColliding reports whether a and b overlap at their current transforms.
// It does not modify either body.
func (w *World) IsColliding(a, b *Body) bool {
	if a == nil || b == nil || a == b || a.world != w || b.world != w {
		return false
	}
	sa, ta := w.snapshot(a)
	sb, tb := w.snapshot(b)
	if !sa.Bounds(ta).Overlaps(sb.Bounds(tb)) {
		return false
	}
	_, ok := Detect(sa, ta, sb, tb)
	return ok
}

// snapshot converts a body's live transform and collider into meters
func (w *World) snapshot(b *Body) (ShapeData, Transform) {
	inv := 1 / w.settings.PixelsPerMeter
	return b.collider.Shape().Scaled(inv), Transform{
		Position: b.transform.Position.Scale(inv),
		Rotation: b.transform.Rotation,
	}
}

// QueryPoint returns the bodies whose collider contains point, given in
// pixels, in registration order
func (w *World) QueryPoint(point Vector2D) []*Body {
	var found []*Body
	for _, b := range w.bodies {
		if b.collider.Shape().ContainsPoint(*b.transform, point) {
			found = append(found, b)
		}
	}
	return found
}

// ToMeters converts a pixel length into meters
func (w *World) ToMeters(pixels float64) float64 {
	return pixels / w.settings.PixelsPerMeter
}

// ToPixels converts a length in meters into pixels
func (w *World) ToPixels(meters float64) float64 {
	return meters * w.settings.PixelsPerMeter
}

func (w *World) reportInstabilities(unstable []instability) {
	for _, u := range unstable {
		w.logger.Warn(w.logCtx, "clamped non-finite body state",
			"tick", w.tick,
			"entity", uint64(u.body.entity),
			"field", u.field,
			"value", u.value,
		)
		w.bus.Publish(event.NewInstabilityEvent(w, w.tick, uint64(u.body.entity), u.field))
	}
}

// updateContactState diffs this tick's pairs against the previous tick's
// and publishes ContactEnded then ContactBegan, each in pair order.
func (w *World) updateContactState(manifolds []Manifold) {
	current := make(map[pairKey]struct{}, len(manifolds))
	order := make([]pairKey, 0, len(manifolds))
	for _, m := range manifolds {
		k := pairKey{a: m.BodyA, b: m.BodyB}
		current[k] = struct{}{}
		order = append(order, k)
	}

	var ended []pairKey
	for _, k := range w.touchingOrder {
		if _, still := current[k]; !still {
			ended = append(ended, k)
		}
	}
	var began []int
	for i, k := range order {
		if _, was := w.touching[k]; !was {
			began = append(began, i)
		}
	}

	// state is committed first so handlers may remove bodies safely
	w.touching = current
	w.touchingOrder = order

	for _, k := range ended {
		w.publishContact(event.ContactEnded, k, nil)
	}
	for _, i := range began {
		w.publishContact(event.ContactBegan, order[i], &manifolds[i])
	}
}

func (w *World) publishContact(t event.Type, k pairKey, m *Manifold) {
	e := event.NewContactEvent(t, w, w.tick, uint64(k.a.entity), uint64(k.b.entity))
	if m != nil {
		e.NormalX = m.Normal.X
		e.NormalY = m.Normal.Y
		e.Penetration = m.Penetration
	}
	w.bus.Publish(e)
}
