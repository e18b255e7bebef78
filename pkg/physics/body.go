// pkg/physics/body.go
package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// EntityID is an opaque handle into the scene's entity storage.
// The physics core stores it but never resolves it.
type EntityID uint64

// Transform is the position and rotation of a scene entity.
// Bodies hold a pointer to the entity's transform; Position is in pixels
// and Rotation in radians.
type Transform struct {
	Position Vector2D
	Rotation float64
}

// BodyType classifies how a body takes part in the simulation
type BodyType uint8

const (
	Static BodyType = iota
	Kinematic
	Dynamic
)

func (t BodyType) String() string {
	switch t {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("bodytype(%d)", t)
	}
}

// ParseBodyType converts a configuration name into a BodyType
func ParseBodyType(s string) (BodyType, error) {
	switch s {
	case "static":
		return Static, nil
	case "kinematic":
		return Kinematic, nil
	case "dynamic", "":
		return Dynamic, nil
	default:
		return 0, fmt.Errorf("unknown body type %q", s)
	}
}

// BodyDef carries the author-specified properties of a body.
// Density is in kg/m² and is ignored when Mass is positive.
type BodyDef struct {
	Type            BodyType
	Collider        *Collider
	Density         float64
	Mass            float64
	Restitution     float64
	Friction        float64
	LinearDamping   float64
	Velocity        Vector2D // m/s
	AngularVelocity float64  // rad/s
}

// Validate checks the definition without building a body
func (d BodyDef) Validate() error {
	if d.Collider == nil {
		return ErrNilCollider
	}
	if d.Type > Dynamic {
		return fmt.Errorf("body type %d: %w", d.Type, ErrInvalidBodyDef)
	}
	if d.Restitution < 0 || d.Restitution > 1 || math.IsNaN(d.Restitution) {
		return fmt.Errorf("restitution %v outside [0,1]: %w", d.Restitution, ErrInvalidBodyDef)
	}
	if d.Friction < 0 || d.Friction > 1 || math.IsNaN(d.Friction) {
		return fmt.Errorf("friction %v outside [0,1]: %w", d.Friction, ErrInvalidBodyDef)
	}
	if d.LinearDamping < 0 || !isFinite(d.LinearDamping) {
		return fmt.Errorf("linear damping %v: %w", d.LinearDamping, ErrInvalidBodyDef)
	}
	if d.Mass < 0 || d.Density < 0 || !isFinite(d.Mass) || !isFinite(d.Density) {
		return fmt.Errorf("mass %v density %v: %w", d.Mass, d.Density, ErrInvalidBodyDef)
	}
	if d.Type == Dynamic && d.Mass == 0 && d.Density == 0 {
		return fmt.Errorf("dynamic body needs a positive mass or density: %w", ErrInvalidBodyDef)
	}
	if !d.Velocity.IsFinite() || !isFinite(d.AngularVelocity) {
		return fmt.Errorf("initial velocity must be finite: %w", ErrInvalidBodyDef)
	}
	return nil
}

// Body is the physical state of one scene entity
type Body struct {
	entity    EntityID
	transform *Transform
	collider  *Collider
	bodyType  BodyType

	density      float64
	massOverride float64
	mass         float64
	invMass      float64
	inertia      float64
	invInertia   float64
	colliderVer  uint64

	velocity        Vector2D
	angularVelocity float64
	restitution     float64
	friction        float64
	damping         float64

	// simulation-space state, meters; refreshed from transform every step
	position Vector2D
	rotation float64
	shape    ShapeData
	// synced is the pose last read from the transform
	synced Transform

	world *World
}

func newBody(entity EntityID, transform *Transform, def BodyDef, ppm float64) *Body {
	b := &Body{
		entity:          entity,
		transform:       transform,
		collider:        def.Collider,
		bodyType:        def.Type,
		density:         def.Density,
		massOverride:    def.Mass,
		velocity:        def.Velocity,
		angularVelocity: def.AngularVelocity,
		restitution:     def.Restitution,
		friction:        def.Friction,
		damping:         def.LinearDamping,
	}
	b.syncFromTransform(ppm)
	return b
}

// updateMassData derives mass and moment from the collider, in meters.
// Non-dynamic bodies get infinite mass.
func (b *Body) updateMassData() {
	b.colliderVer = b.collider.version
	if b.bodyType != Dynamic {
		b.mass, b.invMass = math.Inf(1), 0
		b.inertia, b.invInertia = math.Inf(1), 0
		return
	}

	mass := b.massOverride
	switch b.shape.Kind {
	case ShapeCircle:
		if mass <= 0 {
			mass = b.density * cp.AreaForCircle(0, b.shape.Radius)
		}
		b.inertia = cp.MomentForCircle(mass, 0, b.shape.Radius, cp.Vector{})
	default:
		w, h := 2*b.shape.HalfExtents.X, 2*b.shape.HalfExtents.Y
		if mass <= 0 {
			mass = b.density * w * h
		}
		b.inertia = cp.MomentForBox(mass, w, h)
	}
	b.mass = mass
	b.invMass = 1 / mass
	b.invInertia = 0
	if b.inertia > 0 {
		b.invInertia = 1 / b.inertia
	}
}

// syncFromTransform reads the entity transform into simulation space
func (b *Body) syncFromTransform(ppm float64) {
	b.position = b.transform.Position.Scale(1 / ppm)
	b.rotation = b.transform.Rotation
	b.synced = b.pose()
	b.shape = b.collider.Shape().Scaled(1 / ppm)
	if b.colliderVer != b.collider.version || b.mass == 0 {
		b.updateMassData()
	}
}

// publishTransform writes simulation state back onto the entity transform.
// Static bodies and bodies whose pose did not change leave the transform
// untouched, so the pixel/meter round trip never drifts them.
func (b *Body) publishTransform(ppm float64) {
	if b.bodyType == Static || b.pose() == b.synced {
		return
	}
	b.transform.Position = b.position.Scale(ppm)
	b.transform.Rotation = b.rotation
}

// pose returns the body's placement in meters
func (b *Body) pose() Transform {
	return Transform{Position: b.position, Rotation: b.rotation}
}

// Bounds returns the body's world AABB in meters
func (b *Body) Bounds() AABB {
	return b.shape.Bounds(b.pose())
}

// Entity returns the scene handle the body is attached to
func (b *Body) Entity() EntityID {
	return b.entity
}

// Transform returns the entity-owned transform
func (b *Body) Transform() *Transform {
	return b.transform
}

// Collider returns the body's collider
func (b *Body) Collider() *Collider {
	return b.collider
}

// Type returns the body type
func (b *Body) Type() BodyType {
	return b.bodyType
}

// SetType changes the body type. It fails with ErrMidStep while the owning
// world is stepping.
func (b *Body) SetType(t BodyType) error {
	if t > Dynamic {
		return fmt.Errorf("body type %d: %w", t, ErrInvalidBodyDef)
	}
	if b.world != nil && b.world.stepping {
		return ErrMidStep
	}
	if t == Dynamic && b.massOverride <= 0 && b.density <= 0 {
		return fmt.Errorf("dynamic body needs a positive mass or density: %w", ErrInvalidBodyDef)
	}
	b.bodyType = t
	b.updateMassData()
	return nil
}

// Mass returns the body mass in kg; +Inf for static and kinematic bodies
func (b *Body) Mass() float64 {
	return b.mass
}

// InverseMass returns 1/mass, zero for static and kinematic bodies
func (b *Body) InverseMass() float64 {
	return b.invMass
}

// Inertia returns the moment of inertia about the center in kg·m²
func (b *Body) Inertia() float64 {
	return b.inertia
}

// Velocity returns the linear velocity in m/s
func (b *Body) Velocity() Vector2D {
	return b.velocity
}

// SetVelocity overrides the linear velocity in m/s
func (b *Body) SetVelocity(v Vector2D) {
	b.velocity = v
}

// AngularVelocity returns the angular velocity in rad/s
func (b *Body) AngularVelocity() float64 {
	return b.angularVelocity
}

// SetAngularVelocity overrides the angular velocity in rad/s
func (b *Body) SetAngularVelocity(w float64) {
	b.angularVelocity = w
}

// Restitution returns the elasticity in [0,1]
func (b *Body) Restitution() float64 {
	return b.restitution
}

// SetRestitution sets the elasticity, clamped to [0,1]
func (b *Body) SetRestitution(e float64) {
	b.restitution = Clamp(e, 0, 1)
}

// Friction returns the friction coefficient in [0,1]
func (b *Body) Friction() float64 {
	return b.friction
}

// SetFriction sets the friction coefficient, clamped to [0,1]
func (b *Body) SetFriction(f float64) {
	b.friction = Clamp(f, 0, 1)
}

// LinearDamping returns the velocity damping rate per second
func (b *Body) LinearDamping() float64 {
	return b.damping
}

// Position returns the simulation-space position in meters
func (b *Body) Position() Vector2D {
	return b.position
}

// ApplyImpulse changes velocity by impulse·invMass. Bodies with zero inverse
// mass are unaffected. Angular response is not modeled, so contact is only
// accepted for call-site symmetry with the resolver.
func (b *Body) ApplyImpulse(impulse Vector2D, contact Vector2D) {
	if b.invMass == 0 {
		return
	}
	b.velocity = b.velocity.Add(impulse.Scale(b.invMass))
}
