// pkg/physics/collider.go
package physics

import (
	"fmt"
	"math"
)

// ShapeKind tags the geometry held by a Collider
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeBox

	shapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapeBox:
		return "box"
	default:
		return fmt.Sprintf("shape(%d)", k)
	}
}

// ParseShapeKind converts a configuration name into a ShapeKind
func ParseShapeKind(s string) (ShapeKind, error) {
	switch s {
	case "circle":
		return ShapeCircle, nil
	case "box":
		return ShapeBox, nil
	default:
		return 0, fmt.Errorf("unknown shape kind %q", s)
	}
}

// AABB is an axis-aligned bounding box
type AABB struct {
	Min Vector2D
	Max Vector2D
}

// Overlaps reports whether two boxes intersect or touch
func (b AABB) Overlaps(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y
}

// Contains reports whether point lies inside the box
func (b AABB) Contains(point Vector2D) bool {
	return point.X >= b.Min.X && point.X <= b.Max.X &&
		point.Y >= b.Min.Y && point.Y <= b.Max.Y
}

// Translate moves the box by offset
func (b AABB) Translate(offset Vector2D) AABB {
	return AABB{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Center returns the midpoint of the box
func (b AABB) Center() Vector2D {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Intersection returns the overlapping region of two boxes.
// The result is only meaningful when Overlaps is true.
func (b AABB) Intersection(other AABB) AABB {
	return AABB{
		Min: Vector2D{X: math.Max(b.Min.X, other.Min.X), Y: math.Max(b.Min.Y, other.Min.Y)},
		Max: Vector2D{X: math.Min(b.Max.X, other.Max.X), Y: math.Min(b.Max.Y, other.Max.Y)},
	}
}

// ShapeData is the plain geometry of a collider in a single unit system.
// HalfExtents is unused for circles and Radius for boxes.
type ShapeData struct {
	Kind        ShapeKind
	Radius      float64
	HalfExtents Vector2D
}

// Scaled returns the shape with every dimension multiplied by factor
func (s ShapeData) Scaled(factor float64) ShapeData {
	return ShapeData{
		Kind:        s.Kind,
		Radius:      s.Radius * factor,
		HalfExtents: s.HalfExtents.Scale(factor),
	}
}

// Area returns the shape's area in squared units
func (s ShapeData) Area() float64 {
	if s.Kind == ShapeCircle {
		return math.Pi * s.Radius * s.Radius
	}
	return 4 * s.HalfExtents.X * s.HalfExtents.Y
}

// Bounds returns the AABB of the shape placed at t.
// Boxes use the bounds of their rotated rectangle.
func (s ShapeData) Bounds(t Transform) AABB {
	var ext Vector2D
	switch s.Kind {
	case ShapeCircle:
		ext = Vector2D{X: s.Radius, Y: s.Radius}
	default:
		cos := math.Abs(math.Cos(t.Rotation))
		sin := math.Abs(math.Sin(t.Rotation))
		ext = Vector2D{
			X: s.HalfExtents.X*cos + s.HalfExtents.Y*sin,
			Y: s.HalfExtents.X*sin + s.HalfExtents.Y*cos,
		}
	}
	return AABB{Min: t.Position.Sub(ext), Max: t.Position.Add(ext)}
}

// ContainsPoint reports whether point lies inside the shape placed at t
func (s ShapeData) ContainsPoint(t Transform, point Vector2D) bool {
	local := point.Sub(t.Position)
	if s.Kind == ShapeCircle {
		return local.LengthSquared() <= s.Radius*s.Radius
	}
	local = local.Rotate(-t.Rotation)
	return math.Abs(local.X) <= s.HalfExtents.X && math.Abs(local.Y) <= s.HalfExtents.Y
}

// Collider is the geometric shape attached to a body, in local pixel units.
// It has no position of its own; it is evaluated against the owning body's transform.
type Collider struct {
	shape   ShapeData
	bounds  AABB
	version uint64
}

// NewCircleCollider creates a circle collider with the given radius
func NewCircleCollider(radius float64) (*Collider, error) {
	if err := validateDimension("radius", radius); err != nil {
		return nil, err
	}
	c := &Collider{shape: ShapeData{Kind: ShapeCircle, Radius: radius}}
	c.recalculateBounds()
	return c, nil
}

// NewBoxCollider creates a box collider from half its width and height
func NewBoxCollider(halfWidth, halfHeight float64) (*Collider, error) {
	if err := validateDimension("half width", halfWidth); err != nil {
		return nil, err
	}
	if err := validateDimension("half height", halfHeight); err != nil {
		return nil, err
	}
	c := &Collider{shape: ShapeData{Kind: ShapeBox, HalfExtents: Vector2D{X: halfWidth, Y: halfHeight}}}
	c.recalculateBounds()
	return c, nil
}

func validateDimension(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%s %v: %w", name, v, ErrInvalidDimensions)
	}
	return nil
}

// Kind returns the collider's shape kind
func (c *Collider) Kind() ShapeKind {
	return c.shape.Kind
}

// Radius returns the circle radius, or zero for boxes
func (c *Collider) Radius() float64 {
	return c.shape.Radius
}

// HalfExtents returns the box half-extents, or the zero vector for circles
func (c *Collider) HalfExtents() Vector2D {
	return c.shape.HalfExtents
}

// Shape returns a copy of the collider geometry in local units
func (c *Collider) Shape() ShapeData {
	return c.shape
}

// LocalBounds returns the collider's bounding box in local space
func (c *Collider) LocalBounds() AABB {
	return c.bounds
}

// ResizeCircle changes the radius of a circle collider
func (c *Collider) ResizeCircle(radius float64) error {
	if c.shape.Kind != ShapeCircle {
		return fmt.Errorf("resize circle on %s collider: %w", c.shape.Kind, ErrInvalidDimensions)
	}
	if err := validateDimension("radius", radius); err != nil {
		return err
	}
	c.shape.Radius = radius
	c.recalculateBounds()
	return nil
}

// ResizeBox changes the half-extents of a box collider
func (c *Collider) ResizeBox(halfWidth, halfHeight float64) error {
	if c.shape.Kind != ShapeBox {
		return fmt.Errorf("resize box on %s collider: %w", c.shape.Kind, ErrInvalidDimensions)
	}
	if err := validateDimension("half width", halfWidth); err != nil {
		return err
	}
	if err := validateDimension("half height", halfHeight); err != nil {
		return err
	}
	c.shape.HalfExtents = Vector2D{X: halfWidth, Y: halfHeight}
	c.recalculateBounds()
	return nil
}

func (c *Collider) recalculateBounds() {
	c.bounds = c.shape.Bounds(Transform{})
	c.version++
}
