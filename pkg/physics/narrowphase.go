// pkg/physics/narrowphase.go
package physics

import (
	"math"
	"sort"
)

// tieTolerance is the penetration difference below which two candidate
// axes are treated as equal; the horizontal axis then wins.
const tieTolerance = 1e-9

// fallbackNormal is used when two shapes give no usable direction, for
// example circles spawned on the same point.
var fallbackNormal = Vector2D{X: 1, Y: 0}

// Contact is the geometric result of one overlap test.
// Normal is a unit vector pointing from the first shape to the second.
type Contact struct {
	Normal      Vector2D
	Penetration float64
	Point       Vector2D
}

// Manifold is one contact between two registered bodies in a tick.
// All values are in meters; it is recomputed every tick.
type Manifold struct {
	BodyA *Body
	BodyB *Body
	Contact
}

// detectFunc tests two shapes in the same unit system
type detectFunc func(a ShapeData, ta Transform, b ShapeData, tb Transform) (Contact, bool)

// detectors is indexed by the ordered pair of shape kinds. Adding a shape
// kind means filling its row and column.
var detectors = [shapeKindCount][shapeKindCount]detectFunc{
	ShapeCircle: {
		ShapeCircle: circleCircle,
		ShapeBox:    circleBox,
	},
	ShapeBox: {
		ShapeCircle: boxCircle,
		ShapeBox:    boxBox,
	},
}

// Detect runs the exact overlap test for two placed shapes. It is pure: the
// same inputs always produce the same contact.
func Detect(a ShapeData, ta Transform, b ShapeData, tb Transform) (Contact, bool) {
	if a.Kind >= shapeKindCount || b.Kind >= shapeKindCount {
		return Contact{}, false
	}
	return detectors[a.Kind][b.Kind](a, ta, b, tb)
}

// detectBodies tests two bodies using their simulation-space state
func detectBodies(a, b *Body) (Manifold, bool) {
	c, ok := Detect(a.shape, a.pose(), b.shape, b.pose())
	if !ok {
		return Manifold{}, false
	}
	return Manifold{BodyA: a, BodyB: b, Contact: c}, true
}

func circleCircle(a ShapeData, ta Transform, b ShapeData, tb Transform) (Contact, bool) {
	delta := tb.Position.Sub(ta.Position)
	distSq := delta.LengthSquared()
	radii := a.Radius + b.Radius

	if distSq >= radii*radii {
		return Contact{}, false
	}

	distance := math.Sqrt(distSq)
	normal := fallbackNormal
	if distance > Epsilon {
		normal = delta.Scale(1 / distance)
	}

	return Contact{
		Normal:      normal,
		Penetration: radii - distance,
		Point:       ta.Position.Add(normal.Scale(a.Radius)),
	}, true
}

// circleBox tests circle a against box b. The circle center is moved into
// the box frame and clamped to find the nearest point on the box.
func circleBox(a ShapeData, ta Transform, b ShapeData, tb Transform) (Contact, bool) {
	h := b.HalfExtents
	local := ta.Position.Sub(tb.Position).Rotate(-tb.Rotation)
	nearest := Vector2D{
		X: Clamp(local.X, -h.X, h.X),
		Y: Clamp(local.Y, -h.Y, h.Y),
	}

	var outward Vector2D // box to circle, box frame
	var penetration float64

	inside := nearest == local
	if !inside {
		diff := local.Sub(nearest)
		distSq := diff.LengthSquared()
		if distSq >= a.Radius*a.Radius {
			return Contact{}, false
		}
		distance := math.Sqrt(distSq)
		if distance > Epsilon {
			outward = diff.Scale(1 / distance)
			penetration = a.Radius - distance
		} else {
			// on the surface: no usable direction, use the face
			inside = true
		}
	}
	if inside {
		// leave through the closest face; ties take the face whose
		// normal is closer to world horizontal
		dx := h.X - math.Abs(local.X)
		dy := h.Y - math.Abs(local.Y)
		useX := dx < dy-tieTolerance
		if math.Abs(dx-dy) <= tieTolerance {
			useX = math.Abs(math.Cos(tb.Rotation)) >= math.Abs(math.Sin(tb.Rotation))-tieTolerance
		}
		if useX {
			outward = Vector2D{X: sign(local.X)}
			nearest = Vector2D{X: sign(local.X) * h.X, Y: local.Y}
			penetration = a.Radius + dx
		} else {
			outward = Vector2D{Y: sign(local.Y)}
			nearest = Vector2D{X: local.X, Y: sign(local.Y) * h.Y}
			penetration = a.Radius + dy
		}
	}

	return Contact{
		Normal:      outward.Rotate(tb.Rotation).Neg(),
		Penetration: penetration,
		Point:       nearest.Rotate(tb.Rotation).Add(tb.Position),
	}, true
}

func boxCircle(a ShapeData, ta Transform, b ShapeData, tb Transform) (Contact, bool) {
	c, ok := circleBox(b, tb, a, ta)
	if !ok {
		return Contact{}, false
	}
	c.Normal = c.Normal.Neg()
	return c, true
}

// boxBox is a separating-axis test over the axes of both boxes. Aligned
// boxes share axes, so only the first box's two axes are tested. Axes are
// ordered by world horizontal component so equal penetrations resolve
// horizontally whatever the boxes' rotation.
func boxBox(a ShapeData, ta Transform, b ShapeData, tb Transform) (Contact, bool) {
	ax, ay := boxAxes(ta.Rotation)
	bx, by := boxAxes(tb.Rotation)

	axes := []Vector2D{ax, ay}
	if math.Abs(math.Remainder(ta.Rotation-tb.Rotation, math.Pi/2)) > tieTolerance {
		axes = []Vector2D{ax, bx, ay, by}
	}
	sort.SliceStable(axes, func(i, j int) bool {
		return math.Abs(axes[i].X) > math.Abs(axes[j].X)+tieTolerance
	})

	delta := tb.Position.Sub(ta.Position)
	bestOverlap := math.Inf(1)
	var bestNormal Vector2D

	for _, axis := range axes {
		ra := a.HalfExtents.X*math.Abs(ax.Dot(axis)) + a.HalfExtents.Y*math.Abs(ay.Dot(axis))
		rb := b.HalfExtents.X*math.Abs(bx.Dot(axis)) + b.HalfExtents.Y*math.Abs(by.Dot(axis))
		d := delta.Dot(axis)
		overlap := ra + rb - math.Abs(d)
		if overlap <= 0 {
			return Contact{}, false
		}
		if overlap < bestOverlap-tieTolerance {
			bestOverlap = overlap
			bestNormal = axis.Scale(sign(d))
		}
	}

	region := a.Bounds(ta).Intersection(b.Bounds(tb))
	return Contact{
		Normal:      bestNormal,
		Penetration: bestOverlap,
		Point:       region.Center(),
	}, true
}

// boxAxes returns the local x and y axes of a box rotated by angle
func boxAxes(angle float64) (Vector2D, Vector2D) {
	x := FromAngle(angle, 1)
	return x, x.Perp()
}
