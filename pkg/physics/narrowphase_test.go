// pkg/physics/narrowphase_test.go
package physics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func circleShape(r float64) ShapeData {
	return ShapeData{Kind: ShapeCircle, Radius: r}
}

func boxShape(hw, hh float64) ShapeData {
	return ShapeData{Kind: ShapeBox, HalfExtents: Vector2D{X: hw, Y: hh}}
}

func at(x, y float64) Transform {
	return Transform{Position: Vector2D{X: x, Y: y}}
}

func TestDetect_CircleCircle(t *testing.T) {
	tests := []struct {
		name   string
		r1, r2 float64
		d      float64
		angle  float64
	}{
		{"overlapping", 1, 2, 2.5, 0},
		{"barely_overlapping", 1, 1, 1.999, math.Pi / 3},
		{"touching", 1, 1, 2, 0},
		{"separate", 0.5, 0.5, 3, 1},
		{"deep", 3, 2, 0.5, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := FromAngle(tt.angle, tt.d)
			c, ok := Detect(circleShape(tt.r1), at(1, 1), circleShape(tt.r2), at(1+offset.X, 1+offset.Y))

			want := tt.d < tt.r1+tt.r2
			if ok != want {
				t.Fatalf("Detect() ok = %v, want %v", ok, want)
			}
			if !ok {
				return
			}
			if !scalar.EqualWithinAbs(c.Penetration, tt.r1+tt.r2-tt.d, 1e-9) {
				t.Errorf("penetration = %v, want %v", c.Penetration, tt.r1+tt.r2-tt.d)
			}
			if !c.Normal.ApproxEqual(FromAngle(tt.angle, 1), 1e-9) {
				t.Errorf("normal = %v, want %v", c.Normal, FromAngle(tt.angle, 1))
			}
		})
	}
}

func TestDetect_CoincidentCirclesUseFallbackAxis(t *testing.T) {
	c, ok := Detect(circleShape(1), at(5, 5), circleShape(2), at(5, 5))

	if !ok {
		t.Fatal("coincident circles must collide")
	}
	if c.Normal != fallbackNormal {
		t.Errorf("normal = %v, want %v", c.Normal, fallbackNormal)
	}
	if c.Penetration != 3 {
		t.Errorf("penetration = %v, want 3", c.Penetration)
	}
	if !c.Normal.IsFinite() || !c.Point.IsFinite() {
		t.Error("contact must be finite")
	}
}

func TestDetect_CircleBox(t *testing.T) {
	box := boxShape(2, 1)

	tests := []struct {
		name        string
		circle      Transform
		box         Transform
		ok          bool
		normal      Vector2D
		penetration float64
	}{
		{
			name:        "above_face",
			circle:      at(0, -1.5),
			box:         at(0, 0),
			ok:          true,
			normal:      Vector2D{X: 0, Y: 1},
			penetration: 0.5,
		},
		{
			name:   "clear_of_face",
			circle: at(0, -2.5),
			box:    at(0, 0),
			ok:     false,
		},
		{
			name:        "corner",
			circle:      at(2.5, 1.5),
			box:         at(0, 0),
			ok:          true,
			normal:      Vector2D{X: -1, Y: -1}.Normalize(),
			penetration: 1 - math.Sqrt(0.5),
		},
		{
			name:        "center_inside_prefers_nearest_face",
			circle:      at(1.8, 0),
			box:         at(0, 0),
			ok:          true,
			normal:      Vector2D{X: -1, Y: 0},
			penetration: 1 + 0.2,
		},
		{
			name:        "center_inside_tie_prefers_horizontal",
			circle:      at(1.5, 0.5),
			box:         at(0, 0),
			ok:          true,
			normal:      Vector2D{X: -1, Y: 0},
			penetration: 1.5,
		},
		{
			name:        "rotated_box",
			circle:      at(-1.5, 0),
			box:         Transform{Rotation: math.Pi / 2},
			ok:          true,
			normal:      Vector2D{X: 1, Y: 0},
			penetration: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Detect(circleShape(1), tt.circle, box, tt.box)
			if ok != tt.ok {
				t.Fatalf("Detect() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !c.Normal.ApproxEqual(tt.normal, 1e-9) {
				t.Errorf("normal = %v, want %v", c.Normal, tt.normal)
			}
			if !scalar.EqualWithinAbs(c.Penetration, tt.penetration, 1e-9) {
				t.Errorf("penetration = %v, want %v", c.Penetration, tt.penetration)
			}
		})
	}
}

func TestDetect_CircleBoxDegenerateGeometry(t *testing.T) {
	tests := []struct {
		name        string
		circle      Transform
		box         ShapeData
		boxAt       Transform
		normal      Vector2D
		penetration float64
	}{
		{
			// the offset from the face underflows when squared
			name:        "center_a_hair_outside_face",
			circle:      at(2e-200, 0),
			box:         boxShape(1e-200, 1),
			boxAt:       at(0, 0),
			normal:      Vector2D{X: -1, Y: 0},
			penetration: 1,
		},
		{
			name:        "quarter_turn_inside_tie_prefers_horizontal",
			circle:      at(0.5, 0.5),
			box:         boxShape(1, 1),
			boxAt:       Transform{Rotation: math.Pi / 2},
			normal:      Vector2D{X: -1, Y: 0},
			penetration: 1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Detect(circleShape(1), tt.circle, tt.box, tt.boxAt)
			if !ok {
				t.Fatal("expected contact")
			}
			if !c.Normal.IsFinite() || !isFinite(c.Penetration) {
				t.Fatalf("non-finite contact %+v", c)
			}
			if !c.Normal.ApproxEqual(tt.normal, 1e-9) {
				t.Errorf("normal = %v, want %v", c.Normal, tt.normal)
			}
			if !scalar.EqualWithinAbs(c.Penetration, tt.penetration, 1e-9) {
				t.Errorf("penetration = %v, want %v", c.Penetration, tt.penetration)
			}
		})
	}
}

func TestDetect_BoxCircleMirrorsCircleBox(t *testing.T) {
	cb, ok1 := Detect(circleShape(1), at(0, -1.5), boxShape(2, 1), at(0, 0))
	bc, ok2 := Detect(boxShape(2, 1), at(0, 0), circleShape(1), at(0, -1.5))

	if !ok1 || !ok2 {
		t.Fatal("both orders must collide")
	}
	if bc.Normal != cb.Normal.Neg() {
		t.Errorf("box-circle normal = %v, want %v", bc.Normal, cb.Normal.Neg())
	}
	if bc.Penetration != cb.Penetration || bc.Point != cb.Point {
		t.Errorf("box-circle contact %+v differs from circle-box %+v", bc, cb)
	}
}

func TestDetect_BoxBox(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Transform
		ok          bool
		normal      Vector2D
		penetration float64
	}{
		{
			name:        "vertical_overlap",
			a:           at(0, 0),
			b:           at(0.5, 1.8),
			ok:          true,
			normal:      Vector2D{X: 0, Y: 1},
			penetration: 0.2,
		},
		{
			name:        "horizontal_overlap",
			a:           at(0, 0),
			b:           at(-1.7, 0.2),
			ok:          true,
			normal:      Vector2D{X: -1, Y: 0},
			penetration: 0.3,
		},
		{
			name:        "equal_overlap_prefers_horizontal",
			a:           at(0, 0),
			b:           at(1.5, 1.5),
			ok:          true,
			normal:      Vector2D{X: 1, Y: 0},
			penetration: 0.5,
		},
		{
			name:        "quarter_turn_tie_prefers_horizontal",
			a:           Transform{Rotation: math.Pi / 2},
			b:           at(1, 1),
			ok:          true,
			normal:      Vector2D{X: 1, Y: 0},
			penetration: 1,
		},
		{
			name:        "negative_quarter_turn_tie_prefers_horizontal",
			a:           Transform{Rotation: -math.Pi / 2},
			b:           at(-1, 1),
			ok:          true,
			normal:      Vector2D{X: -1, Y: 0},
			penetration: 1,
		},
		{
			name: "touching_is_not_overlap",
			a:    at(0, 0),
			b:    at(2, 0),
			ok:   false,
		},
		{
			name: "rotated_separated",
			a:    at(0, 0),
			b:    Transform{Position: Vector2D{X: 2.5, Y: 0}, Rotation: math.Pi / 4},
			ok:   false,
		},
		{
			name:        "rotated_overlap",
			a:           at(0, 0),
			b:           Transform{Position: Vector2D{X: 2.2, Y: 0}, Rotation: math.Pi / 4},
			ok:          true,
			normal:      Vector2D{X: 1, Y: 0},
			penetration: math.Sqrt2 - 1.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Detect(boxShape(1, 1), tt.a, boxShape(1, 1), tt.b)
			if ok != tt.ok {
				t.Fatalf("Detect() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !c.Normal.ApproxEqual(tt.normal, 1e-9) {
				t.Errorf("normal = %v, want %v", c.Normal, tt.normal)
			}
			if !scalar.EqualWithinAbs(c.Penetration, tt.penetration, 1e-9) {
				t.Errorf("penetration = %v, want %v", c.Penetration, tt.penetration)
			}
		})
	}
}

func TestDetect_Idempotent(t *testing.T) {
	pairs := []struct {
		a, b   ShapeData
		ta, tb Transform
	}{
		{circleShape(1), circleShape(1), at(0, 0), at(1.2, 0.7)},
		{circleShape(1), boxShape(2, 1), at(0.3, -1.4), Transform{Rotation: 0.3}},
		{boxShape(1, 2), boxShape(1, 1), at(0, 0), Transform{Position: Vector2D{X: 1.5, Y: 0.5}, Rotation: 0.7}},
	}

	for _, p := range pairs {
		first, ok1 := Detect(p.a, p.ta, p.b, p.tb)
		second, ok2 := Detect(p.a, p.ta, p.b, p.tb)
		if !ok1 || !ok2 {
			t.Fatalf("expected contact for %v vs %v", p.a.Kind, p.b.Kind)
		}
		if first != second {
			t.Errorf("%v vs %v: %+v then %+v", p.a.Kind, p.b.Kind, first, second)
		}
	}
}

func TestCandidatePairs_RegistrationOrder(t *testing.T) {
	mk := func(id EntityID, x float64) *Body {
		return newBody(id, &Transform{Position: Vector2D{X: x}}, BodyDef{Type: Static, Collider: mustCircle(t, 40)}, 64)
	}
	bodies := []*Body{mk(1, 0), mk(2, 1000), mk(3, 60), mk(4, 30)}

	pairs := candidatePairs(bodies)

	want := [][2]EntityID{{1, 3}, {1, 4}, {3, 4}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i, p := range pairs {
		if p.a.entity != want[i][0] || p.b.entity != want[i][1] {
			t.Errorf("pair %d = (%d,%d), want %v", i, p.a.entity, p.b.entity, want[i])
		}
	}
}
