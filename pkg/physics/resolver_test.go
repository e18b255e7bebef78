// pkg/physics/resolver_test.go
package physics

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// meters positions bodies directly in meters with a ppm of 1
func meterBody(t *testing.T, id EntityID, bt BodyType, c *Collider, x, y float64, def BodyDef) *Body {
	t.Helper()
	def.Type = bt
	def.Collider = c
	return newBody(id, &Transform{Position: Vector2D{X: x, Y: y}}, def, 1)
}

func zeroGravity() Settings {
	s := DefaultSettings()
	s.Gravity = Vector2D{}
	return s
}

func TestResolve_ElasticHeadOnConservesMomentumAndEnergy(t *testing.T) {
	tests := []struct {
		name     string
		va, vb   Vector2D
		settings Settings
	}{
		{"symmetric", Vector2D{X: 1}, Vector2D{X: -1}, zeroGravity()},
		{"one_at_rest", Vector2D{X: 3}, Vector2D{}, zeroGravity()},
		{"same_direction", Vector2D{X: 5}, Vector2D{X: 2}, zeroGravity()},
		{"slow_under_gravity", Vector2D{X: 0.05}, Vector2D{X: -0.05}, DefaultSettings()},
		{"vertical_under_gravity", Vector2D{Y: 0.1}, Vector2D{Y: -0.02}, DefaultSettings()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := BodyDef{Mass: 2, Restitution: 1}
			a := meterBody(t, 1, Dynamic, mustCircle(t, 1), 0, 0, def)
			offset := tt.va.Sub(tt.vb).Normalize().Scale(1.9)
			b := meterBody(t, 2, Dynamic, mustCircle(t, 1), offset.X, offset.Y, def)
			a.velocity, b.velocity = tt.va, tt.vb

			m, ok := detectBodies(a, b)
			if !ok {
				t.Fatal("expected contact")
			}

			momentum := func() Vector2D { return a.velocity.Scale(a.mass).Add(b.velocity.Scale(b.mass)) }
			energy := func() float64 {
				return 0.5*a.mass*a.velocity.LengthSquared() + 0.5*b.mass*b.velocity.LengthSquared()
			}
			p0, e0 := momentum(), energy()

			resolveManifold(&m, tt.settings)

			if !momentum().ApproxEqual(p0, 1e-9) {
				t.Errorf("momentum %v, want %v", momentum(), p0)
			}
			if !scalar.EqualWithinAbs(energy(), e0, 1e-12) {
				t.Errorf("kinetic energy %v, want %v", energy(), e0)
			}
			// equal masses swap velocities
			if !a.velocity.ApproxEqual(tt.vb, 1e-9) || !b.velocity.ApproxEqual(tt.va, 1e-9) {
				t.Errorf("velocities after = %v, %v", a.velocity, b.velocity)
			}
		})
	}
}

func TestResolve_UsesLowerRestitution(t *testing.T) {
	a := meterBody(t, 1, Dynamic, mustCircle(t, 1), 0, 0, BodyDef{Mass: 1, Restitution: 1})
	b := meterBody(t, 2, Static, mustBox(t, 1, 1), 1.9, 0, BodyDef{Restitution: 0.5})
	a.velocity = Vector2D{X: 4}

	m, _ := detectBodies(a, b)
	resolveManifold(&m, zeroGravity())

	if !a.velocity.ApproxEqual(Vector2D{X: -2}, 1e-9) {
		t.Errorf("velocity after bounce = %v, want (-2,0)", a.velocity)
	}
}

func TestResolve_StaticPartnerNeverMoves(t *testing.T) {
	floor := meterBody(t, 1, Static, mustBox(t, 5, 0.5), 0, 1, BodyDef{Restitution: 1, Friction: 1})
	for _, v := range []Vector2D{{X: 0, Y: 50}, {X: -30, Y: 400}, {X: 1, Y: 1}} {
		ball := meterBody(t, 2, Dynamic, mustCircle(t, 0.5), 0, 0.2, BodyDef{Mass: 1000, Restitution: 1, Friction: 1})
		ball.velocity = v

		m, ok := detectBodies(ball, floor)
		if !ok {
			t.Fatal("expected contact")
		}
		resolveManifold(&m, DefaultSettings())

		if floor.velocity != (Vector2D{}) || floor.position != (Vector2D{X: 0, Y: 1}) {
			t.Fatalf("static body changed: velocity %v position %v", floor.velocity, floor.position)
		}
	}
}

func TestResolve_SlowContactKeepsRestitution(t *testing.T) {
	s := DefaultSettings()
	dt := 1.0 / 60
	ball := meterBody(t, 1, Dynamic, mustCircle(t, 0.5), 0, 0, BodyDef{Mass: 1, Restitution: 1})
	floor := meterBody(t, 2, Static, mustBox(t, 5, 0.5), 0, 0.995, BodyDef{Restitution: 1})
	ball.velocity = s.Gravity.Scale(dt)

	m, ok := detectBodies(ball, floor)
	if !ok {
		t.Fatal("expected contact")
	}
	resolveManifold(&m, s)

	if !scalar.EqualWithinAbs(ball.velocity.Y, -s.Gravity.Y*dt, 1e-12) {
		t.Errorf("velocity after slow bounce = %v, want (0,%v)", ball.velocity, -s.Gravity.Y*dt)
	}
}

func TestResolve_SeparatingPairSkipsImpulse(t *testing.T) {
	a := meterBody(t, 1, Dynamic, mustCircle(t, 1), 0, 0, BodyDef{Mass: 1})
	b := meterBody(t, 2, Dynamic, mustCircle(t, 1), 1.5, 0, BodyDef{Mass: 1})
	a.velocity = Vector2D{X: -1}
	b.velocity = Vector2D{X: 1}
	s := zeroGravity()

	m, _ := detectBodies(a, b)
	resolveManifold(&m, s)

	if a.velocity.X != -1 || b.velocity.X != 1 {
		t.Errorf("separating velocities changed: %v %v", a.velocity, b.velocity)
	}
	// 0.5 m penetration still gets corrected
	shift := (0.5 - s.CorrectionSlop) * s.CorrectionPercent / 2
	if !scalar.EqualWithinAbs(a.position.X, -shift, 1e-12) || !scalar.EqualWithinAbs(b.position.X, 1.5+shift, 1e-12) {
		t.Errorf("positions after correction = %v %v", a.position, b.position)
	}
}

func TestResolve_FrictionClampedByNormalImpulse(t *testing.T) {
	s := zeroGravity()
	floor := meterBody(t, 1, Static, mustBox(t, 10, 0.5), 0, 1, BodyDef{Friction: 0.25})

	tests := []struct {
		name  string
		v     Vector2D
		wantX float64
	}{
		// jn = 1, mu = 0.5, |jt| capped at 0.5
		{"sliding", Vector2D{X: 3, Y: 1}, 2.5},
		// tangential impulse 0.2 is under the cap and stops the slide
		{"sticking", Vector2D{X: 0.2, Y: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ball := meterBody(t, 2, Dynamic, mustCircle(t, 0.5), 0, 0.1, BodyDef{Mass: 1, Friction: 1})
			ball.velocity = tt.v

			m, ok := detectBodies(ball, floor)
			if !ok {
				t.Fatal("expected contact")
			}
			resolveManifold(&m, s)

			if !scalar.EqualWithinAbs(ball.velocity.Y, 0, 1e-12) {
				t.Errorf("normal velocity = %v, want 0", ball.velocity.Y)
			}
			if !scalar.EqualWithinAbs(ball.velocity.X, tt.wantX, 1e-12) {
				t.Errorf("tangential velocity = %v, want %v", ball.velocity.X, tt.wantX)
			}
		})
	}
}

func TestResolve_PositionalCorrectionWithinSlop(t *testing.T) {
	s := zeroGravity()
	a := meterBody(t, 1, Dynamic, mustCircle(t, 1), 0, 0, BodyDef{Mass: 1})
	b := meterBody(t, 2, Dynamic, mustCircle(t, 1), 2-s.CorrectionSlop/2, 0, BodyDef{Mass: 1})

	m, ok := detectBodies(a, b)
	if !ok {
		t.Fatal("expected contact")
	}
	resolveManifold(&m, s)

	if a.position != (Vector2D{}) {
		t.Errorf("penetration inside slop should not move bodies, got %v", a.position)
	}
}

func TestResolve_BothImmovable(t *testing.T) {
	a := meterBody(t, 1, Static, mustBox(t, 1, 1), 0, 0, BodyDef{})
	b := meterBody(t, 2, Kinematic, mustBox(t, 1, 1), 1, 0, BodyDef{Velocity: Vector2D{X: -1}})

	m, ok := detectBodies(a, b)
	if !ok {
		t.Fatal("expected contact")
	}
	resolveManifold(&m, DefaultSettings())

	if b.velocity != (Vector2D{X: -1}) || b.position != (Vector2D{X: 1}) {
		t.Errorf("kinematic body changed by resolver: %v %v", b.velocity, b.position)
	}
}
