package physics

import "math"

// Integrate advances the body by dt seconds using semi-implicit Euler:
// velocity first, then position from the new velocity. Static bodies never
// move and kinematic bodies ignore gravity and damping.
func (b *Body) Integrate(dt float64, gravity Vector2D) {
	switch b.bodyType {
	case Static:
		return
	case Dynamic:
		b.velocity = b.velocity.Add(gravity.Scale(dt))
		if b.damping > 0 {
			b.velocity = b.velocity.Scale(1 / (1 + dt*b.damping))
		}
	}

	b.position = b.position.Add(b.velocity.Scale(dt))
	b.rotation += b.angularVelocity * dt
}

// instability describes one field that was clamped after integration
type instability struct {
	body  *Body
	field string
	value float64
}

// sanitize clamps non-finite state after integration. NaN velocity
// components become zero and infinite ones the signed limit; NaN positions
// fall back to prev and infinite ones to the signed coordinate limit.
func (b *Body) sanitize(prev Transform, limits Settings) []instability {
	var found []instability
	report := func(field string, value float64) {
		found = append(found, instability{body: b, field: field, value: value})
	}

	if !b.velocity.IsFinite() {
		if !isFinite(b.velocity.X) {
			report("velocity_x", b.velocity.X)
			b.velocity.X = clampNonFinite(b.velocity.X, 0, limits.MaxVelocity)
		}
		if !isFinite(b.velocity.Y) {
			report("velocity_y", b.velocity.Y)
			b.velocity.Y = clampNonFinite(b.velocity.Y, 0, limits.MaxVelocity)
		}
		if l := b.velocity.Length(); l > limits.MaxVelocity {
			b.velocity = b.velocity.Scale(limits.MaxVelocity / l)
		}
	}

	if !isFinite(b.angularVelocity) {
		report("angular_velocity", b.angularVelocity)
		b.angularVelocity = 0
	}

	if !isFinite(b.position.X) {
		report("position_x", b.position.X)
		b.position.X = clampNonFinite(b.position.X, prev.Position.X, limits.MaxCoordinate)
	}
	if !isFinite(b.position.Y) {
		report("position_y", b.position.Y)
		b.position.Y = clampNonFinite(b.position.Y, prev.Position.Y, limits.MaxCoordinate)
	}
	if !isFinite(b.rotation) {
		report("rotation", b.rotation)
		b.rotation = prev.Rotation
		if !isFinite(b.rotation) {
			b.rotation = 0
		}
	}

	return found
}

// clampNonFinite maps NaN to fallback (or zero when fallback is itself
// unusable) and ±Inf to ±limit.
func clampNonFinite(v, fallback, limit float64) float64 {
	if math.IsInf(v, 0) {
		return sign(v) * limit
	}
	if isFinite(fallback) {
		return Clamp(fallback, -limit, limit)
	}
	return 0
}
