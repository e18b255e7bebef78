// pkg/physics/resolver.go
package physics

import "math"

// resolveManifold applies the normal impulse, the friction impulse and the
// positional correction for one contact. Manifolds are resolved one at a
// time in a single pass; no manifold is recomputed after another is applied.
func resolveManifold(m *Manifold, s Settings) {
	a, b := m.BodyA, m.BodyB
	invMassSum := a.invMass + b.invMass
	if invMassSum == 0 {
		return
	}

	relative := b.velocity.Sub(a.velocity)
	velAlongNormal := relative.Dot(m.Normal)

	// separating pairs skip the impulse but still get positional correction
	if velAlongNormal <= 0 {
		restitution := math.Min(a.restitution, b.restitution)
		j := -(1 + restitution) * velAlongNormal / invMassSum
		impulse := m.Normal.Scale(j)
		a.ApplyImpulse(impulse.Neg(), m.Point)
		b.ApplyImpulse(impulse, m.Point)

		applyFriction(m, a, b, j, invMassSum)
	}

	correctPositions(m, invMassSum, s)
}

// applyFriction applies a Coulomb friction impulse along the contact
// tangent, bounded by mu times the normal impulse.
func applyFriction(m *Manifold, a, b *Body, normalImpulse, invMassSum float64) {
	mu := math.Sqrt(a.friction * b.friction)
	if mu == 0 || normalImpulse <= 0 {
		return
	}

	relative := b.velocity.Sub(a.velocity)
	tangent := relative.Sub(m.Normal.Scale(relative.Dot(m.Normal))).Normalize()
	if tangent == (Vector2D{}) {
		return
	}

	jt := -relative.Dot(tangent) / invMassSum
	limit := normalImpulse * mu
	jt = Clamp(jt, -limit, limit)

	impulse := tangent.Scale(jt)
	a.ApplyImpulse(impulse.Neg(), m.Point)
	b.ApplyImpulse(impulse, m.Point)
}

// correctPositions pushes the bodies apart along the normal in proportion to
// their inverse masses, removing a fraction of the penetration beyond slop.
func correctPositions(m *Manifold, invMassSum float64, s Settings) {
	depth := math.Max(m.Penetration-s.CorrectionSlop, 0)
	if depth == 0 {
		return
	}
	correction := m.Normal.Scale(depth / invMassSum * s.CorrectionPercent)

	if m.BodyA.invMass > 0 {
		m.BodyA.position = m.BodyA.position.Sub(correction.Scale(m.BodyA.invMass))
	}
	if m.BodyB.invMass > 0 {
		m.BodyB.position = m.BodyB.position.Add(correction.Scale(m.BodyB.invMass))
	}
}
