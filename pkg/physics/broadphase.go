package physics

// pair is a candidate body pair in registration order (a before b)
type pair struct {
	a, b *Body
}

// candidatePairs returns every unordered pair whose world bounds overlap,
// i before j in registration order.
func candidatePairs(bodies []*Body) []pair {
	bounds := make([]AABB, len(bodies))
	for i, b := range bodies {
		bounds[i] = b.Bounds()
	}

	var pairs []pair
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if bounds[i].Overlaps(bounds[j]) {
				pairs = append(pairs, pair{a: bodies[i], b: bodies[j]})
			}
		}
	}
	return pairs
}
