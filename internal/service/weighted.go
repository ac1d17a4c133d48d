package service

import "math/rand/v2"

// Candidate is a value and its relative selection weight
type Candidate struct {
	Value  string
	Weight int
}

// WeightedChoice draws one candidate with probability Weight/sum(Weight).
// Candidates are walked in the order given. The first candidate is returned when
// every weight is zero, and when rounding leaves a remainder after the last one.
// Negative weights count as zero. An empty list yields "".
func WeightedChoice(rng *rand.Rand, candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	total := 0
	for _, c := range candidates {
		total += max(c.Weight, 0)
	}
	if total <= 0 {
		return candidates[0].Value
	}

	draw := rng.Float64() * float64(total)
	for _, c := range candidates {
		draw -= float64(max(c.Weight, 0))
		if draw <= 0 {
			return c.Value
		}
	}
	return candidates[0].Value
}

// PickWeighted draws one of values using a question's weight table.
// Values without a configured weight have weight zero.
func PickWeighted(rng *rand.Rand, values []string, weights map[string]int) string {
	candidates := make([]Candidate, len(values))
	for i, v := range values {
		candidates[i] = Candidate{Value: v, Weight: weights[v]}
	}
	return WeightedChoice(rng, candidates)
}
