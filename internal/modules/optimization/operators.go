package optimization

import (
	"math"
	"math/rand/v2"
)

// Gene bounds of every weight.
const (
	lowerBound = 0.0
	upperBound = 1.0
)

// tournament runs a binary tournament over the population and returns the
// index of the winner.
func tournament(rng *rand.Rand, members []individual) int {
	a := rng.IntN(len(members))
	b := rng.IntN(len(members))
	if better(&members[b], &members[a]) {
		return b
	}
	return a
}

// sbx applies simulated binary crossover to two parents, writing two
// children. With probability 1-prob the children are copies of the parents.
func sbx(rng *rand.Rand, p1, p2, c1, c2 []float64, prob, eta float64) {
	copy(c1, p1)
	copy(c2, p2)
	if rng.Float64() > prob {
		return
	}

	for i := range p1 {
		if rng.Float64() > 0.5 {
			continue
		}
		if math.Abs(p1[i]-p2[i]) <= 1e-14 {
			continue
		}

		y1, y2 := math.Min(p1[i], p2[i]), math.Max(p1[i], p2[i])
		delta := y2 - y1
		u := rng.Float64()

		beta := 1 + 2*(y1-lowerBound)/delta
		betaq := sbxSpread(u, beta, eta)
		v1 := 0.5 * ((y1 + y2) - betaq*delta)

		beta = 1 + 2*(upperBound-y2)/delta
		betaq = sbxSpread(u, beta, eta)
		v2 := 0.5 * ((y1 + y2) + betaq*delta)

		v1 = clip(v1)
		v2 = clip(v2)
		if rng.Float64() <= 0.5 {
			v1, v2 = v2, v1
		}
		c1[i], c2[i] = v1, v2
	}
}

// sbxSpread returns the bounded spread factor for one side of an SBX pair.
func sbxSpread(u, beta, eta float64) float64 {
	alpha := 2 - math.Pow(beta, -(eta+1))
	if u <= 1/alpha {
		return math.Pow(u*alpha, 1/(eta+1))
	}
	return math.Pow(1/(2-u*alpha), 1/(eta+1))
}

// polynomialMutation perturbs each gene with probability 1/len(genes).
func polynomialMutation(rng *rand.Rand, genes []float64, eta float64) {
	prob := 1 / float64(len(genes))
	span := upperBound - lowerBound
	power := 1 / (eta + 1)

	for i, y := range genes {
		if rng.Float64() > prob {
			continue
		}

		delta1 := (y - lowerBound) / span
		delta2 := (upperBound - y) / span
		r := rng.Float64()

		var deltaq float64
		if r < 0.5 {
			xy := 1 - delta1
			val := 2*r + (1-2*r)*math.Pow(xy, eta+1)
			deltaq = math.Pow(val, power) - 1
		} else {
			xy := 1 - delta2
			val := 2*(1-r) + 2*(r-0.5)*math.Pow(xy, eta+1)
			deltaq = 1 - math.Pow(val, power)
		}

		genes[i] = clip(y + deltaq*span)
	}
}

func clip(x float64) float64 {
	return math.Min(math.Max(x, lowerBound), upperBound)
}
