package optimization

import (
	"math"
	"sort"
)

// dominates reports whether a is no worse than b on every objective and
// strictly better on at least one (minimization).
func dominates(a, b [2]float64) bool {
	better := false
	for k := 0; k < 2; k++ {
		if a[k] > b[k] {
			return false
		}
		if a[k] < b[k] {
			better = true
		}
	}
	return better
}

// nonDominatedSort partitions members into fronts on their penalized
// objectives, sets each member's rank, and returns the fronts as index lists.
func nonDominatedSort(members []individual) [][]int {
	n := len(members)
	dominatedBy := make([]int, n)
	dominating := make([][]int, n)

	var fronts [][]int
	var current []int

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case dominates(members[i].penalized, members[j].penalized):
				dominating[i] = append(dominating[i], j)
				dominatedBy[j]++
			case dominates(members[j].penalized, members[i].penalized):
				dominating[j] = append(dominating[j], i)
				dominatedBy[i]++
			}
		}
	}

	for i := 0; i < n; i++ {
		if dominatedBy[i] == 0 {
			members[i].rank = 0
			current = append(current, i)
		}
	}

	for rank := 0; len(current) > 0; rank++ {
		fronts = append(fronts, current)
		var next []int
		for _, i := range current {
			for _, j := range dominating[i] {
				dominatedBy[j]--
				if dominatedBy[j] == 0 {
					members[j].rank = rank + 1
					next = append(next, j)
				}
			}
		}
		sort.Ints(next)
		current = next
	}

	return fronts
}

// assignCrowding computes the crowding distance of every member of one
// front: boundary points get +Inf, interior points the sum over objectives of
// the normalized gap between their neighbours.
func assignCrowding(members []individual, front []int) {
	for _, i := range front {
		members[i].crowding = 0
	}
	if len(front) <= 2 {
		for _, i := range front {
			members[i].crowding = math.Inf(1)
		}
		return
	}

	order := make([]int, len(front))
	for k := 0; k < 2; k++ {
		copy(order, front)
		sort.SliceStable(order, func(a, b int) bool {
			return members[order[a]].penalized[k] < members[order[b]].penalized[k]
		})

		lo := members[order[0]].penalized[k]
		hi := members[order[len(order)-1]].penalized[k]
		members[order[0]].crowding = math.Inf(1)
		members[order[len(order)-1]].crowding = math.Inf(1)

		span := hi - lo
		if span <= 0 {
			continue
		}
		for p := 1; p < len(order)-1; p++ {
			i := order[p]
			if math.IsInf(members[i].crowding, 1) {
				continue
			}
			members[i].crowding += (members[order[p+1]].penalized[k] - members[order[p-1]].penalized[k]) / span
		}
	}
}

// rankAndCrowd runs the full ranking procedure over a population.
func rankAndCrowd(members []individual) [][]int {
	fronts := nonDominatedSort(members)
	for _, front := range fronts {
		assignCrowding(members, front)
	}
	return fronts
}

// better orders two members for selection and truncation: lower rank, then
// larger crowding distance, then lower constraint violation. Equal members
// are not better than each other, so the first encountered wins.
func better(a, b *individual) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.crowding != b.crowding {
		return a.crowding > b.crowding
	}
	return a.violation < b.violation
}

// survivors picks size member indices from ranked fronts, filling whole
// fronts first and splitting the last one by crowding distance.
func survivors(members []individual, fronts [][]int, size int) []int {
	selected := make([]int, 0, size)
	for _, front := range fronts {
		if len(selected)+len(front) <= size {
			selected = append(selected, front...)
			continue
		}

		last := append([]int(nil), front...)
		sort.SliceStable(last, func(a, b int) bool {
			return better(&members[last[a]], &members[last[b]])
		})
		selected = append(selected, last[:size-len(selected)]...)
		break
	}
	return selected
}
