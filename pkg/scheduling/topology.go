package scheduling

import "math/rand"

// BiasedShuffle returns a permutation of component indices ordered by
// ascending topological level, each level shuffled independently. A
// higher-level component never precedes a lower-level one, which seeds
// the GA population with dependency-respecting genomes.
func (p *Problem) BiasedShuffle(rng *rand.Rand) []int {
	byLevel := map[int][]int{}
	maxLevel := 0
	for i, c := range p.Components {
		byLevel[c.Level] = append(byLevel[c.Level], i)
		if c.Level > maxLevel {
			maxLevel = c.Level
		}
	}
	genome := make([]int, 0, len(p.Components))
	for level := 0; level <= maxLevel; level++ {
		ids := byLevel[level]
		rng.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
		genome = append(genome, ids...)
	}
	return genome
}

// RandomGenome returns a uniform random permutation of component indices.
// Callers repair it before decoding.
func (p *Problem) RandomGenome(rng *rand.Rand) []int {
	genome := make([]int, len(p.Components))
	for i := range genome {
		genome[i] = i
	}
	rng.Shuffle(len(genome), func(a, b int) { genome[a], genome[b] = genome[b], genome[a] })
	return genome
}

// Repair makes a permutation topologically valid in place. Walking left to
// right, a component found ahead of a missing prerequisite is swapped with
// the earliest later occurrence of such a prerequisite, repeating until the
// position holds a component whose prerequisites were all seen. Each swap
// pulls a strictly lower-level component forward, so the walk terminates.
func (p *Problem) Repair(genome []int) {
	n := len(genome)
	pos := make([]int, n)
	for i, c := range genome {
		pos[c] = i
	}
	seen := make([]bool, n)

	for i := 0; i < n; i++ {
		for {
			// Earliest later occurrence of a prerequisite not yet seen.
			swapWith := -1
			for _, pr := range p.Components[genome[i]].prereqs {
				if !seen[pr] && (swapWith == -1 || pos[pr] < swapWith) {
					swapWith = pos[pr]
				}
			}
			if swapWith == -1 {
				break
			}
			a, b := genome[i], genome[swapWith]
			genome[i], genome[swapWith] = b, a
			pos[a], pos[b] = swapWith, i
		}
		seen[genome[i]] = true
	}
}
