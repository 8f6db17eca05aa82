package scheduling

import "math/rand"

// defaultSeed is the fixed seed used when a request supplies seed==0.
// Arbitrary but stable, so reproducible defaults stay reproducible.
const defaultSeed int64 = 1

// rngFromSeed returns the single deterministic stream owned by the GA
// driver. The decoder takes no randomness; everything downstream of this
// generator is a pure function of the genome.
func rngFromSeed(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}
