package timeline

import "math/rand/v2"

// ShuffleTrials returns a uniform random permutation of trials. The input
// slice is left untouched.
func ShuffleTrials(rng *rand.Rand, trials []TrialDefinition) []TrialDefinition {
	out := make([]TrialDefinition, len(trials))
	copy(out, trials)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ShuffleBlocks picks one of the two block orders with equal probability.
func ShuffleBlocks(rng *rand.Rand, a, b Block) [2]Block {
	if rng.IntN(2) == 1 {
		return [2]Block{b, a}
	}
	return [2]Block{a, b}
}

// NewRand returns a generator seeded from the runtime's random source.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
