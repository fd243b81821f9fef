package util

import (
	"log/slog"
	"math/rand/v2"
)

// NewRand returns a PCG-backed generator. A zero seed draws a random one so each run differs;
// the chosen seed is logged at debug level so a run can be replayed.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
		slog.Debug("NewRand: generated seed", "seed", seed)
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
