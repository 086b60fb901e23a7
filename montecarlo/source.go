// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package montecarlo

import "math/rand/v2"

// NewSource returns a deterministic random source for the given seed and stream.
// Workers of one estimation share the seed and use their partition index as
// stream, so their samples are uncorrelated but reproducible.
func NewSource(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, mix(stream)))
}

// RandomSeed returns a fresh seed from the runtime's entropy source.
// It is limited to 63 bits so it round-trips through signed encodings.
func RandomSeed() uint64 {
	return rand.Uint64() >> 1
}

// mix is the splitmix64 finaliser, it spreads consecutive stream indexes
// over the whole 64 bit space.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb

	return x ^ (x >> 31)
}
