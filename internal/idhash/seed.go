package idhash

import (
	"crypto/sha256"
	"encoding/binary"
)

// Seed offsets between simulations of a batch.
const (
	simulationStride = 7919
	specStride       = 104729
)

// SeedFromID derives a 64-bit rng seed from an identifier.
// Formula: first 8 bytes of SHA256(id), big endian.
func SeedFromID(id string) uint64 {
	hash := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(hash[:8])
}

// SimulationSeed returns the seed of simulation index of spec specIndex.
// Formula: base + index*7919 + specIndex*104729 (wrapping).
func SimulationSeed(base uint64, index, specIndex int) uint64 {
	return base + uint64(index)*simulationStride + uint64(specIndex)*specStride
}
