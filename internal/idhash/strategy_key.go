// Package idhash computes deterministic identifiers and seeds.
package idhash

import (
	"crypto/sha256"
	"sort"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// suffixLen is the number of base58 characters kept from the params hash.
const suffixLen = 8

// UniqueStrategyKey computes the key that identifies one strategy
// configuration inside a simulation batch.
// Formula: key + "_" + base58(SHA256(name=value|...))[:8] with params sorted by name.
// The result does not depend on map iteration order.
func UniqueStrategyKey(key string, params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.FormatFloat(params[name], 'g', -1, 64)
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return key + "_" + base58.Encode(hash[:])[:suffixLen]
}
