package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ConfigHash fingerprints a width configuration for report provenance
type ConfigHash Hash

func (h ConfigHash) String() string { return Hash(h).String() }

// ComputeConfigHash produces a deterministic fingerprint of the ordered
// qubit subsets defining an experiment's widths.
func ComputeConfigHash(qubitSubsets [][]int) ConfigHash {
	var data strings.Builder
	for _, subset := range qubitSubsets {
		for _, q := range subset {
			data.WriteString(fmt.Sprintf("%d,", q))
		}
		data.WriteString(";")
	}
	return ConfigHash(NewHash([]byte(data.String())))
}

// ComputeResultFingerprint fingerprints per-width statistics so that two
// runs over identical data can be compared for replay drift. Keys are
// sorted so map iteration order never leaks into the fingerprint.
func ComputeResultFingerprint(stats map[int][3]float64) Hash {
	widths := make([]int, 0, len(stats))
	for w := range stats {
		widths = append(widths, w)
	}
	sort.Ints(widths)

	var data strings.Builder
	for _, w := range widths {
		s := stats[w]
		data.WriteString(fmt.Sprintf("%d:%.12g:%.12g:%.12g;", w, s[0], s[1], s[2]))
	}
	return NewHash([]byte(data.String()))
}
