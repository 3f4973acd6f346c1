// Package strid implements hashed string identifiers.
//
// An id is the murmur3 hash (seed 0) of a name. Ids are cheap map keys and
// compare by value; the name itself is not retained.
package strid

import (
	"fmt"

	"github.com/spaolacci/murmur3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ID32 is a 32-bit hashed string.
type ID32 uint32

// ID64 is a 64-bit hashed string.
type ID64 uint64

// Hash32 returns the 32-bit id of s.
func Hash32(s string) ID32 {
	return ID32(murmur3.Sum32([]byte(s)))
}

// Hash64 returns the 64-bit id of s.
func Hash64(s string) ID64 {
	return ID64(murmur3.Sum64([]byte(s)))
}

// Canonical64 returns the 64-bit id of s after Unicode NFC normalization
// and case folding, so "Physics", "PHYSICS" and a decomposed spelling of the
// same name share an id.
func Canonical64(s string) ID64 {
	return Hash64(Canonical(s))
}

// Canonical returns the normalized, case-folded form hashed by Canonical64.
func Canonical(s string) string {
	// cases.Caser is stateful; a fresh one per call keeps this goroutine-safe.
	return cases.Fold().String(norm.NFC.String(s))
}

// String renders the id as 8 hex digits.
func (id ID32) String() string { return fmt.Sprintf("%08x", uint32(id)) }

// Less orders ids by value.
func (id ID32) Less(o ID32) bool { return id < o }

// String renders the id as 16 hex digits.
func (id ID64) String() string { return fmt.Sprintf("%016x", uint64(id)) }

// Less orders ids by value.
func (id ID64) Less(o ID64) bool { return id < o }

// Compare is a three-way comparison for sorted containers.
func (id ID64) Compare(o ID64) int {
	switch {
	case id < o:
		return -1
	case id > o:
		return 1
	}
	return 0
}
