package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// fingerprintMultiplier folds each contribution into the running hash.
	fingerprintMultiplier = 37

	// fingerprintSeed is the initial value of the combined hash.
	fingerprintSeed = 17

	// nilContributionHash is the fixed base hash used for nil contributions.
	nilContributionHash = uint64(1)
)

// Fingerprint identifies a logical query: an immutable value accumulated
// from an ordered sequence of contributing values (statement identifier,
// bound parameters, pagination bounds). It is the key type of every cache
// in this module.
//
// Equality is structural. The combined hash, checksum and count are
// compared first as a short-circuit, but a positive match always falls
// through to an ordered element-wise comparison of the contributing values;
// equality is never decided on hash alone.
type Fingerprint struct {
	multiplier uint64
	hash       uint64
	checksum   uint64
	count      int
	values     []any
	encoded    []string
	null       bool
}

// NullFingerprint is the shared sentinel meaning "no key": the query was
// neither cacheable nor lookup-relevant. It compares equal only to itself
// (reference identity) and rejects further updates.
var NullFingerprint = &Fingerprint{
	multiplier: fingerprintMultiplier,
	hash:       fingerprintSeed,
	null:       true,
}

// NewFingerprint returns a fingerprint seeded with the given values, applied
// in order.
func NewFingerprint(values ...any) *Fingerprint {
	fp := &Fingerprint{
		multiplier: fingerprintMultiplier,
		hash:       fingerprintSeed,
	}
	fp.UpdateAll(values...)
	return fp
}

// Update folds one contributing value into the fingerprint. Nil is legal and
// hashes to a fixed sentinel; composite values hash by deep structural
// content, never by identity. The original value is retained so equality can
// resolve hash collisions.
//
// Updating the null sentinel panics: it exists to mark the absence of a key.
func (fp *Fingerprint) Update(value any) {
	if fp.null {
		panic("cache: the null fingerprint cannot accumulate values")
	}

	enc := canonicalize(value)
	base := nilContributionHash
	if value != nil {
		base = xxhash.Sum64String(enc)
	}

	fp.count++
	fp.checksum += base
	fp.hash = fp.multiplier*fp.hash + base*uint64(fp.count)
	fp.values = append(fp.values, value)
	fp.encoded = append(fp.encoded, enc)
}

// UpdateAll folds every value in order. Order is significant: the same
// values in a different order produce a different fingerprint.
func (fp *Fingerprint) UpdateAll(values ...any) {
	for _, v := range values {
		fp.Update(v)
	}
}

// Hash returns the combined hash. It is stable for the lifetime of the
// instance and consistent with Equal.
func (fp *Fingerprint) Hash() uint64 { return fp.hash }

// Checksum returns the sum of the per-element base hashes.
func (fp *Fingerprint) Checksum() uint64 { return fp.checksum }

// Count returns the number of contributed values.
func (fp *Fingerprint) Count() int { return fp.count }

// Equal reports whether both fingerprints were built from element-wise equal
// value sequences. Hash, checksum and count mismatches short-circuit to
// false; the full ordered element comparison decides the rest.
func (fp *Fingerprint) Equal(other *Fingerprint) bool {
	if fp == nil || other == nil || fp.null || other.null {
		return fp == other
	}
	if fp == other {
		return true
	}
	if fp.hash != other.hash {
		return false
	}
	if fp.checksum != other.checksum {
		return false
	}
	if fp.count != other.count {
		return false
	}
	for i := range fp.encoded {
		if fp.encoded[i] != other.encoded[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that is safe to retain after the source's inputs
// mutate. The contributing values themselves are shared (shallow copy); the
// backing slices are independent, so further updates to either fingerprint
// never leak into the other.
func (fp *Fingerprint) Clone() *Fingerprint {
	dup := *fp
	dup.values = append([]any(nil), fp.values...)
	dup.encoded = append([]string(nil), fp.encoded...)
	return &dup
}

// Values returns the ordered contributing values. The returned slice is a
// copy; elements are shared.
func (fp *Fingerprint) Values() []any {
	return append([]any(nil), fp.values...)
}

// Key returns the canonical string form of the fingerprint: count, checksum,
// combined hash and every contributing value's canonical encoding. Two
// fingerprints share a Key exactly when they are Equal, which makes Key
// suitable as a comparable map key for stores and lock tables.
func (fp *Fingerprint) Key() string {
	if fp.null {
		// The sentinel must never collide with a real key, nor with another
		// sentinel instance: identity only.
		return fmt.Sprintf("null:%p", fp)
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(fp.count))
	b.WriteString(":")
	b.WriteString(strconv.FormatUint(fp.checksum, 10))
	b.WriteString(":")
	b.WriteString(strconv.FormatUint(fp.hash, 10))
	for _, enc := range fp.encoded {
		b.WriteString(KeySeparator)
		b.WriteString(enc)
	}
	return b.String()
}

// String renders the fingerprint for diagnostics: hash, checksum and the
// contributing values.
func (fp *Fingerprint) String() string {
	if fp.null {
		return "fingerprint(null)"
	}
	var b strings.Builder
	b.WriteString(strconv.FormatUint(fp.hash, 10))
	b.WriteString(":")
	b.WriteString(strconv.FormatUint(fp.checksum, 10))
	for _, enc := range fp.encoded {
		b.WriteString(":")
		b.WriteString(enc)
	}
	return b.String()
}
