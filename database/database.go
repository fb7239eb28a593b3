// Package database is the in-memory fingerprint store: an associative map
// from canonical fingerprint keys to the client profiles known to produce
// them, with exact lookup and GREASE-tolerant fuzzy lookup.
//
// Concurrency model:
//   - The store is read far more often than it is written: detection hot
//     paths only look up, while insertions (profile seeding at startup,
//     occasional promotions from the observer) are rare.  A sync.RWMutex
//     therefore guards the map; lookups take the read lock and never block
//     each other.
//   - Fuzzy matching iterates the map.  Go map iteration order is
//     deliberately randomised, so the matcher collects all candidates and
//     sorts them (score descending, key ascending) before returning the
//     head – the result is deterministic across runs and testable.
package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/firasghr/GoFingerprintEngine/fingerprint"
	"github.com/firasghr/GoFingerprintEngine/grease"
)

// Browser family labels used by ProfileMatch and the consistency auditor.
const (
	FamilyChrome  = "chrome"
	FamilyFirefox = "firefox"
	FamilySafari  = "safari"
	FamilyEdge    = "edge"
	FamilyUnknown = ""
)

// Operating system family labels.
const (
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSLinux   = "linux"
	OSAndroid = "android"
	OSIOS     = "ios"
	OSUnknown = "unknown"
)

// Device class labels.
const (
	DeviceDesktop   = "desktop"
	DeviceMobile    = "mobile"
	DeviceServerSDK = "server-sdk"
)

// Default matcher thresholds.  The 0.80 floor is the empirical point below
// which false positives dominate; it is distinct from the observer's 0.70
// promotion threshold and the two must never be collapsed.
const (
	// DefaultFuzzyThreshold is the minimum similarity for a fuzzy candidate.
	DefaultFuzzyThreshold = 0.80

	// GreaseTolerantScore is the score assigned to candidates that are equal
	// after GREASE normalisation: below an exact hit, above any similarity
	// candidate.
	GreaseTolerantScore = 0.95
)

// ErrInvalidKey is returned by Insert for keys that are not printable ASCII
// or do not carry a known "<kind>:" prefix.
var ErrInvalidKey = errors.New("database: invalid fingerprint key")

// ProfileMatch names one client a fingerprint is known to identify.
type ProfileMatch struct {
	// ProfileLabel is the display name, e.g. "Chrome 133 / Windows".
	ProfileLabel string `json:"profile_label"`

	// BrowserFamily is one of the Family* constants.
	BrowserFamily string `json:"browser_family,omitempty"`

	// OSFamily is one of the OS* constants.
	OSFamily string `json:"os_family,omitempty"`

	// DeviceClass is one of the Device* constants.
	DeviceClass string `json:"device_class,omitempty"`

	// ContributingLayers lists the fingerprint kinds that produced this
	// identification.
	ContributingLayers []fingerprint.Kind `json:"contributing_layers,omitempty"`

	// ConfidenceCeiling bounds the confidence any lookup of this entry can
	// produce: 1.0 for authoritative entries, lower for learned ones.
	ConfidenceCeiling float64 `json:"confidence_ceiling"`
}

// BrowserMatch is the result of a successful database lookup.
type BrowserMatch struct {
	// Profile is the winning profile record.
	Profile ProfileMatch

	// Confidence is the match score capped by the profile's ceiling:
	// 1.0 for exact hits, GreaseTolerantScore for GREASE-only drift, the
	// similarity value otherwise.
	Confidence float64

	// GreaseTolerant reports that the hit required GREASE normalisation or
	// similarity rather than exact key equality.
	GreaseTolerant bool
}

// DB is the fingerprint database.  The zero value is not usable; construct
// with New.
type DB struct {
	mu      sync.RWMutex
	entries map[string][]ProfileMatch
}

// New creates an empty database.
func New() *DB {
	return &DB{entries: make(map[string][]ProfileMatch)}
}

// Insert registers match under key.  The key must be "<kind>:<canonical>"
// with a known kind and printable-ASCII canonical text; anything else fails
// with ErrInvalidKey.  Inserting the same (key, ProfileLabel) pair again
// replaces the earlier record, so repeated seeding is idempotent.
func (db *DB) Insert(key string, match ProfileMatch) error {
	if _, _, err := SplitKey(key); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	existing := db.entries[key]
	for i, m := range existing {
		if m.ProfileLabel == match.ProfileLabel {
			existing[i] = match
			return nil
		}
	}
	db.entries[key] = append(existing, match)
	return nil
}

// InsertFingerprint registers match under fp's database key.
func (db *DB) InsertFingerprint(fp fingerprint.Fingerprint, match ProfileMatch) error {
	return db.Insert(fp.Key(), match)
}

// LookupExact returns the profiles stored under key.  A miss is a
// (nil, false) result, never an error.
func (db *DB) LookupExact(key string) ([]ProfileMatch, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	matches, ok := db.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]ProfileMatch, len(matches))
	copy(out, matches)
	return out, true
}

// Len returns the number of distinct fingerprint keys stored.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

// MatchFuzzy resolves a freshly-derived fingerprint to at most one
// BrowserMatch.
//
// Algorithm:
//  1. Exact lookup on the canonical key: confidence 1.0 (capped by the
//     entry's ceiling), not GREASE-tolerant.
//  2. Otherwise every stored key of the same kind becomes a candidate: score
//     GreaseTolerantScore when equal after GREASE normalisation, its
//     similarity when ≥ threshold.
//  3. Candidates are sorted score-descending (key-ascending on ties, which
//     also removes the map's iteration nondeterminism) and the head wins.
//  4. No candidate at or above threshold: (nil) – a miss, not an error.
//
// threshold ≤ 0 selects DefaultFuzzyThreshold.
func (db *DB) MatchFuzzy(kind fingerprint.Kind, fp fingerprint.Fingerprint, threshold float64) *BrowserMatch {
	if fp == nil || !kind.Valid() {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	if matches, ok := db.LookupExact(fp.Key()); ok {
		best := bestProfile(matches)
		return &BrowserMatch{
			Profile:        best,
			Confidence:     capConfidence(1.0, best.ConfidenceCeiling),
			GreaseTolerant: false,
		}
	}

	type candidate struct {
		key   string
		score float64
	}
	query := fp.Canonical()
	var candidates []candidate

	db.mu.RLock()
	for key := range db.entries {
		storedKind, stored, err := SplitKey(key)
		if err != nil || storedKind != kind {
			continue
		}
		if equalIgnoreGrease(kind, query, stored) {
			candidates = append(candidates, candidate{key: key, score: GreaseTolerantScore})
			continue
		}
		if score := Similarity(kind, query, stored); score >= threshold {
			candidates = append(candidates, candidate{key: key, score: score})
		}
	}
	db.mu.RUnlock()

	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].key < candidates[j].key
	})

	head := candidates[0]
	matches, ok := db.LookupExact(head.key)
	if !ok {
		return nil
	}
	best := bestProfile(matches)
	return &BrowserMatch{
		Profile:        best,
		Confidence:     capConfidence(head.score, best.ConfidenceCeiling),
		GreaseTolerant: true,
	}
}

// bestProfile disambiguates a multi-profile row: the highest confidence
// ceiling wins, insertion order breaks ties.
func bestProfile(matches []ProfileMatch) ProfileMatch {
	best := matches[0]
	for _, m := range matches[1:] {
		if m.ConfidenceCeiling > best.ConfidenceCeiling {
			best = m
		}
	}
	return best
}

// capConfidence bounds score by the entry's ceiling.  A zero ceiling means
// the entry predates ceilings and is treated as authoritative.
func capConfidence(score, ceiling float64) float64 {
	if ceiling > 0 && score > ceiling {
		return ceiling
	}
	return score
}

// SplitKey validates and splits a database key into kind and canonical text.
func SplitKey(key string) (fingerprint.Kind, string, error) {
	idx := strings.IndexByte(key, ':')
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	kind := fingerprint.Kind(key[:idx])
	if !kind.Valid() {
		return "", "", fmt.Errorf("%w: unknown kind prefix in %q", ErrInvalidKey, key)
	}
	canonical := key[idx+1:]
	for i := 0; i < len(canonical); i++ {
		if canonical[i] < 0x20 || canonical[i] > 0x7e {
			return "", "", fmt.Errorf("%w: non-ASCII canonical text in %q", ErrInvalidKey, key)
		}
	}
	return kind, canonical, nil
}

// equalIgnoreGrease reports canonical equality after GREASE normalisation.
// Only the JA3/JA3S preimage forms can still contain GREASE codepoints; every
// other kind strips GREASE during derivation, so normalised equality would
// duplicate the exact lookup and is skipped.
func equalIgnoreGrease(kind fingerprint.Kind, a, b string) bool {
	switch kind {
	case fingerprint.KindJA3, fingerprint.KindJA3S:
		return grease.JA3EqualIgnoreGrease(a, b)
	default:
		return false
	}
}

// Similarity computes the component-wise similarity of two canonical strings
// of the same kind in [0, 1]: both are decomposed into the kind's semantic
// fields and the mean per-field Jaccard index is returned (a field empty on
// both sides counts 1.0, empty on one side 0.0).  For JA3 this is exactly
// the five-field preimage similarity of the grease package.
func Similarity(kind fingerprint.Kind, a, b string) float64 {
	if kind == fingerprint.KindJA3 {
		return grease.JA3Similarity(a, b)
	}
	fieldsA := DecomposeCanonical(kind, a)
	fieldsB := DecomposeCanonical(kind, b)
	n := len(fieldsA)
	if len(fieldsB) > n {
		n = len(fieldsB)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		var ta, tb []string
		if i < len(fieldsA) {
			ta = fieldsA[i].Tokens
		}
		if i < len(fieldsB) {
			tb = fieldsB[i].Tokens
		}
		sum += grease.SetSimilarity(ta, tb)
	}
	return sum / float64(n)
}

// DecomposeCanonical splits a canonical string into the decomposed field
// layout of its kind, mirroring the Decompose method of the corresponding
// fingerprint type.  Used to compare stored keys, which carry only canonical
// text, against freshly-derived fingerprints.
func DecomposeCanonical(kind fingerprint.Kind, canonical string) fingerprint.Decomposed {
	switch kind {
	case fingerprint.KindJA3:
		return splitDelimited(grease.NormalizeJA3(canonical), ",", "-",
			[]string{"version", "ciphers", "extensions", "groups", "formats"})
	case fingerprint.KindJA3S:
		return splitDelimited(grease.NormalizeJA3(canonical), ",", "-",
			[]string{"version", "cipher", "extensions"})
	case fingerprint.KindJA4:
		return splitDelimited(canonical, "_", "",
			[]string{"prefix", "ciphers", "extensions"})
	case fingerprint.KindJA4S:
		return splitDelimited(canonical, "_", "",
			[]string{"prefix", "cipher", "extensions"})
	case fingerprint.KindJA4H:
		return splitDelimited(canonical, "_", "",
			[]string{"prefix", "headerhash"})
	case fingerprint.KindJA4T:
		return splitDelimited(canonical, "_", "-",
			[]string{"window", "options", "mss", "wscale"})
	case fingerprint.KindP0f:
		return splitDelimited(canonical, ":", ",",
			[]string{"ver", "ttl", "df", "window", "mss", "wscale", "options", "quirks"})
	case fingerprint.KindHASSH:
		return fingerprint.Decomposed{{Name: "digest", Tokens: []string{canonical}}}
	default:
		return nil
	}
}

// splitDelimited splits canonical on the field delimiter, then each field on
// the token delimiter (no token delimiter: the whole field is one token).
// Missing trailing fields decompose to empty token lists.
func splitDelimited(canonical, fieldSep, tokenSep string, names []string) fingerprint.Decomposed {
	fields := strings.Split(canonical, fieldSep)
	out := make(fingerprint.Decomposed, len(names))
	for i, name := range names {
		out[i].Name = name
		if i >= len(fields) || fields[i] == "" {
			continue
		}
		if tokenSep == "" {
			out[i].Tokens = []string{fields[i]}
			continue
		}
		out[i].Tokens = strings.Split(fields[i], tokenSep)
	}
	return out
}
