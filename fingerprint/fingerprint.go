// Package fingerprint derives protocol fingerprints from parsed wire
// structures.
//
// Anti-bot systems and passive network monitors identify client
// implementations by hashing the observable shape of each protocol layer:
// JA3/JA3S for the TLS handshake, the JA4 family for TLS/HTTP/TCP, HASSH for
// SSH, and p0f-style descriptors for the TCP/IP stack.  This package
// implements every deriver as a pure, total function of its wire-type input:
// same input, same output, no I/O, no global state.
//
// Every fingerprint value carries two representations:
//
//   - The canonical string – the exact text the corresponding public
//     specification defines (the pre-hash preimage for JA3/JA3S, the MD5
//     digest for HASSH, the final printable form for the JA4 family and p0f).  Equality of two
//     fingerprints is equality of their canonical strings.
//   - The decomposed form – the same content split into named semantic
//     fields so the database matcher can compare component by component.
//
// Digests are exposed alongside preimages rather than replacing them, so
// callers can re-hash under a different algorithm for cross-tool exchange.
//
// GREASE handling: derivers strip GREASE codepoints from hashed views only.
// The wire inputs are treated as read-only and keep their GREASE values.
package fingerprint

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a fingerprint algorithm.  The kind doubles as the database
// key prefix, so the string values are part of the persisted format.
type Kind string

const (
	KindJA3   Kind = "ja3"
	KindJA3S  Kind = "ja3s"
	KindJA4   Kind = "ja4"
	KindJA4S  Kind = "ja4s"
	KindJA4H  Kind = "ja4h"
	KindJA4T  Kind = "ja4t"
	KindHASSH Kind = "hassh"
	KindP0f   Kind = "p0f"
)

// Kinds lists every supported fingerprint kind.
var Kinds = []Kind{KindJA3, KindJA3S, KindJA4, KindJA4S, KindJA4H, KindJA4T, KindHASSH, KindP0f}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ErrMissingField is returned (wrapped) when a wire input lacks a field the
// requested deriver cannot do without.  Surfaced to the caller, never retried.
var ErrMissingField = errors.New("fingerprint: missing required field")

// missingField wraps ErrMissingField naming the absent field.
func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

// Field is one named component of a decomposed fingerprint.  Tokens hold the
// component's values as comparable strings in canonical order.
type Field struct {
	Name   string
	Tokens []string
}

// Decomposed is the ordered field list of one fingerprint.  The matcher
// compares decomposed forms field by field (Jaccard per field, mean over
// fields), which is what makes GREASE-tolerant and near-match lookups work.
type Decomposed []Field

// Fingerprint is the common surface of every fingerprint value type.
type Fingerprint interface {
	// Kind names the algorithm that produced the fingerprint.
	Kind() Kind

	// Canonical returns the specification-defined string form.
	Canonical() string

	// Key returns the database key: "<kind>:<canonical>".
	Key() string

	// Decompose splits the canonical content into named semantic fields.
	Decompose() Decomposed
}

// MakeKey builds the database key for a kind and canonical string.
func MakeKey(kind Kind, canonical string) string {
	return string(kind) + ":" + canonical
}

// ─── Shared encoding helpers ─────────────────────────────────────────────────

// md5Hex returns the lowercase hex MD5 digest of s.
func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// truncatedSHA256 returns the first 12 lowercase hex characters (6 bytes) of
// the SHA-256 digest of s, the truncation every JA4-family hash section uses.
// An empty input renders as twelve zeros, matching the published JA4 spec.
func truncatedSHA256(s string) string {
	if s == "" {
		return emptyHashSection
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// emptyHashSection is the JA4 placeholder for a hash over an empty list.
const emptyHashSection = "000000000000"

// joinUint16Dec renders values as dash-separated decimal codepoints, the JA3
// list encoding.
func joinUint16Dec(values []uint16) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, "-")
}

// joinUint8Dec renders byte values as dash-separated decimals.
func joinUint8Dec(values []uint8) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, "-")
}

// joinUint16Hex renders values as comma-separated 4-digit lowercase hex
// codepoints, the JA4 list encoding.
func joinUint16Hex(values []uint16) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%04x", v)
	}
	return strings.Join(parts, ",")
}

// decTokens renders values as individual decimal tokens for decomposed forms.
func decTokens(values []uint16) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatUint(uint64(v), 10)
	}
	return out
}

// capCount clamps a list length to the two-digit ceiling used by JA4 counts.
func capCount(n int) int {
	if n > 99 {
		return 99
	}
	return n
}
