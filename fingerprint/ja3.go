package fingerprint

import (
	"strconv"
	"strings"

	"github.com/firasghr/GoFingerprintEngine/grease"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// JA3 is the Salesforce TLS client fingerprint: an MD5 over a comma-joined
// preimage of version, ciphers, extensions, groups, and point formats.
//
// The canonical form is the preimage, not the digest: GREASE-tolerant
// database comparisons operate directly on stored canonical strings, which is
// only possible when the decomposable text survives.  The MD5 digest is
// exposed separately for exchange with feeds that publish only hashes.
type JA3 struct {
	// Preimage is the "version,ciphers,extensions,groups,formats" text with
	// GREASE values already removed from every list.
	Preimage string

	// Digest is the lowercase hex MD5 of Preimage.
	Digest string

	// The five preimage fields, kept for component-wise comparison.
	Version      uint16
	Ciphers      []uint16
	Extensions   []uint16
	Groups       []uint16
	PointFormats []uint8
}

// Kind returns KindJA3.
func (j JA3) Kind() Kind { return KindJA3 }

// Canonical returns the JA3 preimage.
func (j JA3) Canonical() string { return j.Preimage }

// Key returns "ja3:<preimage>".
func (j JA3) Key() string { return MakeKey(KindJA3, j.Preimage) }

// Decompose splits the preimage into its five fields.
func (j JA3) Decompose() Decomposed {
	var formats []string
	for _, f := range j.PointFormats {
		formats = append(formats, strconv.FormatUint(uint64(f), 10))
	}
	return Decomposed{
		{Name: "version", Tokens: []string{strconv.FormatUint(uint64(j.Version), 10)}},
		{Name: "ciphers", Tokens: decTokens(j.Ciphers)},
		{Name: "extensions", Tokens: decTokens(j.Extensions)},
		{Name: "groups", Tokens: decTokens(j.Groups)},
		{Name: "formats", Tokens: formats},
	}
}

// DeriveJA3 computes the JA3 fingerprint of a ClientHello.
//
// The preimage is built from the wire-original orders with GREASE dropped
// from each list before joining; ec_point_formats carries no GREASE class so
// it is joined verbatim.  Cipher suites echoed by TLS 1.3 PSK binders are a
// parsing concern: the collaborator populates CipherSuites from the hello's
// cipher_suites vector only, which this deriver relies on.
//
// Fails only when the hello has no cipher suite list, the one field JA3
// cannot be derived without.
func DeriveJA3(hello *wire.TLSClientHello) (JA3, error) {
	if hello == nil {
		return JA3{}, missingField("client hello")
	}
	if len(hello.CipherSuites) == 0 {
		return JA3{}, missingField("cipher_suites")
	}

	ciphers := grease.FilterUint16(hello.CipherSuites)
	extensions := grease.FilterUint16(hello.ExtensionTypes())
	groups := grease.FilterUint16(hello.SupportedGroups)
	formats := make([]uint8, len(hello.ECPointFormats))
	copy(formats, hello.ECPointFormats)

	preimage := strings.Join([]string{
		strconv.FormatUint(uint64(hello.LegacyVersion), 10),
		joinUint16Dec(ciphers),
		joinUint16Dec(extensions),
		joinUint16Dec(groups),
		joinUint8Dec(formats),
	}, ",")

	return JA3{
		Preimage:     preimage,
		Digest:       md5Hex(preimage),
		Version:      hello.LegacyVersion,
		Ciphers:      ciphers,
		Extensions:   extensions,
		Groups:       groups,
		PointFormats: formats,
	}, nil
}

// JA3S is the server-side JA3 analogue: MD5 over "version,cipher,extensions".
type JA3S struct {
	// Preimage is the "version,cipher,extensions" text, GREASE removed from
	// the extension list.
	Preimage string

	// Digest is the lowercase hex MD5 of Preimage.
	Digest string

	Version    uint16
	Cipher     uint16
	Extensions []uint16
}

// Kind returns KindJA3S.
func (j JA3S) Kind() Kind { return KindJA3S }

// Canonical returns the JA3S preimage.
func (j JA3S) Canonical() string { return j.Preimage }

// Key returns "ja3s:<preimage>".
func (j JA3S) Key() string { return MakeKey(KindJA3S, j.Preimage) }

// Decompose splits the preimage into its three fields.
func (j JA3S) Decompose() Decomposed {
	return Decomposed{
		{Name: "version", Tokens: []string{strconv.FormatUint(uint64(j.Version), 10)}},
		{Name: "cipher", Tokens: []string{strconv.FormatUint(uint64(j.Cipher), 10)}},
		{Name: "extensions", Tokens: decTokens(j.Extensions)},
	}
}

// DeriveJA3S computes the JA3S fingerprint of a ServerHello.  A ServerHello
// with no extensions is valid; the extensions field is then empty.
func DeriveJA3S(hello *wire.TLSServerHello) (JA3S, error) {
	if hello == nil {
		return JA3S{}, missingField("server hello")
	}
	if hello.ChosenCipher == 0 {
		return JA3S{}, missingField("chosen_cipher")
	}

	extensions := grease.FilterUint16(hello.Extensions)

	preimage := strings.Join([]string{
		strconv.FormatUint(uint64(hello.NegotiatedVersion), 10),
		strconv.FormatUint(uint64(hello.ChosenCipher), 10),
		joinUint16Dec(extensions),
	}, ",")

	return JA3S{
		Preimage:   preimage,
		Digest:     md5Hex(preimage),
		Version:    hello.NegotiatedVersion,
		Cipher:     hello.ChosenCipher,
		Extensions: extensions,
	}, nil
}
