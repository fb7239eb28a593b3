package fingerprint

import (
	"strings"

	"github.com/firasghr/GoFingerprintEngine/wire"
)

// HASSH is the MD5 fingerprint of the algorithm lists in an SSH KEX_INIT.
// The client-direction fingerprint is conventionally called HASSH and the
// server-direction one hasshServer; both share the preimage layout
// "kex;encryption;macs;compression" with each list comma-joined in wire
// order.
//
// The canonical form is the digest – that is the form SSH fingerprint feeds
// exchange – with the preimage kept alongside for re-hashing and for
// component-wise comparison.
type HASSH struct {
	// Digest is the lowercase hex MD5 of Preimage.
	Digest string

	// Preimage is the semicolon-joined algorithm list text.
	Preimage string

	// Direction records which side of the connection sent the KEX_INIT.
	Direction wire.Direction

	Kex         []string
	Encryption  []string
	MACs        []string
	Compression []string
}

// Kind returns KindHASSH.
func (h HASSH) Kind() Kind { return KindHASSH }

// Canonical returns the MD5 digest.
func (h HASSH) Canonical() string { return h.Digest }

// Key returns "hassh:<digest>".
func (h HASSH) Key() string { return MakeKey(KindHASSH, h.Digest) }

// Decompose splits the preimage into its four algorithm lists.
func (h HASSH) Decompose() Decomposed {
	return Decomposed{
		{Name: "kex", Tokens: h.Kex},
		{Name: "encryption", Tokens: h.Encryption},
		{Name: "macs", Tokens: h.MACs},
		{Name: "compression", Tokens: h.Compression},
	}
}

// DeriveHASSH computes the HASSH (client direction) or hasshServer (server
// direction) fingerprint of a KEX_INIT.  Algorithm names are lowercased; SSH
// algorithm identifiers are defined lowercase, so this only normalises
// non-conforming stacks.
func DeriveHASSH(kex *wire.SSHKexInit) (HASSH, error) {
	if kex == nil {
		return HASSH{}, missingField("kex init")
	}
	if len(kex.KexAlgorithms) == 0 {
		return HASSH{}, missingField("kex_algorithms")
	}

	kexList := lowerAll(kex.KexAlgorithms)
	encList := lowerAll(kex.EncryptionAlgorithms)
	macList := lowerAll(kex.MACAlgorithms)
	compList := lowerAll(kex.CompressionAlgorithms)

	preimage := strings.Join([]string{
		strings.Join(kexList, ","),
		strings.Join(encList, ","),
		strings.Join(macList, ","),
		strings.Join(compList, ","),
	}, ";")

	return HASSH{
		Digest:      md5Hex(preimage),
		Preimage:    preimage,
		Direction:   kex.Direction,
		Kex:         kexList,
		Encryption:  encList,
		MACs:        macList,
		Compression: compList,
	}, nil
}

// lowerAll returns a lowercased copy of names, preserving order.
func lowerAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}
