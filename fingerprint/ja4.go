package fingerprint

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/firasghr/GoFingerprintEngine/grease"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// JA4 is the FoxIO TLS client fingerprint: a human-readable prefix plus two
// truncated SHA-256 sections, e.g. "t13d1516h2_8daaf6152771_02713d6af862".
type JA4 struct {
	// Prefix is the protocol/version/SNI/count/ALPN section.
	Prefix string

	// CipherHash is the 12-hex-char hash over the sorted de-GREASEd ciphers.
	CipherHash string

	// ExtensionHash is the 12-hex-char hash over the sorted de-GREASEd
	// extensions (minus SNI and ALPN) and the signature algorithm list.
	ExtensionHash string
}

// Kind returns KindJA4.
func (j JA4) Kind() Kind { return KindJA4 }

// Canonical returns "prefix_cipherhash_extensionhash".
func (j JA4) Canonical() string {
	return j.Prefix + "_" + j.CipherHash + "_" + j.ExtensionHash
}

// Key returns "ja4:<canonical>".
func (j JA4) Key() string { return MakeKey(KindJA4, j.Canonical()) }

// Decompose splits the fingerprint into its three sections.  The hashed
// sections are opaque, so each is a single token: two JA4s are similar in a
// section only when the section matches exactly.
func (j JA4) Decompose() Decomposed {
	return Decomposed{
		{Name: "prefix", Tokens: []string{j.Prefix}},
		{Name: "ciphers", Tokens: []string{j.CipherHash}},
		{Name: "extensions", Tokens: []string{j.ExtensionHash}},
	}
}

// DeriveJA4 computes the JA4 fingerprint of a ClientHello.
//
// Prefix layout: protocol letter ('q' over QUIC, 't' otherwise), TLS version
// code of the highest offered supported_versions value (legacy version when
// the extension is absent), 'd'/'i' for SNI present/absent, the de-GREASEd
// cipher count and extension count as two decimal digits capped at 99, and
// the first and last character of the first non-GREASE ALPN value ("00" when
// none).  Counts include SNI and ALPN; the extension hash excludes both, per
// the published specification.
func DeriveJA4(hello *wire.TLSClientHello) (JA4, error) {
	if hello == nil {
		return JA4{}, missingField("client hello")
	}
	if len(hello.CipherSuites) == 0 {
		return JA4{}, missingField("cipher_suites")
	}

	ciphers := grease.FilterUint16(hello.CipherSuites)
	extensions := grease.FilterUint16(hello.ExtensionTypes())

	var prefix strings.Builder
	if hello.QUIC {
		prefix.WriteByte('q')
	} else {
		prefix.WriteByte('t')
	}
	prefix.WriteString(ja4VersionCode(hello))
	if hello.HasSNI() {
		prefix.WriteByte('d')
	} else {
		prefix.WriteByte('i')
	}
	fmt.Fprintf(&prefix, "%02d%02d", capCount(len(ciphers)), capCount(len(extensions)))
	prefix.WriteString(ja4ALPNCode(hello.ALPNValues))

	return JA4{
		Prefix:        prefix.String(),
		CipherHash:    ja4CipherHash(ciphers),
		ExtensionHash: ja4ExtensionHash(extensions, hello.SignatureAlgorithms),
	}, nil
}

// ja4VersionCode maps the highest offered TLS version to its two-character
// JA4 code.  supported_versions wins over the legacy record version because
// every TLS 1.3 client pins the legacy field to 0x0303.
func ja4VersionCode(hello *wire.TLSClientHello) string {
	version := hello.LegacyVersion
	if offered := grease.FilterUint16(hello.SupportedVersions); len(offered) > 0 {
		version = offered[0]
		for _, v := range offered[1:] {
			if v > version {
				version = v
			}
		}
	}
	return tlsVersionCode(version)
}

// tlsVersionCode renders one TLS/SSL version codepoint as its JA4 code.
func tlsVersionCode(version uint16) string {
	switch version {
	case 0x0304:
		return "13"
	case 0x0303:
		return "12"
	case 0x0302:
		return "11"
	case 0x0301:
		return "10"
	case 0x0300:
		return "s3"
	default:
		return "00"
	}
}

// ja4ALPNCode returns the first and last character of the first non-GREASE
// ALPN value, or "00" when the client offered none.
func ja4ALPNCode(alpn []string) string {
	for _, proto := range alpn {
		if proto == "" {
			continue
		}
		// GREASE ALPN values are two non-printable bytes matching the
		// GREASE codepoint pattern; skip them like any other GREASE entry.
		if len(proto) == 2 && grease.IsGrease(binary.BigEndian.Uint16([]byte(proto))) {
			continue
		}
		return string([]byte{proto[0], proto[len(proto)-1]})
	}
	return "00"
}

// ja4CipherHash hashes the ascending-sorted de-GREASEd cipher list rendered
// as comma-joined lowercase hex codepoints.
func ja4CipherHash(ciphers []uint16) string {
	if len(ciphers) == 0 {
		return emptyHashSection
	}
	sorted := make([]uint16, len(ciphers))
	copy(sorted, ciphers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return truncatedSHA256(joinUint16Hex(sorted))
}

// ja4ExtensionHash hashes the ascending-sorted de-GREASEd extension list with
// SNI (0x0000) and ALPN (0x0010) removed, concatenated with "_" and the
// order-preserving de-GREASEd signature algorithm list.
func ja4ExtensionHash(extensions, signatureAlgorithms []uint16) string {
	var hashed []uint16
	for _, ext := range extensions {
		if ext == 0x0000 || ext == 0x0010 {
			continue
		}
		hashed = append(hashed, ext)
	}
	if len(hashed) == 0 {
		return emptyHashSection
	}
	sort.Slice(hashed, func(i, j int) bool { return hashed[i] < hashed[j] })

	preimage := joinUint16Hex(hashed)
	if sigAlgs := grease.FilterUint16(signatureAlgorithms); len(sigAlgs) > 0 {
		preimage += "_" + joinUint16Hex(sigAlgs)
	}
	return truncatedSHA256(preimage)
}

// JA4S is the server-side JA4 analogue: prefix plus the chosen cipher and a
// hash over the server's extension list, e.g. "t130200_1301_234ea6891581".
type JA4S struct {
	// Prefix is the protocol/version/extension-count/ALPN section.
	Prefix string

	// Cipher is the chosen cipher suite as four lowercase hex digits.
	Cipher string

	// ExtensionHash is the 12-hex-char hash over the extension list in wire
	// order.
	ExtensionHash string
}

// Kind returns KindJA4S.
func (j JA4S) Kind() Kind { return KindJA4S }

// Canonical returns "prefix_cipher_extensionhash".
func (j JA4S) Canonical() string {
	return j.Prefix + "_" + j.Cipher + "_" + j.ExtensionHash
}

// Key returns "ja4s:<canonical>".
func (j JA4S) Key() string { return MakeKey(KindJA4S, j.Canonical()) }

// Decompose splits the fingerprint into its three sections.
func (j JA4S) Decompose() Decomposed {
	return Decomposed{
		{Name: "prefix", Tokens: []string{j.Prefix}},
		{Name: "cipher", Tokens: []string{j.Cipher}},
		{Name: "extensions", Tokens: []string{j.ExtensionHash}},
	}
}

// DeriveJA4S computes the JA4S fingerprint of a ServerHello.  The prefix is
// the protocol letter, the negotiated version code, the extension count as
// two decimal digits, and the first and last character of the confirmed ALPN
// value ("00" when the server confirmed none).
func DeriveJA4S(hello *wire.TLSServerHello) (JA4S, error) {
	if hello == nil {
		return JA4S{}, missingField("server hello")
	}
	if hello.ChosenCipher == 0 {
		return JA4S{}, missingField("chosen_cipher")
	}

	extensions := grease.FilterUint16(hello.Extensions)

	var prefix strings.Builder
	if hello.QUIC {
		prefix.WriteByte('q')
	} else {
		prefix.WriteByte('t')
	}
	prefix.WriteString(tlsVersionCode(hello.NegotiatedVersion))
	fmt.Fprintf(&prefix, "%02d", capCount(len(extensions)))
	if hello.ALPN != "" {
		prefix.WriteByte(hello.ALPN[0])
		prefix.WriteByte(hello.ALPN[len(hello.ALPN)-1])
	} else {
		prefix.WriteString("00")
	}

	extensionHash := emptyHashSection
	if len(extensions) > 0 {
		extensionHash = truncatedSHA256(joinUint16Hex(extensions))
	}

	return JA4S{
		Prefix:        prefix.String(),
		Cipher:        fmt.Sprintf("%04x", hello.ChosenCipher),
		ExtensionHash: extensionHash,
	}, nil
}
