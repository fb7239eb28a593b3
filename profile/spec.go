package profile

import (
	"encoding/binary"
	"fmt"

	utls "github.com/refraction-networking/utls"

	"github.com/firasghr/GoFingerprintEngine/wire"
)

// ClientHelloFromSpec converts a uTLS ClientHelloSpec into the wire model.
//
// The conversion walks the spec the way the TLS stack serialises it: cipher
// suites and extensions keep their order and their GREASE placeholders, and
// the list-valued extensions (supported groups, point formats, signature
// algorithms, ALPN, supported versions) are decoded into the wire type's
// pre-extracted fields exactly as a capture-side parser would populate them.
//
// The legacy record version is pinned to TLS 1.2 unless the spec caps the
// version lower – every TLS 1.3 client freezes the legacy field at 0x0303
// and negotiates upward through supported_versions.
func ClientHelloFromSpec(spec *utls.ClientHelloSpec, sni string) (*wire.TLSClientHello, error) {
	if spec == nil || len(spec.CipherSuites) == 0 {
		return nil, fmt.Errorf("profile: client hello spec has no cipher suites")
	}

	hello := &wire.TLSClientHello{
		LegacyVersion: 0x0303,
		CipherSuites:  append([]uint16(nil), spec.CipherSuites...),
		SNI:           sni,
	}
	if spec.TLSVersMax != 0 && spec.TLSVersMax < 0x0303 {
		hello.LegacyVersion = spec.TLSVersMax
	}

	for _, ext := range spec.Extensions {
		id, ok := extensionID(ext)
		if !ok {
			continue
		}
		hello.Extensions = append(hello.Extensions, wire.Extension{Type: id})

		switch e := ext.(type) {
		case *utls.SupportedCurvesExtension:
			for _, curve := range e.Curves {
				hello.SupportedGroups = append(hello.SupportedGroups, uint16(curve))
			}
		case *utls.SupportedPointsExtension:
			hello.ECPointFormats = append([]uint8(nil), e.SupportedPoints...)
		case *utls.SignatureAlgorithmsExtension:
			for _, alg := range e.SupportedSignatureAlgorithms {
				hello.SignatureAlgorithms = append(hello.SignatureAlgorithms, uint16(alg))
			}
		case *utls.ALPNExtension:
			hello.ALPNValues = append([]string(nil), e.AlpnProtocols...)
		case *utls.SupportedVersionsExtension:
			hello.SupportedVersions = append([]uint16(nil), e.Versions...)
		}
	}

	return hello, nil
}

// extensionID resolves the extension type codepoint of one spec entry.
//
// GREASE placeholders carry a randomised value chosen at handshake time; the
// wire model records the 0x0a0a class representative, which the derivers
// strip regardless of the concrete value.  Every other extension serialises
// its own header, so the codepoint is read back from the first two bytes of
// its encoding rather than maintained in a parallel table.
func extensionID(ext utls.TLSExtension) (uint16, bool) {
	switch e := ext.(type) {
	case *utls.UtlsGREASEExtension:
		return utls.GREASE_PLACEHOLDER, true
	case *utls.SNIExtension:
		return 0x0000, true
	case *utls.GenericExtension:
		return e.Id, true
	}

	length := ext.Len()
	if length < 2 {
		return 0, false
	}
	buf := make([]byte, length)
	if n, err := ext.Read(buf); n < 2 && err != nil {
		return 0, false
	}
	return binary.BigEndian.Uint16(buf[:2]), true
}
