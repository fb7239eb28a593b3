// Package wire defines the in-memory representations of already-parsed
// protocol structures: a TLS ClientHello, a TLS ServerHello, an SSH KEX_INIT,
// an HTTP request header set, and the features of a TCP SYN segment.
//
// The engine never parses packets itself – capture loops, TLS record
// reassembly, and HTTP transports are external collaborators that hand these
// structs to the fingerprint derivers fully populated.  The types here are
// passive values: construction from trusted parsed input and accessors only.
//
// Order is a first-class semantic property.  Every list field (cipher suites,
// extensions, header pairs, TCP options, …) preserves the exact wire order,
// including any GREASE placeholders the client inserted.  GREASE filtering is
// applied by the derivers at hash time, never here, so the original values
// remain available for forensic display.
package wire

// Direction identifies which side of an SSH connection produced a KEX_INIT.
type Direction int

const (
	// DirectionClient marks algorithm lists sent by the connecting client.
	DirectionClient Direction = iota
	// DirectionServer marks algorithm lists sent by the accepting server.
	DirectionServer
)

// String returns "client" or "server".
func (d Direction) String() string {
	if d == DirectionServer {
		return "server"
	}
	return "client"
}

// HTTPVersion enumerates the protocol versions the header model distinguishes.
type HTTPVersion string

const (
	HTTP10 HTTPVersion = "HTTP/1.0"
	HTTP11 HTTPVersion = "HTTP/1.1"
	HTTP2  HTTPVersion = "HTTP/2"
	HTTP3  HTTPVersion = "HTTP/3"
)

// Extension is one TLS extension as it appeared on the wire: its 16-bit type
// codepoint plus the raw payload bytes.  The payload is kept so collaborators
// can re-derive list fields (supported groups, ALPN, …) when they were not
// pre-extracted, and for forensic display.
type Extension struct {
	Type uint16
	Data []byte
}

// TLSClientHello is a parsed ClientHello message.
//
// The list fields that feed fingerprint derivation (SupportedGroups,
// ECPointFormats, SignatureAlgorithms, ALPNValues, SupportedVersions) are the
// decoded payloads of the corresponding extensions; the collaborator extracts
// them once at parse time so the derivers do not re-walk extension payloads.
type TLSClientHello struct {
	// LegacyVersion is the 16-bit client_version field of the hello record.
	// Informational for TLS 1.3 clients (which negotiate via
	// supported_versions) but it is the version JA3 hashes.
	LegacyVersion uint16

	// CipherSuites lists the offered cipher suite codepoints in wire order,
	// GREASE placeholders included.
	CipherSuites []uint16

	// Extensions lists every extension in wire order with payloads.
	Extensions []Extension

	// SupportedGroups is the decoded payload of the supported_groups (10)
	// extension, wire order, GREASE included.
	SupportedGroups []uint16

	// ECPointFormats is the decoded payload of ec_point_formats (11).
	ECPointFormats []uint8

	// SignatureAlgorithms is the decoded payload of signature_algorithms (13),
	// wire order, GREASE included.
	SignatureAlgorithms []uint16

	// SupportedVersions is the decoded payload of supported_versions (43),
	// wire order, GREASE included.  Empty for pre-TLS-1.3 clients.
	SupportedVersions []uint16

	// ALPNValues lists the ALPN protocol tokens from extension 16, in order.
	ALPNValues []string

	// SNI is the server name from extension 0, or "" when absent.  Used for
	// ancillary logging and the JA4 SNI-presence letter only – never hashed.
	SNI string

	// QUIC is true when the hello was carried over QUIC rather than TCP.
	// Selects the JA4 protocol letter.
	QUIC bool
}

// ExtensionTypes returns the extension type codepoints in wire order.
func (h *TLSClientHello) ExtensionTypes() []uint16 {
	types := make([]uint16, len(h.Extensions))
	for i, ext := range h.Extensions {
		types[i] = ext.Type
	}
	return types
}

// HasSNI reports whether the hello carried a non-empty server name.
func (h *TLSClientHello) HasSNI() bool { return h.SNI != "" }

// TLSServerHello is a parsed ServerHello message.
type TLSServerHello struct {
	// NegotiatedVersion is the version field of the ServerHello record (for
	// TLS 1.3 servers the value found in supported_versions, if the
	// collaborator resolved it; otherwise the legacy field).
	NegotiatedVersion uint16

	// ChosenCipher is the single cipher suite the server selected.
	ChosenCipher uint16

	// Extensions lists the server's extension codepoints in wire order.
	Extensions []uint16

	// ALPN is the protocol the server confirmed, or "" when absent.
	ALPN string

	// QUIC is true when the hello was carried over QUIC.
	QUIC bool
}

// SSHKexInit is a parsed SSH2_MSG_KEXINIT from one direction of an SSH
// connection.  Each list holds the ASCII algorithm names exactly as they
// appeared on the wire, in preference order.
type SSHKexInit struct {
	Direction             Direction
	KexAlgorithms         []string
	EncryptionAlgorithms  []string
	MACAlgorithms         []string
	CompressionAlgorithms []string
}

// HeaderPair is one HTTP header as received: original casing, original order.
type HeaderPair struct {
	Name  string
	Value string
}

// HTTPRequestHeaders is the header set of one HTTP request.
type HTTPRequestHeaders struct {
	// Method is the request method verbatim ("GET", "POST", …).
	Method string

	// Version is the HTTP protocol version of the request.
	Version HTTPVersion

	// Headers lists all headers in the order they were sent, original casing
	// preserved.  For HTTP/2 and HTTP/3 requests this includes the
	// pseudo-headers (":method", ":authority", …) in their wire positions.
	Headers []HeaderPair

	// CookieCount is the number of cookies carried by the request.
	CookieCount int

	// RefererPresent reports whether a Referer header was sent.
	RefererPresent bool

	// AcceptLanguage is the raw Accept-Language value, or "" when absent.
	AcceptLanguage string

	// UserAgent is the raw User-Agent value, or "" when absent.
	UserAgent string
}

// HeaderNames returns the header names in wire order, original casing.
func (h *HTTPRequestHeaders) HeaderNames() []string {
	names := make([]string, len(h.Headers))
	for i, p := range h.Headers {
		names[i] = p.Name
	}
	return names
}

// PseudoHeaderOrder returns the ":"-prefixed header names in wire order.
// Empty for HTTP/1.x requests.
func (h *HTTPRequestHeaders) PseudoHeaderOrder() []string {
	var pseudo []string
	for _, p := range h.Headers {
		if len(p.Name) > 0 && p.Name[0] == ':' {
			pseudo = append(pseudo, p.Name)
		}
	}
	return pseudo
}

// AbsentValue marks an optional integer TCP feature that was not present in
// the SYN segment.
const AbsentValue = -1

// TCPSynFeatures captures the passively observable features of a TCP SYN
// segment, in the style of p0f signatures.
type TCPSynFeatures struct {
	// IPVersion is 4 or 6.
	IPVersion int

	// WindowSize is the advertised receive window.
	WindowSize int

	// MSS is the maximum segment size option value, or AbsentValue.
	MSS int

	// WindowScale is the window-scale option shift count, or AbsentValue.
	WindowScale int

	// TTLObserved is the IP TTL (hop limit) seen at the capture point.
	TTLObserved int

	// TCPOptionsOrder lists the TCP option kind bytes in wire order
	// (2 = MSS, 1 = NOP, 3 = window scale, 4 = SACK-permitted,
	// 8 = timestamps, 0 = end-of-options).
	TCPOptionsOrder []uint8

	// DF reports whether the IP don't-fragment flag was set.
	DF bool
}

// HasMSS reports whether the SYN carried an MSS option.
func (t *TCPSynFeatures) HasMSS() bool { return t.MSS != AbsentValue }

// HasWindowScale reports whether the SYN carried a window-scale option.
func (t *TCPSynFeatures) HasWindowScale() bool { return t.WindowScale != AbsentValue }
