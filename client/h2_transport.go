package client

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	utls "github.com/refraction-networking/utls"
)

// H2Settings groups the HTTP/2 SETTINGS values and framing habits that make
// up one browser family's HTTP/2 fingerprint.  Servers that profile clients
// read these off the connection preface the same way they read the TLS
// ClientHello, so the values a profile advertises must come from the same
// bundle as its TLS parrot and header order.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7540#section-6.5
type H2Settings struct {
	// HeaderTableSize is sent as SETTINGS_HEADER_TABLE_SIZE.
	HeaderTableSize uint32

	// InitialWindowSize is SETTINGS_INITIAL_WINDOW_SIZE, the stream-level
	// flow-control window.
	InitialWindowSize int32

	// ConnWindowSize is the connection-level flow-control increment sent in
	// the WINDOW_UPDATE frame immediately after the client preface.
	ConnWindowSize int32

	// MaxHeaderListSize is SETTINGS_MAX_HEADER_LIST_SIZE; zero means the
	// setting is not advertised.
	MaxHeaderListSize uint32

	// PseudoHeaderOrder lists the pseudo-header names in the order the
	// family's stack writes them.
	PseudoHeaderOrder []string
}

// ChromeH2Settings returns the SETTINGS a Windows Chrome 120 client sends
// (verified against Wireshark traces): header table 65 536, stream window
// 6 291 456, connection WINDOW_UPDATE 15 663 105, max header list 262 144,
// pseudo-headers :method → :authority → :scheme → :path.
func ChromeH2Settings() H2Settings {
	return H2Settings{
		HeaderTableSize:   65536,
		InitialWindowSize: 6291456,
		ConnWindowSize:    15663105,
		MaxHeaderListSize: 262144,
		PseudoHeaderOrder: []string{":method", ":authority", ":scheme", ":path"},
	}
}

// FirefoxH2Settings returns the SETTINGS Firefox 120 sends: header table
// 65 536, stream window 131 072, connection WINDOW_UPDATE 12 517 377, no
// SETTINGS_MAX_HEADER_LIST_SIZE, pseudo-headers :method → :path →
// :authority → :scheme.
func FirefoxH2Settings() H2Settings {
	return H2Settings{
		HeaderTableSize:   65536,
		InitialWindowSize: 131072,
		ConnWindowSize:    12517377,
		PseudoHeaderOrder: []string{":method", ":path", ":authority", ":scheme"},
	}
}

// H2TransportConfig groups the tunable parameters for NewH2Transport.
type H2TransportConfig struct {
	// HelloID is the uTLS ClientHello fingerprint to use for TLS.
	// Defaults to utls.HelloChrome_120 when zero.
	HelloID utls.ClientHelloID

	// Settings carries the profile's HTTP/2 SETTINGS values.  Zero fields
	// leave the http2 library defaults in place.
	Settings H2Settings

	// Headers, when non-nil, is applied to every outgoing request as the
	// ordered base layer; per-request headers override it.
	Headers *OrderedHeader

	// IdleConnTimeout is the maximum time an idle HTTP/2 connection is kept
	// alive.  Defaults to 90 s.
	IdleConnTimeout time.Duration

	// PingTimeout is the time after which a ping-based health-check fails.
	// Defaults to 15 s (the http2 library default).
	PingTimeout time.Duration

	// ReadIdleTimeout enables periodic ping health-checks when > 0.
	ReadIdleTimeout time.Duration
}

// NewH2Transport returns an http.RoundTripper whose TLS handshake, HTTP/2
// SETTINGS, and header order all come from one profile's bundle:
//
//   - The TLS layer dials through the uTLS parrot for cfg.HelloID, so the
//     connection presents the profile's ClientHello.
//   - SETTINGS_HEADER_TABLE_SIZE and SETTINGS_MAX_HEADER_LIST_SIZE are
//     applied from cfg.Settings where the http2 package exposes them.  The
//     stream- and connection-window values are carried in H2Settings as
//     profile data; advertising them on the wire requires the net/http
//     HTTP2Config plumbing, which only applies to transports the http2
//     package constructs itself.
//   - cfg.Headers is written onto every request with exact key casing (the
//     header map does not keep the order across keys), before the caller's
//     own headers are set back on top.
//
// Note on pseudo-header ordering: the golang.org/x/net/http2 library does
// not expose an API for reordering pseudo-headers.  Settings.
// PseudoHeaderOrder records the target order for integrators with a patched
// framing layer; it is the same data the consistency auditor checks on the
// detection side.
func NewH2Transport(cfg H2TransportConfig) http.RoundTripper {
	if cfg.HelloID == (utls.ClientHelloID{}) {
		cfg.HelloID = utls.HelloChrome_120
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	dialFn := UTLSDialer(cfg.HelloID)

	h2t := &http2.Transport{
		// Wire the uTLS dialer so every HTTP/2 connection presents the
		// profile's TLS fingerprint.
		DialTLSContext: func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
			return dialFn(ctx, network, addr, tlsCfg)
		},

		// DisableCompression is true so the transport does not inject its
		// own accept-encoding over the ordered header layer (with it false,
		// the transport adds "accept-encoding: gzip" whenever the canonical
		// Accept-Encoding key is absent, as with lowercase profile keys).
		DisableCompression: true,

		// Health-check and timeout knobs.
		IdleConnTimeout: cfg.IdleConnTimeout,
		PingTimeout:     cfg.PingTimeout,
		ReadIdleTimeout: cfg.ReadIdleTimeout,
	}
	if cfg.Settings.HeaderTableSize > 0 {
		h2t.MaxDecoderHeaderTableSize = cfg.Settings.HeaderTableSize
		h2t.MaxEncoderHeaderTableSize = cfg.Settings.HeaderTableSize
	}
	if cfg.Settings.MaxHeaderListSize > 0 {
		h2t.MaxHeaderListSize = cfg.Settings.MaxHeaderListSize
	}

	if cfg.Headers == nil {
		return h2t
	}
	return &orderedHeaderRoundTripper{h2: h2t, defaults: cfg.Headers}
}

// orderedHeaderRoundTripper wraps an http2.Transport and applies a profile's
// ordered headers to every request before forwarding it.
type orderedHeaderRoundTripper struct {
	h2       *http2.Transport
	defaults *OrderedHeader
}

// RoundTrip satisfies http.RoundTripper.  It clones the incoming request,
// applies the profile's ordered headers (exact key casing; http.Header is a
// map, so the order across different keys is not kept), and delegates to the
// underlying http2.Transport.
//
// Headers already present on the request are NOT discarded: the method
// merges them back over the profile defaults so that per-request values
// (e.g. Authorization, Cookie) win.
func (t *orderedHeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone so we do not mutate the caller's request.
	r := req.Clone(req.Context())
	callerHeaders := r.Header

	// The profile's ordered headers become the base layer.
	t.defaults.ApplyToRequest(r)

	// Re-apply the caller's headers so they win over the defaults.
	for key, vals := range callerHeaders {
		r.Header[key] = vals
	}

	return t.h2.RoundTrip(r)
}
