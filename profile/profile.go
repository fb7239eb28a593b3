// Package profile provides the emulation-mode client catalog.
//
// A Profile bundles the correlated fingerprint signals of one real client:
// the uTLS ClientHello parrot, the User-Agent, and the ordered header set.
// Advanced anti-bot systems correlate the TLS ClientHello, the HTTP header
// shape, and the User-Agent header; a mismatch between any of these signals
// is a reliable automation indicator, so every signal a profile emits comes
// from the same bundle.
//
// Profiles serve both directions of the engine:
//
//   - Emulation: NewClient builds an outgoing *http.Client whose TLS and
//     header layers reproduce the profile.
//   - Detection: ClientHello converts the profile's parrot spec into the
//     wire model, so the same derivers that fingerprint captured traffic
//     compute the fingerprints this profile is expected to produce, and
//     SeedDatabase registers them as authoritative database entries.
//
// Only two default profiles ship here; the broad per-version browser catalog
// is data maintained by collaborators, loaded through the same SeedDatabase
// path.
package profile

import (
	"fmt"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/firasghr/GoFingerprintEngine/audit"
	"github.com/firasghr/GoFingerprintEngine/client"
	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/fingerprint"
	"github.com/firasghr/GoFingerprintEngine/grease"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// Profile describes one emulatable, detectable client.
type Profile struct {
	// Label is the display name, e.g. "Chrome 120 / Windows".
	Label string

	// BrowserFamily, OSFamily, and DeviceClass use the database package's
	// label constants.
	BrowserFamily string
	OSFamily      string
	DeviceClass   string

	// HelloID selects the uTLS parrot that shapes the TLS ClientHello.
	HelloID utls.ClientHelloID

	// UserAgent is the User-Agent header value the profile sends and claims.
	UserAgent string

	// Headers is the ordered header set the profile sends with every
	// request.
	Headers *client.OrderedHeader

	// H2 carries the HTTP/2 SETTINGS and pseudo-header order the profile's
	// browser advertises.
	H2 client.H2Settings
}

// ChromeProfile returns a Profile that mimics a recent Google Chrome on
// Windows.  The TLS layer parrots the Chrome 120 ClientHello – GREASE
// placeholders, cipher order, and extension order included – so the derived
// JA3/JA4 matches what the real browser produces.
//
// Callers may mutate the returned profile without affecting later calls.
func ChromeProfile() *Profile {
	return &Profile{
		Label:         "Chrome 120 / Windows",
		BrowserFamily: database.FamilyChrome,
		OSFamily:      database.OSWindows,
		DeviceClass:   database.DeviceDesktop,
		HelloID:       utls.HelloChrome_120,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) " +
			"Chrome/120.0.0.0 Safari/537.36",
		Headers: client.ChromeOrderedHeaders(),
		H2:      client.ChromeH2Settings(),
	}
}

// FirefoxProfile returns a Profile that mimics Mozilla Firefox 120 on
// Windows.
func FirefoxProfile() *Profile {
	h := &client.OrderedHeader{}
	h.Add("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) "+
		"Gecko/20100101 Firefox/120.0")
	h.Add("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Add("Accept-Language", "en-US,en;q=0.5")
	h.Add("Accept-Encoding", "gzip, deflate, br")
	h.Add("Upgrade-Insecure-Requests", "1")
	h.Add("Sec-Fetch-Dest", "document")
	h.Add("Sec-Fetch-Mode", "navigate")
	h.Add("Sec-Fetch-Site", "none")
	h.Add("Sec-Fetch-User", "?1")

	return &Profile{
		Label:         "Firefox 120 / Windows",
		BrowserFamily: database.FamilyFirefox,
		OSFamily:      database.OSWindows,
		DeviceClass:   database.DeviceDesktop,
		HelloID:       utls.HelloFirefox_120,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) " +
			"Gecko/20100101 Firefox/120.0",
		Headers: h,
		H2:      client.FirefoxH2Settings(),
	}
}

// ClientHello converts the profile's parrot spec into the wire model, with
// sni as the server name.  The conversion preserves GREASE placeholders and
// extension order, so fingerprints derived from the result are the ones the
// emulated client presents on the wire.
func (p *Profile) ClientHello(sni string) (*wire.TLSClientHello, error) {
	spec := client.ClientHelloSpec(p.HelloID)
	hello, err := ClientHelloFromSpec(&spec, sni)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Label, err)
	}
	return hello, nil
}

// WireHeaders returns the profile's header set in the wire model for the
// given method, as an HTTP/2 request (the protocol every profiled browser
// negotiates against modern servers).
func (p *Profile) WireHeaders(method string) *wire.HTTPRequestHeaders {
	return p.Headers.WireHeaders(method, wire.HTTP2)
}

// NewClient builds an HTTP/1.1 emulation *http.Client whose TLS handshake
// presents the profile's ClientHello.  proxy may be empty for direct
// connections.
func (p *Profile) NewClient(proxy string, timeout time.Duration) (*http.Client, error) {
	return client.NewHTTPClientWithTLS(proxy, timeout, p.HelloID)
}

// NewH2Client builds an HTTP/2 emulation *http.Client: the profile's TLS
// parrot, SETTINGS values, and ordered headers all ride the same transport,
// so every layer a server fingerprints tells the profile's story.
func (p *Profile) NewH2Client(timeout time.Duration) (*http.Client, error) {
	return client.NewH2Client(client.H2TransportConfig{
		HelloID:  p.HelloID,
		Settings: p.H2,
		Headers:  p.Headers,
	}, timeout)
}

// match builds the database record this profile registers under each of its
// fingerprints.
func (p *Profile) match(layers ...fingerprint.Kind) database.ProfileMatch {
	return database.ProfileMatch{
		ProfileLabel:       p.Label,
		BrowserFamily:      p.BrowserFamily,
		OSFamily:           p.OSFamily,
		DeviceClass:        p.DeviceClass,
		ContributingLayers: layers,
		ConfidenceCeiling:  1.0,
	}
}

// SeedDatabase derives the profile's JA3, JA4, and JA4H fingerprints and
// inserts them into db as authoritative entries.  Safe to call repeatedly:
// the database treats re-insertion of the same (key, label) as a no-op.
func (p *Profile) SeedDatabase(db *database.DB) error {
	hello, err := p.ClientHello("")
	if err != nil {
		return err
	}

	ja3, err := fingerprint.DeriveJA3(hello)
	if err != nil {
		return fmt.Errorf("profile %q: derive ja3: %w", p.Label, err)
	}
	if err := db.InsertFingerprint(ja3, p.match(fingerprint.KindJA3)); err != nil {
		return fmt.Errorf("profile %q: insert ja3: %w", p.Label, err)
	}

	ja4, err := fingerprint.DeriveJA4(hello)
	if err != nil {
		return fmt.Errorf("profile %q: derive ja4: %w", p.Label, err)
	}
	if err := db.InsertFingerprint(ja4, p.match(fingerprint.KindJA4)); err != nil {
		return fmt.Errorf("profile %q: insert ja4: %w", p.Label, err)
	}

	ja4h, err := fingerprint.DeriveJA4H(p.WireHeaders(http.MethodGet))
	if err != nil {
		return fmt.Errorf("profile %q: derive ja4h: %w", p.Label, err)
	}
	if err := db.InsertFingerprint(ja4h, p.match(fingerprint.KindJA4H)); err != nil {
		return fmt.Errorf("profile %q: insert ja4h: %w", p.Label, err)
	}

	return nil
}

// RegisterShape records the profile's GREASE-free extension order in shapes
// under its browser family, enabling the auditor's extension-order rule for
// the family.
func (p *Profile) RegisterShape(shapes audit.KnownShapes) error {
	hello, err := p.ClientHello("")
	if err != nil {
		return err
	}
	shapes.SetExtensionOrder(p.BrowserFamily, grease.FilterUint16(hello.ExtensionTypes()))
	return nil
}
