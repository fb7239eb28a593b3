package profile_test

import (
	"testing"

	utls "github.com/refraction-networking/utls"

	"github.com/firasghr/GoFingerprintEngine/audit"
	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/fingerprint"
	"github.com/firasghr/GoFingerprintEngine/profile"
)

func TestChromeProfile_ClientHello(t *testing.T) {
	p := profile.ChromeProfile()
	hello, err := p.ClientHello("example.com")
	if err != nil {
		t.Fatalf("ClientHello: %v", err)
	}

	if len(hello.CipherSuites) == 0 {
		t.Fatal("expected cipher suites from the Chrome parrot")
	}
	if len(hello.Extensions) == 0 {
		t.Fatal("expected extensions from the Chrome parrot")
	}
	if hello.SNI != "example.com" {
		t.Errorf("SNI: got %q", hello.SNI)
	}
	if len(hello.SupportedVersions) == 0 {
		t.Error("expected supported_versions to be extracted")
	}
	if len(hello.SupportedGroups) == 0 {
		t.Error("expected supported groups to be extracted")
	}

	foundALPN := false
	for _, proto := range hello.ALPNValues {
		if proto == "h2" {
			foundALPN = true
		}
	}
	if !foundALPN {
		t.Error("Chrome parrot must offer h2 via ALPN")
	}
}

func TestChromeProfile_FingerprintsDerivable(t *testing.T) {
	p := profile.ChromeProfile()
	hello, err := p.ClientHello("")
	if err != nil {
		t.Fatalf("ClientHello: %v", err)
	}

	ja3, err := fingerprint.DeriveJA3(hello)
	if err != nil {
		t.Fatalf("DeriveJA3: %v", err)
	}
	ja4, err := fingerprint.DeriveJA4(hello)
	if err != nil {
		t.Fatalf("DeriveJA4: %v", err)
	}

	// Re-deriving from a fresh conversion must give identical fingerprints:
	// the conversion is deterministic even though the live handshake would
	// randomise GREASE values.
	hello2, err := p.ClientHello("")
	if err != nil {
		t.Fatalf("ClientHello: %v", err)
	}
	ja3b, _ := fingerprint.DeriveJA3(hello2)
	ja4b, _ := fingerprint.DeriveJA4(hello2)
	if ja3.Preimage != ja3b.Preimage {
		t.Error("profile JA3 must be stable across conversions")
	}
	if ja4.Canonical() != ja4b.Canonical() {
		t.Error("profile JA4 must be stable across conversions")
	}
}

func TestSeedDatabase(t *testing.T) {
	db := database.New()
	p := profile.ChromeProfile()
	if err := p.SeedDatabase(db); err != nil {
		t.Fatalf("SeedDatabase: %v", err)
	}
	if db.Len() != 3 {
		t.Errorf("expected 3 seeded keys (ja3, ja4, ja4h), got %d", db.Len())
	}

	// Seeding twice must not duplicate.
	if err := p.SeedDatabase(db); err != nil {
		t.Fatalf("SeedDatabase (second): %v", err)
	}
	if db.Len() != 3 {
		t.Errorf("re-seeding grew the database to %d keys", db.Len())
	}

	hello, _ := p.ClientHello("")
	ja4, _ := fingerprint.DeriveJA4(hello)
	matches, ok := db.LookupExact(ja4.Key())
	if !ok {
		t.Fatal("seeded JA4 key missing")
	}
	if matches[0].ProfileLabel != p.Label || matches[0].BrowserFamily != database.FamilyChrome {
		t.Errorf("seeded match: %+v", matches[0])
	}
}

func TestFirefoxProfile_Distinct(t *testing.T) {
	chrome := profile.ChromeProfile()
	firefox := profile.FirefoxProfile()

	ch, err := chrome.ClientHello("")
	if err != nil {
		t.Fatalf("chrome hello: %v", err)
	}
	fh, err := firefox.ClientHello("")
	if err != nil {
		t.Fatalf("firefox hello: %v", err)
	}

	cJA3, _ := fingerprint.DeriveJA3(ch)
	fJA3, _ := fingerprint.DeriveJA3(fh)
	if cJA3.Preimage == fJA3.Preimage {
		t.Error("Chrome and Firefox parrots must not share a JA3")
	}
}

func TestRegisterShape(t *testing.T) {
	shapes := audit.DefaultShapes()
	p := profile.ChromeProfile()
	if err := p.RegisterShape(shapes); err != nil {
		t.Fatalf("RegisterShape: %v", err)
	}
	shape := shapes[database.FamilyChrome]
	if len(shape.ExtensionOrder) == 0 {
		t.Fatal("expected a recorded extension order")
	}
	for _, ext := range shape.ExtensionOrder {
		if ext&0x0f0f == 0x0a0a {
			t.Errorf("GREASE value 0x%04x leaked into the registered shape", ext)
		}
	}
	if len(shape.PseudoHeaderOrder) == 0 {
		t.Error("registering an extension order must not drop the pseudo-header order")
	}
}

func TestClientHelloFromSpec_Errors(t *testing.T) {
	if _, err := profile.ClientHelloFromSpec(nil, ""); err == nil {
		t.Fatal("expected error for nil spec")
	}
	if _, err := profile.ClientHelloFromSpec(&utls.ClientHelloSpec{}, ""); err == nil {
		t.Fatal("expected error for spec without ciphers")
	}
}

func TestNewH2Client_CarriesProfileSettings(t *testing.T) {
	p := profile.ChromeProfile()
	if len(p.H2.PseudoHeaderOrder) == 0 {
		t.Fatal("Chrome profile must carry HTTP/2 settings")
	}

	c, err := p.NewH2Client(10e9)
	if err != nil {
		t.Fatalf("NewH2Client: %v", err)
	}
	if c.Transport == nil {
		t.Error("expected a profile-shaped HTTP/2 transport")
	}
	if c.Jar == nil {
		t.Error("expected a cookie jar")
	}

	// The two default profiles must not share an HTTP/2 shape.
	if profile.FirefoxProfile().H2.InitialWindowSize == p.H2.InitialWindowSize {
		t.Error("Chrome and Firefox profiles must advertise different stream windows")
	}
}

func TestWireHeaders(t *testing.T) {
	p := profile.ChromeProfile()
	headers := p.WireHeaders("GET")
	if headers.Method != "GET" {
		t.Errorf("method: got %q", headers.Method)
	}
	if headers.UserAgent == "" {
		t.Error("expected a User-Agent in the wire headers")
	}
	if len(headers.Headers) == 0 {
		t.Error("expected ordered header pairs")
	}
	ja4h, err := fingerprint.DeriveJA4H(headers)
	if err != nil {
		t.Fatalf("DeriveJA4H: %v", err)
	}
	if ja4h.Canonical() == "" {
		t.Error("expected a derivable JA4H")
	}
}
