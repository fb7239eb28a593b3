package client_test

import (
	"net/http"
	"testing"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/firasghr/GoFingerprintEngine/client"
)

func TestNewH2Transport_NotNil(t *testing.T) {
	rt := client.NewH2Transport(client.H2TransportConfig{})
	if rt == nil {
		t.Fatal("NewH2Transport returned nil")
	}
	var _ http.RoundTripper = rt // compile-time interface check
}

func TestNewH2Transport_WithSettingsAndHeaders(t *testing.T) {
	rt := client.NewH2Transport(client.H2TransportConfig{
		HelloID:         utls.HelloChrome_131,
		Settings:        client.ChromeH2Settings(),
		Headers:         client.ChromeOrderedHeaders(),
		IdleConnTimeout: 30 * time.Second,
	})
	if rt == nil {
		t.Fatal("NewH2Transport with settings returned nil")
	}
}

func TestNewH2Client_NotNil(t *testing.T) {
	c, err := client.NewH2Client(client.H2TransportConfig{
		Settings: client.FirefoxH2Settings(),
	}, 10*time.Second)
	if err != nil {
		t.Fatalf("NewH2Client: %v", err)
	}
	if c.Jar == nil {
		t.Error("expected non-nil cookie jar")
	}
	if c.Transport == nil {
		t.Error("expected non-nil transport")
	}
}

func TestChromeH2Settings_PseudoHeaderOrder(t *testing.T) {
	want := []string{":method", ":authority", ":scheme", ":path"}
	got := client.ChromeH2Settings().PseudoHeaderOrder

	if len(got) != len(want) {
		t.Fatalf("pseudo-header order length: got %d, want %d", len(got), len(want))
	}
	for i, h := range want {
		if got[i] != h {
			t.Errorf("pseudo-header[%d]: got %q, want %q", i, got[i], h)
		}
	}

	// Chrome's order must differ from Go's default HTTP/2 ordering
	// (:method → :path → :scheme → :authority); a transport that fell back
	// to the default order would be flagged by any order-checking server.
	goDefault := []string{":method", ":path", ":scheme", ":authority"}
	identical := true
	for i := range got {
		if got[i] != goDefault[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("Chrome pseudo-header order must differ from Go's default")
	}
}

func TestH2Settings_FamiliesDiffer(t *testing.T) {
	chrome := client.ChromeH2Settings()
	firefox := client.FirefoxH2Settings()

	if chrome.InitialWindowSize == firefox.InitialWindowSize {
		t.Error("Chrome and Firefox stream windows must differ")
	}
	if firefox.MaxHeaderListSize != 0 {
		t.Error("Firefox does not advertise SETTINGS_MAX_HEADER_LIST_SIZE")
	}
	samePseudo := len(chrome.PseudoHeaderOrder) == len(firefox.PseudoHeaderOrder)
	if samePseudo {
		for i := range chrome.PseudoHeaderOrder {
			if chrome.PseudoHeaderOrder[i] != firefox.PseudoHeaderOrder[i] {
				samePseudo = false
				break
			}
		}
	}
	if samePseudo {
		t.Error("Chrome and Firefox pseudo-header orders must differ")
	}
}
