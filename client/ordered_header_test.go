package client_test

import (
	"net/http"
	"testing"

	"github.com/firasghr/GoFingerprintEngine/client"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

func TestOrderedHeader_AddAndGet(t *testing.T) {
	var h client.OrderedHeader
	h.Add("accept-language", "en-US,en;q=0.9")
	h.Add("sec-ch-ua-platform", `"Windows"`)

	if got := h.Get("accept-language"); got != "en-US,en;q=0.9" {
		t.Errorf("Get: got %q, want en-US,en;q=0.9", got)
	}
	// Case-insensitive lookup.
	if got := h.Get("Accept-Language"); got != "en-US,en;q=0.9" {
		t.Errorf("Get (canonical case): got %q, want en-US,en;q=0.9", got)
	}
}

func TestOrderedHeader_SetReplaces(t *testing.T) {
	var h client.OrderedHeader
	h.Add("User-Agent", "old-value")
	h.Add("Accept", "*/*")
	h.Set("User-Agent", "new-value")

	if got := h.Get("User-Agent"); got != "new-value" {
		t.Errorf("after Set: got %q, want new-value", got)
	}
	// No duplicates after Set.
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	h.ApplyToRequest(req)
	if vals := req.Header["User-Agent"]; len(vals) != 1 {
		t.Errorf("expected 1 User-Agent after Set, got %d", len(vals))
	}
}

func TestOrderedHeader_Del(t *testing.T) {
	var h client.OrderedHeader
	h.Add("X-Foo", "bar")
	h.Add("X-Baz", "qux")
	h.Del("X-Foo")

	if got := h.Get("X-Foo"); got != "" {
		t.Errorf("after Del: expected empty, got %q", got)
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 entry after Del, got %d", h.Len())
	}
}

func TestOrderedHeader_ApplyToRequest_PreservesCasing(t *testing.T) {
	var h client.OrderedHeader
	h.Add("sec-ch-ua-platform", `"Windows"`)
	h.Add("accept-language", "en-US")

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	h.ApplyToRequest(req)

	// Raw map access must show the exact lowercase key, not the canonical form.
	if _, ok := req.Header["sec-ch-ua-platform"]; !ok {
		t.Error("expected raw key sec-ch-ua-platform to be present in header map")
	}
}

func TestOrderedHeader_Clone(t *testing.T) {
	var h client.OrderedHeader
	h.Add("A", "1")
	c := h.Clone()
	c.Add("B", "2")

	if h.Len() != 1 {
		t.Error("Clone should not affect original length")
	}
	if c.Len() != 2 {
		t.Error("cloned header should have 2 entries")
	}
}

func TestChromeOrderedHeaders_HasRequiredFields(t *testing.T) {
	h := client.ChromeOrderedHeaders()
	required := []string{
		"User-Agent",
		"Accept",
		"accept-language",
		"sec-ch-ua",
		"sec-ch-ua-platform",
	}
	for _, k := range required {
		if h.Get(k) == "" {
			t.Errorf("ChromeOrderedHeaders missing %q", k)
		}
	}
}

func TestOrderedHeader_WireHeaders(t *testing.T) {
	var h client.OrderedHeader
	h.Add("Host", "example.com")
	h.Add("User-Agent", "test-agent")
	h.Add("Cookie", "a=1; b=2; c=3")
	h.Add("Referer", "https://example.com/")
	h.Add("Accept-Language", "en-US,en;q=0.9")

	w := h.WireHeaders("POST", wire.HTTP2)
	if w.Method != "POST" || w.Version != wire.HTTP2 {
		t.Errorf("method/version: got %q %q", w.Method, w.Version)
	}
	if len(w.Headers) != 5 {
		t.Fatalf("expected 5 header pairs, got %d", len(w.Headers))
	}
	// Order and casing must survive the conversion.
	if w.Headers[0].Name != "Host" || w.Headers[4].Name != "Accept-Language" {
		t.Errorf("order lost: %v", w.Headers)
	}
	if w.CookieCount != 3 {
		t.Errorf("cookie count: got %d, want 3", w.CookieCount)
	}
	if !w.RefererPresent {
		t.Error("referer presence lost")
	}
	if w.AcceptLanguage != "en-US,en;q=0.9" {
		t.Errorf("accept-language: got %q", w.AcceptLanguage)
	}
	if w.UserAgent != "test-agent" {
		t.Errorf("user-agent: got %q", w.UserAgent)
	}
}
