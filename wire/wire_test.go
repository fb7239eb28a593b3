package wire_test

import (
	"testing"

	"github.com/firasghr/GoFingerprintEngine/wire"
)

func TestTLSClientHello_ExtensionTypes(t *testing.T) {
	hello := &wire.TLSClientHello{
		Extensions: []wire.Extension{
			{Type: 0x0a0a},
			{Type: 0x0000, Data: []byte{0x01}},
			{Type: 0x0017},
		},
	}
	got := hello.ExtensionTypes()
	want := []uint16{0x0a0a, 0x0000, 0x0017}
	if len(got) != len(want) {
		t.Fatalf("expected %d types, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("type %d: got 0x%04x, want 0x%04x", i, got[i], want[i])
		}
	}
}

func TestTLSClientHello_HasSNI(t *testing.T) {
	if (&wire.TLSClientHello{}).HasSNI() {
		t.Error("empty SNI must report absent")
	}
	if !(&wire.TLSClientHello{SNI: "example.com"}).HasSNI() {
		t.Error("non-empty SNI must report present")
	}
}

func TestHTTPRequestHeaders_HeaderNames(t *testing.T) {
	h := &wire.HTTPRequestHeaders{
		Headers: []wire.HeaderPair{
			{Name: "Host", Value: "example.com"},
			{Name: "user-agent", Value: "x"},
		},
	}
	names := h.HeaderNames()
	if len(names) != 2 || names[0] != "Host" || names[1] != "user-agent" {
		t.Errorf("header names must keep order and casing: %v", names)
	}
}

func TestHTTPRequestHeaders_PseudoHeaderOrder(t *testing.T) {
	h := &wire.HTTPRequestHeaders{
		Version: wire.HTTP2,
		Headers: []wire.HeaderPair{
			{Name: ":method", Value: "GET"},
			{Name: ":authority", Value: "example.com"},
			{Name: "accept", Value: "*/*"},
			{Name: ":path", Value: "/"},
		},
	}
	got := h.PseudoHeaderOrder()
	want := []string{":method", ":authority", ":path"}
	if len(got) != len(want) {
		t.Fatalf("expected %d pseudo-headers, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pseudo-header %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if (&wire.HTTPRequestHeaders{Version: wire.HTTP11}).PseudoHeaderOrder() != nil {
		t.Error("HTTP/1.1 requests carry no pseudo-headers")
	}
}

func TestTCPSynFeatures_OptionalFields(t *testing.T) {
	tcp := &wire.TCPSynFeatures{MSS: wire.AbsentValue, WindowScale: 7}
	if tcp.HasMSS() {
		t.Error("AbsentValue MSS must report absent")
	}
	if !tcp.HasWindowScale() {
		t.Error("present window scale must report present")
	}
}

func TestDirection_String(t *testing.T) {
	if wire.DirectionClient.String() != "client" || wire.DirectionServer.String() != "server" {
		t.Error("direction labels")
	}
}
