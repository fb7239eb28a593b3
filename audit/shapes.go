package audit

import "github.com/firasghr/GoFingerprintEngine/database"

// Shape records the published layer shapes of one browser family: the
// HTTP/2 pseudo-header order and the TLS extension order (GREASE positions
// excluded).  Shapes are data supplied by the collaborator; the defaults
// below cover the four major families.
type Shape struct {
	// PseudoHeaderOrder is the ":"-prefixed header order the family's
	// HTTP/2 stack emits.
	PseudoHeaderOrder []string

	// ExtensionOrder is the family's ClientHello extension order.  Empty
	// disables the extension-order rule for the family; populated by the
	// profile catalog when emulation profiles are registered.
	ExtensionOrder []uint16
}

// KnownShapes maps browser family labels to their recorded shapes.
type KnownShapes map[string]Shape

// DefaultShapes returns the pseudo-header orders of the major browser
// families.  Chromium-based browsers write :method, :authority, :scheme,
// :path; Firefox moves :path second; Safari puts :scheme second.
func DefaultShapes() KnownShapes {
	return KnownShapes{
		database.FamilyChrome: {
			PseudoHeaderOrder: []string{":method", ":authority", ":scheme", ":path"},
		},
		database.FamilyEdge: {
			PseudoHeaderOrder: []string{":method", ":authority", ":scheme", ":path"},
		},
		database.FamilyFirefox: {
			PseudoHeaderOrder: []string{":method", ":path", ":authority", ":scheme"},
		},
		database.FamilySafari: {
			PseudoHeaderOrder: []string{":method", ":scheme", ":path", ":authority"},
		},
	}
}

// SetExtensionOrder records family's extension order, creating the family
// entry when absent.
func (s KnownShapes) SetExtensionOrder(family string, order []uint16) {
	shape := s[family]
	shape.ExtensionOrder = append([]uint16(nil), order...)
	s[family] = shape
}
