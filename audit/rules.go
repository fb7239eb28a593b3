package audit

import (
	"github.com/agext/levenshtein"

	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/grease"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// Rule identifiers, in evaluation order.
const (
	RuleTCPOSAgreement      = "tcp-os-agreement"
	RuleTLSHTTPAgreement    = "tls-http-agreement"
	RuleUATruthfulness      = "ua-truthfulness"
	RuleVersionMonotonicity = "version-monotonicity"
	RulePseudoHeaderOrder   = "pseudo-header-order"
	RuleExtensionOrderShape = "extension-order-shape"
)

// ruleFunc evaluates one rule; a nil/empty result means the rule did not fire.
type ruleFunc func(a *Auditor, tuple *SessionTuple, m *layerMatches) []Violation

// rules is the exhaustive, ordered rule set.
var rules = []ruleFunc{
	ruleTCPOSAgreement,
	ruleTLSHTTPAgreement,
	ruleUATruthfulness,
	ruleVersionMonotonicity,
	rulePseudoHeaderOrder,
	ruleExtensionOrderShape,
}

// ruleTCPOSAgreement: with both a TCP signature and a TLS match present, the
// OS family inferred from the TCP stack must equal the TLS profile's OS
// family or be unknown.  A Linux TCP stack under a "Windows Chrome" TLS
// fingerprint is a lie no configuration can produce.  Fatal.
func ruleTCPOSAgreement(a *Auditor, tuple *SessionTuple, m *layerMatches) []Violation {
	tls := m.tls()
	if tuple.TCP == nil || tls == nil {
		return nil
	}
	claimed := tls.Profile.OSFamily
	if claimed == "" || claimed == database.OSUnknown {
		return nil
	}
	inferred := InferOSFamily(tuple.TCP)
	if inferred == database.OSUnknown || inferred == claimed {
		return nil
	}
	return []Violation{{
		LayerA:   LayerTCP,
		LayerB:   LayerTLS,
		RuleID:   RuleTCPOSAgreement,
		Severity: SeverityFatal,
	}}
}

// ruleTLSHTTPAgreement: when JA4 and JA4H both identify a browser family,
// the families must agree.  Fatal.
func ruleTLSHTTPAgreement(_ *Auditor, _ *SessionTuple, m *layerMatches) []Violation {
	if m.ja4 == nil || m.http == nil {
		return nil
	}
	tlsFamily := m.ja4.Profile.BrowserFamily
	httpFamily := m.http.Profile.BrowserFamily
	if tlsFamily == database.FamilyUnknown || httpFamily == database.FamilyUnknown {
		return nil
	}
	if tlsFamily == httpFamily {
		return nil
	}
	return []Violation{{
		LayerA:   LayerTLS,
		LayerB:   LayerHTTP,
		RuleID:   RuleTLSHTTPAgreement,
		Severity: SeverityFatal,
	}}
}

// ruleUATruthfulness: a User-Agent that parses to a browser family must name
// the family the TLS layer identified.  Warn – shared TLS stacks (WebViews,
// Electron) produce legitimate mismatches often enough to stay below Fatal.
func ruleUATruthfulness(_ *Auditor, tuple *SessionTuple, m *layerMatches) []Violation {
	tls := m.tls()
	if tuple.ClaimedUserAgent == "" || tls == nil {
		return nil
	}
	claimed, _ := ParseUserAgent(tuple.ClaimedUserAgent)
	tlsFamily := tls.Profile.BrowserFamily
	if claimed == database.FamilyUnknown || tlsFamily == database.FamilyUnknown {
		return nil
	}
	if claimed == tlsFamily {
		return nil
	}
	return []Violation{{
		LayerA:   LayerUserAgent,
		LayerB:   LayerTLS,
		RuleID:   RuleUATruthfulness,
		Severity: SeverityWarn,
	}}
}

// ruleVersionMonotonicity: a hello whose supported_versions tops out at TLS
// 1.2 under a User-Agent claiming a major browser released after TLS 1.3
// became universal.  Warn.
func ruleVersionMonotonicity(_ *Auditor, tuple *SessionTuple, _ *layerMatches) []Violation {
	if tuple.ClientHello == nil || tuple.ClaimedUserAgent == "" {
		return nil
	}
	offered := grease.FilterUint16(tuple.ClientHello.SupportedVersions)
	if len(offered) == 0 {
		// Pre-1.3 hello without the extension; the legacy version decides.
		if tuple.ClientHello.LegacyVersion >= 0x0304 {
			return nil
		}
	} else {
		for _, v := range offered {
			if v >= 0x0304 {
				return nil
			}
		}
	}
	family, major := ParseUserAgent(tuple.ClaimedUserAgent)
	if !modernBrowserVersion(family, major) {
		return nil
	}
	return []Violation{{
		LayerA:   LayerUserAgent,
		LayerB:   LayerTLS,
		RuleID:   RuleVersionMonotonicity,
		Severity: SeverityWarn,
	}}
}

// modernBrowserVersion reports whether the family/version pair shipped with
// TLS 1.3 enabled by default.
func modernBrowserVersion(family string, major int) bool {
	switch family {
	case database.FamilyChrome:
		return major >= 70
	case database.FamilyFirefox:
		return major >= 63
	case database.FamilySafari:
		return major >= 13
	case database.FamilyEdge:
		return major >= 79
	default:
		return false
	}
}

// rulePseudoHeaderOrder: for HTTP/2+ requests the pseudo-header order must
// match the order published for the claimed browser family.  Warn.
func rulePseudoHeaderOrder(a *Auditor, tuple *SessionTuple, _ *layerMatches) []Violation {
	if tuple.Headers == nil {
		return nil
	}
	if tuple.Headers.Version != wire.HTTP2 && tuple.Headers.Version != wire.HTTP3 {
		return nil
	}
	observed := tuple.Headers.PseudoHeaderOrder()
	if len(observed) == 0 {
		return nil
	}
	family, _ := ParseUserAgent(tuple.ClaimedUserAgent)
	shape, ok := a.shapes[family]
	if !ok || len(shape.PseudoHeaderOrder) == 0 {
		return nil
	}
	if equalStrings(observed, shape.PseudoHeaderOrder) {
		return nil
	}
	return []Violation{{
		LayerA:   LayerHTTP,
		LayerB:   LayerUserAgent,
		RuleID:   RulePseudoHeaderOrder,
		Severity: SeverityWarn,
	}}
}

// ruleExtensionOrderShape: the TLS extension order (GREASE positions
// ignored) must match the shape recorded for the claimed browser family
// within edit distance 1.  Distance 1 absorbs the single-position churn
// browser updates introduce; anything farther is a different stack.  Warn.
func ruleExtensionOrderShape(a *Auditor, tuple *SessionTuple, _ *layerMatches) []Violation {
	if tuple.ClientHello == nil {
		return nil
	}
	family, _ := ParseUserAgent(tuple.ClaimedUserAgent)
	shape, ok := a.shapes[family]
	if !ok || len(shape.ExtensionOrder) == 0 {
		return nil
	}
	observed := grease.FilterUint16(tuple.ClientHello.ExtensionTypes())
	expected := grease.FilterUint16(shape.ExtensionOrder)
	if extensionOrderDistance(observed, expected) <= 1 {
		return nil
	}
	return []Violation{{
		LayerA:   LayerTLS,
		LayerB:   LayerUserAgent,
		RuleID:   RuleExtensionOrderShape,
		Severity: SeverityWarn,
	}}
}

// extensionOrderDistance is the Levenshtein distance between two extension
// sequences.  Each codepoint maps to one rune so the string-edit-distance
// library applies directly to codepoint sequences.
func extensionOrderDistance(a, b []uint16) int {
	return levenshtein.Distance(runesOf(a), runesOf(b), nil)
}

// runesOf encodes a codepoint sequence as a string, one rune per codepoint.
func runesOf(values []uint16) string {
	runes := make([]rune, len(values))
	for i, v := range values {
		runes[i] = rune(v)
	}
	return string(runes)
}

// equalStrings reports element-wise equality of two string slices.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
