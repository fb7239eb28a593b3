// Package audit cross-checks the protocol layers of one session for
// internal consistency.
//
// A legitimate client produces a coherent story across every observable
// layer: the TCP stack, the TLS stack, the HTTP stack, and the User-Agent
// string all belong to the same implementation.  Spoofed traffic almost
// always forges the cheap layers (the User-Agent header, sometimes the TLS
// hello) while leaking the truth through the expensive ones (the OS TCP
// stack, HTTP/2 framing habits).  The auditor runs a fixed rule set over a
// session tuple and reduces the findings to a consistency score plus the
// list of violations.
//
// Violations are data, not errors: a session is fully analysable even when
// every rule fires.
package audit

import (
	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/fingerprint"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// Severity grades a consistency violation.
type Severity int

const (
	// SeverityInfo marks advisory findings that do not reduce the score.
	SeverityInfo Severity = iota
	// SeverityWarn marks findings that reduce the score to 85%.
	SeverityWarn
	// SeverityFatal marks findings that halve the score: disagreements that
	// do not occur for any legitimate client.
	SeverityFatal
)

// String returns "info", "warn", or "fatal".
func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

// weight returns the multiplicative score factor of one violation.
func (s Severity) weight() float64 {
	switch s {
	case SeverityFatal:
		return 0.5
	case SeverityWarn:
		return 0.85
	default:
		return 1.0
	}
}

// Layer names used in violations.
const (
	LayerTCP       = "tcp"
	LayerTLS       = "tls"
	LayerHTTP      = "http"
	LayerUserAgent = "user-agent"
)

// Violation names one rule-identified disagreement between two layers.
type Violation struct {
	// LayerA and LayerB are the two disagreeing layers.
	LayerA string
	LayerB string

	// RuleID identifies the rule that fired.
	RuleID string

	// Severity grades the finding.
	Severity Severity
}

// SessionTuple bundles everything observed on one session.  Every field is
// optional; rules that lack their inputs simply do not fire.
type SessionTuple struct {
	// TCP holds the SYN features, and TCPSignature their p0f rendering.
	TCP          *wire.TCPSynFeatures
	TCPSignature *fingerprint.P0f

	// ClientHello is the raw hello; JA3 and JA4 its derived fingerprints.
	ClientHello *wire.TLSClientHello
	JA3         *fingerprint.JA3
	JA4         *fingerprint.JA4

	// Headers is the HTTP request header set; HTTP its JA4H fingerprint.
	Headers *wire.HTTPRequestHeaders
	HTTP    *fingerprint.JA4H

	// SSH is the HASSH fingerprint when the session carried SSH.
	SSH *fingerprint.HASSH

	// ClaimedUserAgent is the User-Agent header value, or "".
	ClaimedUserAgent string
}

// SessionVerdict is the auditor's output for one session.
type SessionVerdict struct {
	// CandidateProfile is the best identification from the most-trusted
	// layer that matched (JA4 over JA3 over JA4H over HASSH), or nil.
	CandidateProfile *database.ProfileMatch

	// MatchConfidence is the winning layer's match confidence, 0 on a miss.
	MatchConfidence float64

	// ConsistencyScore is 1.0 with no findings, reduced multiplicatively by
	// each violation's severity weight.
	ConsistencyScore float64

	// Violations lists every rule finding in rule order.
	Violations []Violation

	// GreaseTolerantMatch reports that the winning match required GREASE
	// normalisation or similarity rather than exact key equality.
	GreaseTolerantMatch bool
}

// Auditor evaluates session tuples against the fingerprint database and the
// known per-family layer shapes.
type Auditor struct {
	db             *database.DB
	shapes         KnownShapes
	fuzzyThreshold float64
}

// New creates an Auditor.  A nil shapes table selects DefaultShapes; a
// non-positive threshold selects the database default.
func New(db *database.DB, shapes KnownShapes, fuzzyThreshold float64) *Auditor {
	if shapes == nil {
		shapes = DefaultShapes()
	}
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = database.DefaultFuzzyThreshold
	}
	return &Auditor{db: db, shapes: shapes, fuzzyThreshold: fuzzyThreshold}
}

// Shapes returns the auditor's per-family shape table, for registration of
// additional families.
func (a *Auditor) Shapes() KnownShapes { return a.shapes }

// Audit runs the full rule set over tuple and assembles the verdict.
func (a *Auditor) Audit(tuple *SessionTuple) SessionVerdict {
	matches := a.resolveMatches(tuple)

	var violations []Violation
	for _, rule := range rules {
		violations = append(violations, rule(a, tuple, &matches)...)
	}

	score := 1.0
	for _, v := range violations {
		score *= v.Severity.weight()
	}
	if score < 0 {
		score = 0
	}

	verdict := SessionVerdict{
		ConsistencyScore: score,
		Violations:       violations,
	}
	if winner := matches.preferred(); winner != nil {
		profile := winner.Profile
		verdict.CandidateProfile = &profile
		verdict.MatchConfidence = winner.Confidence
		verdict.GreaseTolerantMatch = winner.GreaseTolerant
	}
	return verdict
}

// layerMatches holds the per-layer database results for one audit pass, so
// rules do not repeat lookups.
type layerMatches struct {
	ja4  *database.BrowserMatch
	ja3  *database.BrowserMatch
	http *database.BrowserMatch
	ssh  *database.BrowserMatch
}

// resolveMatches looks up every fingerprint the tuple carries.
func (a *Auditor) resolveMatches(tuple *SessionTuple) layerMatches {
	var m layerMatches
	if tuple.JA4 != nil {
		m.ja4 = a.db.MatchFuzzy(fingerprint.KindJA4, *tuple.JA4, a.fuzzyThreshold)
	}
	if tuple.JA3 != nil {
		m.ja3 = a.db.MatchFuzzy(fingerprint.KindJA3, *tuple.JA3, a.fuzzyThreshold)
	}
	if tuple.HTTP != nil {
		m.http = a.db.MatchFuzzy(fingerprint.KindJA4H, *tuple.HTTP, a.fuzzyThreshold)
	}
	if tuple.SSH != nil {
		m.ssh = a.db.MatchFuzzy(fingerprint.KindHASSH, *tuple.SSH, a.fuzzyThreshold)
	}
	return m
}

// tls returns the best TLS-layer match: JA4 preferred over JA3.
func (m *layerMatches) tls() *database.BrowserMatch {
	if m.ja4 != nil {
		return m.ja4
	}
	return m.ja3
}

// preferred returns the overall winner by layer trust order.
func (m *layerMatches) preferred() *database.BrowserMatch {
	for _, match := range []*database.BrowserMatch{m.ja4, m.ja3, m.http, m.ssh} {
		if match != nil {
			return match
		}
	}
	return nil
}
