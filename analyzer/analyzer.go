// Package analyzer unites the derivers, the fingerprint database, the
// consistency auditor, and the self-learning observer behind one
// AnalyzeSession call.
//
// Architecture notes:
//   - The analyzer owns nothing global.  Database, observer, auditor, and
//     configuration are explicit constructor arguments; two analyzers with
//     separate stores never interfere.
//   - AnalyzeSession is synchronous and CPU-bound: derivation, matching, and
//     auditing never block on I/O, so callers may invoke it concurrently
//     from as many goroutines as they like.  The only shared mutable state
//     is behind the database's read-write lock and the observer's striped
//     map.
//   - The observer-to-database promotion is a handoff mediated here: ready
//     records are read from the observer, inserted into the database, and
//     only then confirmed (which removes them from the observer).  Neither
//     store references the other.
package analyzer

import (
	"fmt"

	"github.com/firasghr/GoFingerprintEngine/audit"
	"github.com/firasghr/GoFingerprintEngine/config"
	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/fingerprint"
	"github.com/firasghr/GoFingerprintEngine/logger"
	"github.com/firasghr/GoFingerprintEngine/metrics"
	"github.com/firasghr/GoFingerprintEngine/observer"
	"github.com/firasghr/GoFingerprintEngine/session"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// SessionInput carries the parsed wire structures of one observed (or
// emulated) session.  Every field is optional; the analyzer derives whatever
// the present fields allow.
type SessionInput struct {
	ClientHello *wire.TLSClientHello
	ServerHello *wire.TLSServerHello
	Headers     *wire.HTTPRequestHeaders
	TCP         *wire.TCPSynFeatures
	SSHKex      *wire.SSHKexInit

	// ClaimedUserAgent overrides the User-Agent found in Headers; leave
	// empty to use the header value.
	ClaimedUserAgent string
}

// userAgent resolves the claimed User-Agent for the session.
func (in *SessionInput) userAgent() string {
	if in.ClaimedUserAgent != "" {
		return in.ClaimedUserAgent
	}
	if in.Headers != nil {
		return in.Headers.UserAgent
	}
	return ""
}

// SessionReport is the analyzer's full output for one session.
type SessionReport struct {
	// Fingerprints maps each kind that could be derived to its value.
	Fingerprints map[fingerprint.Kind]fingerprint.Fingerprint

	// Verdict is the consistency auditor's output.
	Verdict audit.SessionVerdict

	// Observed lists the self-learning outcomes for fingerprints unknown to
	// the database, in the order they were handed to the observer.
	Observed []observer.Outcome

	// Promoted lists the keys promoted into the database during this call.
	Promoted []string
}

// Analyzer is the engine's top-level API surface.  Construct with New; safe
// for concurrent use.
type Analyzer struct {
	db   *database.DB
	obs  *observer.Observer
	aud  *audit.Auditor
	cfg  *config.Config
	log  *logger.Logger
	met  *metrics.Metrics
	slog *session.Log
}

// New creates an Analyzer over explicitly constructed collaborators.
// cfg may be nil for defaults; log and met may be nil to disable logging and
// metrics.
func New(db *database.DB, obs *observer.Observer, aud *audit.Auditor, cfg *config.Config, log *logger.Logger, met *metrics.Metrics) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Analyzer{
		db:   db,
		obs:  obs,
		aud:  aud,
		cfg:  cfg,
		log:  log,
		met:  met,
		slog: session.NewLog(cfg.SessionLogSize),
	}
}

// Sessions returns the bounded forensic log of analyzed sessions.
func (a *Analyzer) Sessions() *session.Log { return a.slog }

// AnalyzeSession derives every available fingerprint for the session,
// matches them against the database, audits cross-layer consistency, and
// feeds unknown-but-consistent fingerprints to the observer.  The returned
// error is an input error (a present wire structure missing a required
// field); a database miss or a rule violation is data in the report, never
// an error.
func (a *Analyzer) AnalyzeSession(in *SessionInput) (*SessionReport, error) {
	if in == nil {
		return nil, fmt.Errorf("analyzer: nil session input")
	}
	if a.met != nil {
		a.met.SessionsAnalyzed.Add(1)
	}

	report := &SessionReport{
		Fingerprints: make(map[fingerprint.Kind]fingerprint.Fingerprint),
	}
	tuple := &audit.SessionTuple{
		ClientHello:      in.ClientHello,
		Headers:          in.Headers,
		TCP:              in.TCP,
		ClaimedUserAgent: in.userAgent(),
	}

	if err := a.derive(in, tuple, report); err != nil {
		return nil, err
	}

	report.Verdict = a.aud.Audit(tuple)
	a.recordMatchMetrics(&report.Verdict)

	// Self-learning: only sessions whose layers agree are worth learning
	// from.  A Fatal violation halves the score to at most 0.5, so anything
	// above that line carries no lie the rules could see.
	if report.Verdict.ConsistencyScore > 0.5 {
		a.observeUnknown(report)
	}
	report.Promoted = a.PromotePending()

	a.appendSessionRecord(in, report)
	return report, nil
}

// derive computes every fingerprint the input allows and fills in the tuple
// and the report.
func (a *Analyzer) derive(in *SessionInput, tuple *audit.SessionTuple, report *SessionReport) error {
	if in.ClientHello != nil {
		ja3, err := fingerprint.DeriveJA3(in.ClientHello)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		ja4, err := fingerprint.DeriveJA4(in.ClientHello)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		tuple.JA3, tuple.JA4 = &ja3, &ja4
		report.Fingerprints[fingerprint.KindJA3] = ja3
		report.Fingerprints[fingerprint.KindJA4] = ja4
	}
	if in.ServerHello != nil {
		ja3s, err := fingerprint.DeriveJA3S(in.ServerHello)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		ja4s, err := fingerprint.DeriveJA4S(in.ServerHello)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		report.Fingerprints[fingerprint.KindJA3S] = ja3s
		report.Fingerprints[fingerprint.KindJA4S] = ja4s
	}
	if in.Headers != nil {
		ja4h, err := fingerprint.DeriveJA4H(in.Headers)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		tuple.HTTP = &ja4h
		report.Fingerprints[fingerprint.KindJA4H] = ja4h
	}
	if in.TCP != nil {
		ja4t, err := fingerprint.DeriveJA4T(in.TCP)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		p0f, err := fingerprint.DeriveP0f(in.TCP)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		tuple.TCPSignature = &p0f
		report.Fingerprints[fingerprint.KindJA4T] = ja4t
		report.Fingerprints[fingerprint.KindP0f] = p0f
	}
	if in.SSHKex != nil {
		hassh, err := fingerprint.DeriveHASSH(in.SSHKex)
		if err != nil {
			return fmt.Errorf("analyzer: %w", err)
		}
		tuple.SSH = &hassh
		report.Fingerprints[fingerprint.KindHASSH] = hassh
	}
	return nil
}

// learnableKinds are the client-identifying fingerprints worth tracking when
// unknown.  Server-side and TCP descriptors identify the far end or the OS,
// not the client application, and stay out of the learning store.
var learnableKinds = []fingerprint.Kind{
	fingerprint.KindJA3,
	fingerprint.KindJA4,
	fingerprint.KindJA4H,
	fingerprint.KindHASSH,
}

// observeUnknown hands every database-missing learnable fingerprint to the
// observer.
func (a *Analyzer) observeUnknown(report *SessionReport) {
	if a.obs == nil {
		return
	}
	for _, kind := range learnableKinds {
		fp, ok := report.Fingerprints[kind]
		if !ok {
			continue
		}
		if _, known := a.db.LookupExact(fp.Key()); known {
			continue
		}
		outcome := a.obs.Observe(kind, fp.Key(), fp.Decompose())
		report.Observed = append(report.Observed, outcome)
		if a.met != nil {
			a.met.Observations.Add(1)
		}
		if outcome.Evicted && a.log != nil {
			a.log.Debugf("analyzer: observer evicted %s to admit %s", outcome.EvictedKey, fp.Key())
		}
	}
}

// PromotePending moves every promotion-ready observation into the database
// as a learned entry and confirms its removal from the observer.  Called at
// the end of each AnalyzeSession; also callable directly by maintenance
// loops.  Returns the promoted keys.
func (a *Analyzer) PromotePending() []string {
	if a.obs == nil {
		return nil
	}
	ready := a.obs.PromoteReady()
	if len(ready) == 0 {
		return nil
	}
	var promoted []string
	for _, obs := range ready {
		match := database.ProfileMatch{
			ProfileLabel:       fmt.Sprintf("learned %s (%d sightings)", obs.Key, obs.ObservationCount),
			BrowserFamily:      database.FamilyUnknown,
			OSFamily:           database.OSUnknown,
			DeviceClass:        database.DeviceServerSDK,
			ContributingLayers: []fingerprint.Kind{obs.Kind},
			ConfidenceCeiling:  a.cfg.LearnedConfidenceCeiling,
		}
		if err := a.db.Insert(obs.Key, match); err != nil {
			if a.log != nil {
				a.log.Errorf("analyzer: promote %s: %v", obs.Key, err)
			}
			continue
		}
		a.obs.ConfirmPromotion(obs.Key)
		promoted = append(promoted, obs.Key)
		if a.met != nil {
			a.met.Promotions.Add(1)
		}
		if a.log != nil {
			a.log.Infof("analyzer: promoted %s after %d observations (stability %.2f)",
				obs.Key, obs.ObservationCount, obs.StabilityScore)
		}
	}
	return promoted
}

// recordMatchMetrics classifies the verdict for the counters.
func (a *Analyzer) recordMatchMetrics(verdict *audit.SessionVerdict) {
	if a.met == nil {
		return
	}
	switch {
	case verdict.CandidateProfile == nil:
		a.met.Misses.Add(1)
	case verdict.GreaseTolerantMatch:
		a.met.FuzzyMatches.Add(1)
	default:
		a.met.ExactMatches.Add(1)
	}
	if n := len(verdict.Violations); n > 0 {
		a.met.Violations.Add(uint64(n))
	}
}

// appendSessionRecord stores the session in the forensic log.
func (a *Analyzer) appendSessionRecord(in *SessionInput, report *SessionReport) {
	rec := session.Record{
		Fingerprints:     make(map[fingerprint.Kind]string, len(report.Fingerprints)),
		Verdict:          report.Verdict,
		ClaimedUserAgent: in.userAgent(),
	}
	if in.ClientHello != nil {
		rec.SNI = in.ClientHello.SNI
	}
	for kind, fp := range report.Fingerprints {
		rec.Fingerprints[kind] = fp.Canonical()
	}
	a.slog.Append(rec)
}
