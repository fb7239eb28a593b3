package analyzer

import (
	"fmt"
	"net/http"

	"github.com/firasghr/GoFingerprintEngine/profile"
)

// VerifyProfile runs an emulation profile's own wire structures through
// detection and checks that the round trip closes: the profile must come
// back as an exact, fully consistent match for itself.
//
// This is the self-check tying the two modes of the engine together – a
// profile that fails it would be flagged as an impersonator by any server
// running the same rule set.  The profile must have been seeded into the
// analyzer's database first.
func (a *Analyzer) VerifyProfile(p *profile.Profile) error {
	hello, err := p.ClientHello("")
	if err != nil {
		return fmt.Errorf("analyzer: verify %q: %w", p.Label, err)
	}

	report, err := a.AnalyzeSession(&SessionInput{
		ClientHello:      hello,
		Headers:          p.WireHeaders(http.MethodGet),
		ClaimedUserAgent: p.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("analyzer: verify %q: %w", p.Label, err)
	}

	verdict := report.Verdict
	if verdict.CandidateProfile == nil {
		return fmt.Errorf("analyzer: verify %q: no database match (profile not seeded?)", p.Label)
	}
	if verdict.CandidateProfile.ProfileLabel != p.Label {
		return fmt.Errorf("analyzer: verify %q: matched %q instead", p.Label, verdict.CandidateProfile.ProfileLabel)
	}
	if verdict.GreaseTolerantMatch {
		return fmt.Errorf("analyzer: verify %q: match was not exact", p.Label)
	}
	if verdict.ConsistencyScore < 1.0 {
		return fmt.Errorf("analyzer: verify %q: consistency %.2f with %d violation(s)",
			p.Label, verdict.ConsistencyScore, len(verdict.Violations))
	}
	return nil
}
