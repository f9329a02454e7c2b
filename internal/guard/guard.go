// Package guard scans selections for credentials before they are sent to a
// remote model.
package guard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"
)

// ErrSecretDetected is wrapped by errors returned from Check.
var ErrSecretDetected = errors.New("selection looks like it contains a secret")

// SecretError names the rule that matched a selection.
type SecretError struct {
	RuleID string
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrSecretDetected, e.RuleID)
}

func (e *SecretError) Unwrap() error { return ErrSecretDetected }

// Finding is a redacted match.
type Finding struct {
	RuleID      string
	Description string
	Line        int
}

// Scanner finds secrets in text.
type Scanner interface {
	Scan(text string) []Finding
}

// Gitleaks scans with the gitleaks default rule set.
type Gitleaks struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewGitleaks loads the default gitleaks configuration.
func NewGitleaks() (*Gitleaks, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}
	return &Gitleaks{detector: d}, nil
}

// Scan runs the detector over text. The matched secret is never returned.
func (g *Gitleaks) Scan(text string) []Finding {
	g.mu.Lock()
	defer g.mu.Unlock()

	return convert(g.detector.DetectString(text))
}

func convert(in []report.Finding) []Finding {
	out := make([]Finding, 0, len(in))
	for _, f := range in {
		out = append(out, Finding{RuleID: f.RuleID, Description: f.Description, Line: f.StartLine})
	}
	return out
}

// Check returns a *SecretError for the first rule that matched, or nil.
func Check(s Scanner, text string) error {
	if s == nil {
		return nil
	}
	findings := s.Scan(text)
	if len(findings) == 0 {
		return nil
	}
	log.Warn().
		Str("rule", findings[0].RuleID).
		Int("findings", len(findings)).
		Msg("Secret detected in selection, refusing to send")
	return &SecretError{RuleID: findings[0].RuleID}
}
