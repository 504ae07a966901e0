// Package scoring maps normalized signals onto the five framework categories,
// flags gaps against configured thresholds and attaches remediation advice.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/numeric"
)

// Category weights for the overall score. They sum to 1.
const (
	WeightIdentify = 0.15
	WeightProtect  = 0.30
	WeightDetect   = 0.20
	WeightRespond  = 0.20
	WeightRecover  = 0.15
)

// mfaBar is the fixed enforcement bar for MFA, independent of configuration.
const mfaBar = 100

// Threshold configuration keys.
const (
	KeyPatchCompliance = "patch_compliance"
	KeyBackupSuccess   = "backup_success"
	KeyEDRCoverage     = "edr_coverage"
	KeySLAAttainment   = "sla_attainment"
)

// Thresholds are the percentage bars below which a signal raises a gap.
type Thresholds struct {
	PatchCompliance float64 `json:"patch_compliance"`
	BackupSuccess   float64 `json:"backup_success"`
	EDRCoverage     float64 `json:"edr_coverage"`
	SLAAttainment   float64 `json:"sla_attainment"`
}

// DefaultThresholds returns the best-practice bars.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PatchCompliance: 95,
		BackupSuccess:   98,
		EDRCoverage:     90,
		SLAAttainment:   90,
	}
}

// ParseThresholds builds Thresholds from a configuration map. All four keys
// must be present, finite and within [0, 100].
func ParseThresholds(raw map[string]float64) (Thresholds, error) {
	var t Thresholds
	fields := []struct {
		key string
		dst *float64
	}{
		{KeyPatchCompliance, &t.PatchCompliance},
		{KeyBackupSuccess, &t.BackupSuccess},
		{KeyEDRCoverage, &t.EDRCoverage},
		{KeySLAAttainment, &t.SLAAttainment},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			return Thresholds{}, fmt.Errorf("%w: %s", ErrMissingThreshold, f.key)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
			return Thresholds{}, fmt.Errorf("%w: %s=%v", ErrInvalidThreshold, f.key, v)
		}
		*f.dst = v
	}
	return t, nil
}

// Assessment is the result of evaluating one signal mapping.
type Assessment struct {
	Scores          model.Scores           `json:"scores"`
	Gaps            []model.Gap            `json:"gaps"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// Engine scores signals. It holds only immutable configuration and is safe
// for concurrent use.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine with default thresholds unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the configured thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Scores computes the category score vector.
func (e *Engine) Scores(s model.Signals) model.Scores {
	var sc model.Scores
	if s.TotalAssets > 0 {
		sc.Identify = 1
	}
	sc.Protect = numeric.Round((s.PatchCompliance/100+s.MFA/100+s.EDR/100+s.BackupStatus/100)/4, 3)
	sc.Detect = numeric.Round(s.EDR/100, 3)
	sc.Respond = numeric.Round(s.ResponseTimeSLA/100, 3)
	sc.Recover = numeric.Round(s.BackupStatus/100, 3)
	sc.Overall = numeric.Round(
		sc.Identify*WeightIdentify+
			sc.Protect*WeightProtect+
			sc.Detect*WeightDetect+
			sc.Respond*WeightRespond+
			sc.Recover*WeightRecover, 3)
	return sc
}

// Gaps returns the shortfalls in fixed order: patch, backup, EDR, SLA, MFA.
func (e *Engine) Gaps(s model.Signals) []model.Gap {
	checks := []struct {
		id        model.SignalID
		threshold float64
		severity  model.Severity
	}{
		{model.SignalPatchCompliance, e.thresholds.PatchCompliance, model.SeverityHigh},
		{model.SignalBackupStatus, e.thresholds.BackupSuccess, model.SeverityCritical},
		{model.SignalEDR, e.thresholds.EDRCoverage, model.SeverityHigh},
		{model.SignalResponseSLA, e.thresholds.SLAAttainment, model.SeverityMedium},
		{model.SignalMFA, mfaBar, model.SeverityCritical},
	}

	gaps := make([]model.Gap, 0, len(checks))
	for _, c := range checks {
		value := s.Value(c.id)
		if value >= c.threshold {
			continue
		}
		ctl := controls[c.id]
		gaps = append(gaps, model.Gap{
			Category:     ctl.category,
			Signal:       c.id,
			CurrentValue: value,
			Threshold:    c.threshold,
			Severity:     c.severity,
			Issue:        ctl.issue,
			Impact:       ctl.impact,
		})
	}
	return gaps
}

// Recommendations returns one recommendation per gap, in gap order.
func (e *Engine) Recommendations(gaps []model.Gap) []model.Recommendation {
	recs := make([]model.Recommendation, 0, len(gaps))
	for _, g := range gaps {
		ctl, ok := controls[g.Signal]
		if !ok {
			continue
		}
		recs = append(recs, model.Recommendation{
			Category:       g.Category,
			Priority:       g.Severity,
			Issue:          g.Issue,
			Signal:         g.Signal,
			Recommendation: ctl.recommendation,
			ActionItems:    ctl.actionItems[:],
		})
	}
	return recs
}

// Evaluate runs scores, gaps and recommendations over one signal mapping.
func (e *Engine) Evaluate(s model.Signals) Assessment {
	gaps := e.Gaps(s)
	return Assessment{
		Scores:          e.Scores(s),
		Gaps:            gaps,
		Recommendations: e.Recommendations(gaps),
	}
}
