// Package review holds the request and document shapes of a client business
// review, shared by the orchestration service, the HTTP API and the CLI.
package review

import (
	"time"

	"github.com/okian/clientiq/internal/domain/insights"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/stakeholder"
	"github.com/okian/clientiq/pkg/numeric"
)

// Request asks for a review of one customer. Industry overrides the
// customer's recorded industry. Non-positive money fields fall back to the
// priced remediation budget.
type Request struct {
	CustomerID         string  `json:"customer_id"`
	Industry           string  `json:"industry,omitempty"`
	TotalBudget        float64 `json:"total_budget,omitempty"`
	CurrentMonthlyCost float64 `json:"current_monthly_cost,omitempty"`
	SkipNarrative      bool    `json:"skip_narrative,omitempty"`
}

// Review is the full output of one pipeline run.
type Review struct {
	ID              string                 `json:"id"`
	CustomerID      string                 `json:"customer_id"`
	CustomerName    string                 `json:"customer_name"`
	Industry        roi.Industry           `json:"industry"`
	GeneratedAt     time.Time              `json:"generated_at"`
	Signals         model.Signals          `json:"signals"`
	Scores          model.Scores           `json:"scores"`
	Gaps            []model.Gap            `json:"gaps"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Budget          model.Budget           `json:"budget"`
	TieredBudget    roi.TieredBudget       `json:"tiered_budget"`
	IndustryMetrics roi.IndustryMetrics    `json:"industry_metrics"`
	PeerBenchmark   roi.PeerBenchmark      `json:"peer_benchmark"`
	Insights        insights.Report        `json:"insights"`
	Stakeholder     stakeholder.Content    `json:"stakeholder"`
	Narrative       string                 `json:"narrative,omitempty"`
}

// OverallPercent is the overall score on the 0-100 scale report history uses.
func (r Review) OverallPercent() float64 {
	return numeric.Round(r.Scores.Overall*100, 1)
}
