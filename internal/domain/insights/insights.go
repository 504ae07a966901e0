// Package insights summarises ticket history and signals into operational
// analytics: health overview, ticket and SLA breakdowns, top users and
// assets, volume trends, anomalies and heuristic recommendations.
package insights

import (
	"github.com/okian/clientiq/internal/domain/model"
)

// Defaults for missing ticket fields.
const (
	uncategorized = "Uncategorized"
	unknownUser   = "Unknown User"
	unknownAsset  = "Unknown Asset"
	topN          = 10
)

// Report is the full set of insights for one review.
type Report struct {
	Overview        Overview         `json:"operational_overview"`
	Tickets         TicketAnalysis   `json:"ticket_analysis"`
	SLA             SLAPerformance   `json:"sla_performance"`
	TopUsers        TopUsers         `json:"top_users"`
	TopAssets       TopAssets        `json:"top_assets"`
	Recommendations []Recommendation `json:"recommendations"`
	Trend           TrendAnalysis    `json:"trend_analysis"`
	Anomalies       []Anomaly        `json:"anomalies"`
}

// Generate builds every insight from the signals and the raw tickets.
func Generate(s model.Signals, tickets []model.Ticket) Report {
	return Report{
		Overview:        overview(s, tickets),
		Tickets:         analyzeTickets(tickets),
		SLA:             analyzeSLA(tickets),
		TopUsers:        topUsers(tickets),
		TopAssets:       topAssets(tickets),
		Recommendations: recommend(s, tickets),
		Trend:           analyzeTrend(tickets),
		Anomalies:       anomalies(s),
	}
}

func categoryOf(t model.Ticket) string {
	if t.Category == "" {
		return uncategorized
	}
	return t.Category
}

func priorityOf(t model.Ticket) string {
	if t.Priority == "" {
		return model.PriorityNormal
	}
	return t.Priority
}

func statusOf(t model.Ticket) string {
	if t.Status == "" {
		return model.Unknown
	}
	return t.Status
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
