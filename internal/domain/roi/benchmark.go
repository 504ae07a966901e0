package roi

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/clientiq/internal/domain/model"
)

// Metric keys reported per industry.
const (
	MetricUptimePct                = "uptime_pct"
	MetricCostPerUserPerMonth      = "cost_per_user_per_month"
	MetricAuditReadinessScore      = "audit_readiness_score"
	MetricManualHoursFreed         = "manual_hours_freed"
	MetricTicketBacklogDays        = "ticket_backlog_days"
	MetricTechSpendPctOfBudget     = "tech_spend_pct_of_budget"
	MetricProductionUptimePct      = "production_uptime_pct"
	MetricMTTRMinutes              = "mttr_minutes"
	MetricRevenueAtRisk            = "revenue_at_risk"
	MetricRegulatoryFindingsClosed = "regulatory_findings_closed"
	MetricComplianceScore          = "compliance_score"
	MetricTransactionUptime        = "transaction_uptime"
	MetricEHRUptimePct             = "ehr_uptime_pct"
	MetricSafetyIncidentsPrevented = "patient_safety_incidents_prevented"
	MetricBreachDetectionMinutes   = "breach_detection_time_minutes"
)

// IndustryMetrics are the three bespoke figures reported for an industry.
type IndustryMetrics struct {
	Industry             string             `json:"industry"`
	ComplianceFrameworks []string           `json:"compliance_frameworks"`
	Metrics              map[string]float64 `json:"metrics"`
}

// SelfServiceHours is the staff time a self-service portal frees: half an
// hour per password reset or account access ticket.
func SelfServiceHours(tickets []model.Ticket) float64 {
	n := 0
	for _, t := range tickets {
		if t.Category == "Password Reset" || t.Category == "Account Access" {
			n++
		}
	}
	return float64(n) * 0.5
}

// IndustryMetrics computes the industry's bespoke figures from signals and tickets.
func (e *Engine) IndustryMetrics(s model.Signals, tickets []model.Ticket) IndustryMetrics {
	m := map[string]float64{}
	switch e.industry {
	case IndustryNonprofit:
		m[MetricManualHoursFreed] = SelfServiceHours(tickets)
		m[MetricTicketBacklogDays] = 14
		m[MetricTechSpendPctOfBudget] = 3.5
	case IndustryManufacturing:
		m[MetricProductionUptimePct] = 100 - s.IncidentVolume*0.005
		m[MetricMTTRMinutes] = 45
		m[MetricRevenueAtRisk] = e.profile.DowntimeCostPerHour * 24 * 365
	case IndustryFinancial:
		m[MetricRegulatoryFindingsClosed] = 23
		m[MetricComplianceScore] = s.PatchCompliance
		m[MetricTransactionUptime] = 99.97
	case IndustryHealthcare:
		critical := 0
		for _, t := range tickets {
			if t.Priority == model.PriorityCritical {
				critical++
			}
		}
		m[MetricEHRUptimePct] = 99.97
		m[MetricSafetyIncidentsPrevented] = float64(max(0, 10-critical))
		m[MetricBreachDetectionMinutes] = 14
	default:
		m[MetricUptimePct] = 100 - s.IncidentVolume*0.01
		m[MetricCostPerUserPerMonth] = float64(s.TotalUsers) * 25
		m[MetricAuditReadinessScore] = s.PatchCompliance
	}
	return IndustryMetrics{
		Industry:             e.profile.Name,
		ComplianceFrameworks: slices.Clone(e.profile.ComplianceFrameworks),
		Metrics:              m,
	}
}

// PeerBenchmark places the client against similar-sized peers.
type PeerBenchmark struct {
	UptimePercentile           int    `json:"uptime_percentile"`
	CompliancePercentile       int    `json:"compliance_percentile"`
	IncidentResponsePercentile int    `json:"incident_response_percentile"`
	Summary                    string `json:"summary"`
}

// Percentile maps a patch compliance score onto a peer percentile band.
func Percentile(patchCompliance float64) int {
	switch {
	case patchCompliance >= 95:
		return 90
	case patchCompliance >= 85:
		return 75
	case patchCompliance >= 75:
		return 50
	default:
		return 25
	}
}

// PeerBenchmark derives peer percentiles from patch compliance.
func (e *Engine) PeerBenchmark(s model.Signals) PeerBenchmark {
	p := Percentile(s.PatchCompliance)
	return PeerBenchmark{
		UptimePercentile:           p,
		CompliancePercentile:       p,
		IncidentResponsePercentile: min(p+10, 95),
		Summary: fmt.Sprintf("Your controls exceed %d%% of similar-sized %s organizations",
			p, strings.ToLower(e.profile.Name)),
	}
}
