package roi

import (
	"slices"
	"strings"
)

// Industry classifies a client for ROI and benchmark purposes. The set is closed.
type Industry string

// Supported industries.
const (
	IndustryGovernment    Industry = "government"
	IndustryNonprofit     Industry = "nonprofit"
	IndustryManufacturing Industry = "manufacturing"
	IndustryFinancial     Industry = "financial"
	IndustryHealthcare    Industry = "healthcare"
)

// Profile holds the static parameters of an industry.
type Profile struct {
	Name                 string   `json:"name"`
	DowntimeCostPerHour  float64  `json:"downtime_cost_per_hour"`
	ComplianceFrameworks []string `json:"compliance_frameworks"`
	KeyMetrics           []string `json:"key_metrics"`
	// BreachCostMultiplier is a classification attribute; no formula reads it.
	BreachCostMultiplier float64 `json:"breach_cost_multiplier"`
}

var profiles = map[Industry]Profile{
	IndustryGovernment: {
		Name:                 "Local Government & Schools",
		DowntimeCostPerHour:  12000,
		ComplianceFrameworks: []string{"FERPA", "HIPAA", "CJIS"},
		KeyMetrics:           []string{"uptime", "compliance_score", "cost_per_user"},
		BreachCostMultiplier: 2.5,
	},
	IndustryNonprofit: {
		Name:                 "Nonprofits (Health & Public Service)",
		DowntimeCostPerHour:  5000,
		ComplianceFrameworks: []string{"HIPAA", "PCI-DSS"},
		KeyMetrics:           []string{"staff_hours_saved", "ticket_backlog", "cost_per_ticket"},
		BreachCostMultiplier: 3.4,
	},
	IndustryManufacturing: {
		Name:                 "Manufacturing",
		DowntimeCostPerHour:  84000,
		ComplianceFrameworks: []string{"ISO 27001", "NIST"},
		KeyMetrics:           []string{"production_uptime", "mttr", "revenue_protection"},
		BreachCostMultiplier: 12.0,
	},
	IndustryFinancial: {
		Name:                 "Financial Services",
		DowntimeCostPerHour:  50000,
		ComplianceFrameworks: []string{"OCC", "GLBA", "SOX", "PCI-DSS"},
		KeyMetrics:           []string{"compliance_score", "transaction_uptime", "regulatory_confidence"},
		BreachCostMultiplier: 15.0,
	},
	IndustryHealthcare: {
		Name:                 "Healthcare Organizations",
		DowntimeCostPerHour:  120000,
		ComplianceFrameworks: []string{"HIPAA", "HITECH"},
		KeyMetrics:           []string{"ehr_uptime", "patient_safety_incidents", "breach_detection_time"},
		BreachCostMultiplier: 8.0,
	},
}

// ParseIndustry maps a free-form name onto an Industry. Unrecognised values
// fall back to government.
func ParseIndustry(s string) Industry {
	i := Industry(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[i]; ok {
		return i
	}
	return IndustryGovernment
}

// Industries lists every supported industry in a stable order.
func Industries() []Industry {
	return []Industry{
		IndustryGovernment,
		IndustryNonprofit,
		IndustryManufacturing,
		IndustryFinancial,
		IndustryHealthcare,
	}
}

// Profile returns a copy of the static parameters for the industry. Callers
// may modify the returned slices.
func (i Industry) Profile() Profile {
	p, ok := profiles[i]
	if !ok {
		p = profiles[IndustryGovernment]
	}
	return p.clone()
}

func (p Profile) clone() Profile {
	p.ComplianceFrameworks = slices.Clone(p.ComplianceFrameworks)
	p.KeyMetrics = slices.Clone(p.KeyMetrics)
	return p
}
