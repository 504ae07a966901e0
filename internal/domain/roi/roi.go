// Package roi computes return-on-investment presentations, tiered budget
// scenarios and industry benchmarks for a client review.
package roi

import (
	"fmt"
	"strings"
)

// Format names an ROI presentation model.
type Format string

// ROI presentation models.
const (
	FormatRiskAvoidance    Format = "Risk Avoidance"
	FormatEfficiencyUnlock Format = "Efficiency Unlock"
	FormatComplianceRisk   Format = "Compliance/Risk Score"
	FormatThreeYearStacked Format = "Three-Year Stacked ROI"
)

// Defaults applied when a parameter is not positive.
const (
	DefaultIncidentDurationHours = 6.0
	DefaultCostPerHour           = 50.0
	DefaultRedeploymentMult      = 1.5
	DefaultEfficiencyGainMult    = 1.5

	// yearThreeCompounding is the fixed automation gain applied in year three.
	yearThreeCompounding = 1.25
	weeksPerYear         = 52
)

var slugs = map[string]Format{
	"risk-avoidance":     FormatRiskAvoidance,
	"efficiency-unlock":  FormatEfficiencyUnlock,
	"compliance":         FormatComplianceRisk,
	"compliance-risk":    FormatComplianceRisk,
	"three-year":         FormatThreeYearStacked,
	"three-year-stacked": FormatThreeYearStacked,
}

// ParseFormat resolves a URL-style slug such as "risk-avoidance".
func ParseFormat(slug string) (Format, error) {
	f, ok := slugs[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, slug)
	}
	return f, nil
}

// Header carries the fields common to every ROI result.
type Header struct {
	Format       Format `json:"format"`
	Presentation string `json:"presentation"`
}

// Summary returns the format and presentation line.
func (h Header) Summary() Header { return h }

// Result is one of RiskAvoidance, EfficiencyUnlock, ComplianceRisk or
// ThreeYearStacked. The variants are never merged.
type Result interface {
	Summary() Header
	sealed()
}

// RiskAvoidance values prevented downtime against an investment.
type RiskAvoidance struct {
	Header
	Investment               float64 `json:"investment"`
	DowntimeCostPerHour      float64 `json:"downtime_cost_per_hour"`
	IncidentsPrevented       int     `json:"incidents_prevented"`
	AvgIncidentDurationHours float64 `json:"avg_incident_duration_hours"`
	TotalRiskPrevented       float64 `json:"total_risk_prevented"`
	NetROI                   float64 `json:"net_roi"`
	ROIMultiplier            float64 `json:"roi_multiplier"`
}

// EfficiencyUnlock values staff hours freed by automation.
type EfficiencyUnlock struct {
	Header
	HoursFreedAnnually float64 `json:"hours_freed_annually"`
	HoursPerWeek       float64 `json:"hours_per_week"`
	CostPerHour        float64 `json:"cost_per_hour"`
	AnnualSavings      float64 `json:"annual_savings"`
	RedeploymentValue  float64 `json:"redeployment_value"`
}

// ComplianceRisk values closing a compliance gap against penalty exposure.
type ComplianceRisk struct {
	Header
	CurrentCompliance float64 `json:"current_compliance"`
	TargetCompliance  float64 `json:"target_compliance"`
	ComplianceGap     float64 `json:"compliance_gap"`
	PenaltyAtCurrent  float64 `json:"penalty_at_current"`
	CostToReachTarget float64 `json:"cost_to_reach_target"`
	RiskReduction     float64 `json:"risk_reduction"`
	NetValue          float64 `json:"net_value"`
}

// YearValue is one year of a stacked projection.
type YearValue struct {
	Investment float64 `json:"investment"`
	Savings    float64 `json:"savings"`
	Net        float64 `json:"net"`
}

// ThreeYearStacked projects savings over three years from one investment.
type ThreeYearStacked struct {
	Header
	Year1           YearValue `json:"year1"`
	Year2           YearValue `json:"year2"`
	Year3           YearValue `json:"year3"`
	CumulativeValue float64   `json:"cumulative_value"`
}

func (RiskAvoidance) sealed()    {}
func (EfficiencyUnlock) sealed() {}
func (ComplianceRisk) sealed()   {}
func (ThreeYearStacked) sealed() {}

// Engine computes ROI models for one industry. It is immutable.
type Engine struct {
	industry Industry
	profile  Profile
}

// NewEngine creates an engine for the industry.
func NewEngine(industry Industry) *Engine {
	return &Engine{industry: industry, profile: industry.Profile()}
}

// Industry returns the engine's industry.
func (e *Engine) Industry() Industry { return e.industry }

// Profile returns a copy of the engine's industry parameters.
func (e *Engine) Profile() Profile { return e.profile.clone() }

// RiskAvoidance computes the downtime prevented by an investment.
func (e *Engine) RiskAvoidance(investment float64, incidentsPrevented int, avgDurationHours float64) RiskAvoidance {
	if avgDurationHours <= 0 {
		avgDurationHours = DefaultIncidentDurationHours
	}
	total := e.profile.DowntimeCostPerHour * float64(incidentsPrevented) * avgDurationHours
	var mult float64
	if investment > 0 {
		mult = total / investment
	}
	return RiskAvoidance{
		Header: Header{
			Format: FormatRiskAvoidance,
			Presentation: fmt.Sprintf("Your %s investment prevents %s in lost revenue. ROI: %.1fx",
				dollars(investment), dollars(total), mult),
		},
		Investment:               investment,
		DowntimeCostPerHour:      e.profile.DowntimeCostPerHour,
		IncidentsPrevented:       incidentsPrevented,
		AvgIncidentDurationHours: avgDurationHours,
		TotalRiskPrevented:       total,
		NetROI:                   total - investment,
		ROIMultiplier:            mult,
	}
}

// EfficiencyUnlock computes the value of hours freed each year.
func (e *Engine) EfficiencyUnlock(hoursFreed, costPerHour, multiplier float64) EfficiencyUnlock {
	if costPerHour <= 0 {
		costPerHour = DefaultCostPerHour
	}
	if multiplier <= 0 {
		multiplier = DefaultRedeploymentMult
	}
	savings := hoursFreed * costPerHour
	return EfficiencyUnlock{
		Header: Header{
			Format: FormatEfficiencyUnlock,
			Presentation: fmt.Sprintf("%s hours freed annually = %s value (at $%s/hr fully loaded cost)",
				count(hoursFreed), dollars(savings), rate(costPerHour)),
		},
		HoursFreedAnnually: hoursFreed,
		HoursPerWeek:       hoursFreed / weeksPerYear,
		CostPerHour:        costPerHour,
		AnnualSavings:      savings,
		RedeploymentValue:  savings * multiplier,
	}
}

// ComplianceRisk computes the penalty exposure removed by closing a gap.
func (e *Engine) ComplianceRisk(current, target, penaltyAtCurrent, costToReachTarget float64) ComplianceRisk {
	gap := target - current
	reduction := penaltyAtCurrent * (gap / 100)
	return ComplianceRisk{
		Header: Header{
			Format: FormatComplianceRisk,
			Presentation: fmt.Sprintf("%.0f%% compliant with %s standards. %.0f%% gap = %s potential penalties. %dK to close.",
				current, e.profile.ComplianceFrameworks[0], gap, dollars(penaltyAtCurrent), int(costToReachTarget/1000)),
		},
		CurrentCompliance: current,
		TargetCompliance:  target,
		ComplianceGap:     gap,
		PenaltyAtCurrent:  penaltyAtCurrent,
		CostToReachTarget: costToReachTarget,
		RiskReduction:     reduction,
		NetValue:          reduction - costToReachTarget,
	}
}

// ThreeYearStacked projects a first-year investment over three years. Years
// two and three carry no further investment.
func (e *Engine) ThreeYearStacked(year1Investment, year1Savings, multiplier float64) ThreeYearStacked {
	if multiplier <= 0 {
		multiplier = DefaultEfficiencyGainMult
	}
	y1 := YearValue{Investment: year1Investment, Savings: year1Savings, Net: year1Savings - year1Investment}
	y2Savings := year1Savings * multiplier
	y2 := YearValue{Savings: y2Savings, Net: y2Savings}
	y3Savings := y2Savings * yearThreeCompounding
	y3 := YearValue{Savings: y3Savings, Net: y3Savings}
	cumulative := y1.Net + y2.Net + y3.Net
	return ThreeYearStacked{
		Header: Header{
			Format: FormatThreeYearStacked,
			Presentation: fmt.Sprintf("3-year value: Year 1 %s + Year 2 %s + Year 3 %s = %s total",
				dollars(y1.Net), dollars(y2.Net), dollars(y3.Net), dollars(cumulative)),
		},
		Year1:           y1,
		Year2:           y2,
		Year3:           y3,
		CumulativeValue: cumulative,
	}
}
