// Package segmentation classifies clients into MRR tiers and scores their
// health and churn risk from agreement, meeting and report history.
package segmentation

import (
	"math"
	"strings"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/numeric"
)

// CalculationVersion identifies the scoring rules that produced a record.
const CalculationVersion = "1.0"

// Tier is an MRR band.
type Tier string

// Tiers in descending order.
const (
	TierPlatinum Tier = "platinum"
	TierGold     Tier = "gold"
	TierSilver   Tier = "silver"
	TierBronze   Tier = "bronze"
)

// Tiers lists every tier from highest to lowest.
func Tiers() []Tier {
	return []Tier{TierPlatinum, TierGold, TierSilver, TierBronze}
}

// Tier lower bounds in monthly recurring revenue.
const (
	platinumMRR = 10000
	goldMRR     = 5000
	silverMRR   = 2000

	// tierScoreCeiling is the MRR that maps to a tier score of 100.
	tierScoreCeiling = 20000
	lowMRR           = 1000
	strategicMRR     = 5000
	strategicHealth  = 70
	quarter          = 90 * 24 * time.Hour
	trendEpsilon     = 0.00001
)

// MRR trend directions.
const (
	TrendGrowing   = "growing"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Health statuses.
const (
	HealthExcellent = "excellent"
	HealthGood      = "good"
	HealthAtRisk    = "at_risk"
	HealthCritical  = "critical"
)

// Risk levels.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Growth potential values.
const (
	GrowthHigh   = "high"
	GrowthMedium = "medium"
	GrowthLow    = "low"
)

// Input is the history a record is calculated from. PreviousMRR is the MRR
// of the last stored record, if any.
type Input struct {
	Agreements  []model.Agreement
	Meetings    []model.Meeting
	Reports     []model.ReportSummary
	PreviousMRR *float64
}

// Record is the segmentation of one customer. It is overwritten on every
// recalculation.
type Record struct {
	CustomerID          string     `json:"customer_id"`
	Tier                Tier       `json:"tier"`
	TierScore           float64    `json:"tier_score"`
	TotalMRR            float64    `json:"total_mrr"`
	MRRTrend            string     `json:"mrr_trend"`
	MRRChangePercentage float64    `json:"mrr_change_percentage"`
	LifetimeValue       float64    `json:"lifetime_value"`
	CustomerSince       *time.Time `json:"customer_since,omitempty"`
	TenureMonths        int        `json:"tenure_months"`
	HealthScore         int        `json:"health_score"`
	HealthStatus        string     `json:"health_status"`
	HealthFactors       []string   `json:"health_factors"`
	LastMeetingDate     *time.Time `json:"last_meeting_date,omitempty"`
	MeetingsPerQuarter  int        `json:"meetings_per_quarter"`
	LastReportDate      *time.Time `json:"last_report_date,omitempty"`
	RiskLevel           string     `json:"risk_level"`
	RiskScore           int        `json:"risk_score"`
	RiskFactors         []string   `json:"risk_factors"`
	StrategicAccount    bool       `json:"strategic_account"`
	GrowthPotential     string     `json:"growth_potential"`
	Tags                []string   `json:"tags"`
	LastCalculated      time.Time  `json:"last_calculated"`
	CalculationVersion  string     `json:"calculation_version"`
}

// Calculate builds the segmentation record for a customer as of now.
func Calculate(customerID string, in Input, now time.Time) Record {
	mrr := TotalMRR(in.Agreements)
	trend, change := mrrTrend(mrr, in.PreviousMRR)
	tier := TierFor(mrr)

	health, healthFactors := healthScore(in)
	status := healthStatus(health)

	lastMeeting, perQuarter := meetingActivity(in.Meetings, now)
	since, tenure := tenureOf(in.Agreements, now)

	risk, riskFactors := riskScore(trend, mrr, health, perQuarter)
	level := riskLevel(risk)

	return Record{
		CustomerID:          customerID,
		Tier:                tier,
		TierScore:           TierScore(mrr),
		TotalMRR:            mrr,
		MRRTrend:            trend,
		MRRChangePercentage: change,
		LifetimeValue:       mrr * float64(tenure),
		CustomerSince:       since,
		TenureMonths:        tenure,
		HealthScore:         health,
		HealthStatus:        status,
		HealthFactors:       healthFactors,
		LastMeetingDate:     lastMeeting,
		MeetingsPerQuarter:  perQuarter,
		LastReportDate:      lastReportDate(in.Reports),
		RiskLevel:           level,
		RiskScore:           risk,
		RiskFactors:         riskFactors,
		StrategicAccount:    mrr >= strategicMRR && health >= strategicHealth,
		GrowthPotential:     growthPotential(trend, mrr, len(in.Agreements)),
		Tags:                tags(tier, status, level),
		LastCalculated:      now.UTC(),
		CalculationVersion:  CalculationVersion,
	}
}

// TotalMRR sums the monthly revenue of active agreements.
func TotalMRR(agreements []model.Agreement) float64 {
	var total float64
	for _, a := range agreements {
		if a.Status == model.AgreementActive {
			total += a.MonthlyMRR
		}
	}
	return total
}

// TierFor returns the first band whose lower bound the MRR reaches.
func TierFor(mrr float64) Tier {
	switch {
	case mrr >= platinumMRR:
		return TierPlatinum
	case mrr >= goldMRR:
		return TierGold
	case mrr >= silverMRR:
		return TierSilver
	default:
		return TierBronze
	}
}

// TierScore maps MRR linearly onto 0-100, capped at the ceiling.
func TierScore(mrr float64) float64 {
	return numeric.Round(math.Min(100, mrr/tierScoreCeiling*100), 1)
}

func mrrTrend(mrr float64, previous *float64) (string, float64) {
	if previous == nil {
		return TrendStable, 0
	}
	d := mrr - *previous
	trend := TrendStable
	if d > trendEpsilon {
		trend = TrendGrowing
	} else if d < -trendEpsilon {
		trend = TrendDeclining
	}
	var pct float64
	if math.Abs(*previous) > trendEpsilon {
		pct = numeric.Round(d / *previous * 100, 2)
	}
	return trend, pct
}

func healthScore(in Input) (int, []string) {
	score := 100
	factors := []string{}

	active := false
	for _, a := range in.Agreements {
		if a.Status == model.AgreementActive {
			active = true
			break
		}
	}
	if !active {
		score -= 30
		factors = append(factors, "No active agreements")
	}

	switch n := len(in.Meetings); {
	case n == 0:
		score -= 25
		factors = append(factors, "No recent meetings")
	case n < 2:
		score -= 15
		factors = append(factors, "Low meeting frequency")
	}

	switch n := len(in.Reports); {
	case n == 0:
		score -= 25
		factors = append(factors, "No reports generated")
	case n < 2:
		score -= 10
		factors = append(factors, "Infrequent reporting")
	}

	if latest, ok := latestReport(in.Reports); ok {
		switch {
		case latest.OverallScore < 50:
			score -= 20
			factors = append(factors, "Poor security posture")
		case latest.OverallScore < 70:
			score -= 10
			factors = append(factors, "Below-average security")
		}
	}

	return max(0, score), factors
}

func healthStatus(score int) string {
	switch {
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthAtRisk
	default:
		return HealthCritical
	}
}

func riskScore(trend string, mrr float64, health, perQuarter int) (int, []string) {
	score := 0
	factors := []string{}
	if trend == TrendDeclining {
		score += 30
		factors = append(factors, "Declining MRR")
	}
	if mrr < lowMRR {
		score += 20
		factors = append(factors, "Low MRR value")
	}
	switch {
	case health < 50:
		score += 30
		factors = append(factors, "Critical health score")
	case health < 70:
		score += 15
		factors = append(factors, "Below-average health")
	}
	if perQuarter == 0 {
		score += 20
		factors = append(factors, "No recent meetings")
	}
	return score, factors
}

func riskLevel(score int) string {
	switch {
	case score >= 60:
		return RiskCritical
	case score >= 40:
		return RiskHigh
	case score >= 20:
		return RiskMedium
	default:
		return RiskLow
	}
}

func growthPotential(trend string, mrr float64, agreements int) string {
	switch {
	case trend == TrendGrowing:
		return GrowthHigh
	case mrr < strategicMRR && agreements > 0:
		return GrowthMedium
	default:
		return GrowthLow
	}
}

// latestReport returns the report with the most recent generation time.
func latestReport(reports []model.ReportSummary) (model.ReportSummary, bool) {
	if len(reports) == 0 {
		return model.ReportSummary{}, false
	}
	latest := reports[0]
	for _, r := range reports[1:] {
		if r.GeneratedAt.After(latest.GeneratedAt) {
			latest = r
		}
	}
	return latest, true
}

func lastReportDate(reports []model.ReportSummary) *time.Time {
	latest, ok := latestReport(reports)
	if !ok {
		return nil
	}
	t := latest.GeneratedAt
	return &t
}

func meetingActivity(meetings []model.Meeting, now time.Time) (*time.Time, int) {
	var last *time.Time
	recent := 0
	cutoff := now.Add(-quarter)
	for i := range meetings {
		d := meetings[i].ScheduledDate
		if last == nil || d.After(*last) {
			last = &d
		}
		if !d.Before(cutoff) {
			recent++
		}
	}
	return last, recent
}

// tenureOf counts calendar months from the earliest agreement start.
func tenureOf(agreements []model.Agreement, now time.Time) (*time.Time, int) {
	var first *time.Time
	for i := range agreements {
		s := agreements[i].StartDate
		if s.IsZero() {
			continue
		}
		if first == nil || s.Before(*first) {
			first = &s
		}
	}
	if first == nil {
		return nil, 0
	}
	now = now.UTC()
	start := first.UTC()
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	return first, max(0, months)
}

func tags(tier Tier, health, risk string) []string {
	out := []string{strings.ToUpper(string(tier))}
	switch health {
	case HealthExcellent:
		out = append(out, "HEALTHY")
	case HealthAtRisk, HealthCritical:
		out = append(out, "NEEDS_ATTENTION")
	}
	if risk == RiskHigh || risk == RiskCritical {
		out = append(out, "HIGH_RISK")
	}
	return out
}

// TierTotals is the count and MRR of the clients in one tier.
type TierTotals struct {
	Count    int     `json:"count"`
	TotalMRR float64 `json:"total_mrr"`
}

// Summarize aggregates records by tier. Every tier is present in the result.
func Summarize(records []Record) map[Tier]TierTotals {
	out := make(map[Tier]TierTotals, 4)
	for _, t := range Tiers() {
		out[t] = TierTotals{}
	}
	for _, r := range records {
		tt := out[r.Tier]
		tt.Count++
		tt.TotalMRR += r.TotalMRR
		out[r.Tier] = tt
	}
	return out
}
