// Package stakeholder renders review results for non-technical audiences:
// an executive one-pager, board talking points and a budget justification
// built over the tiered budget. Every output is deterministic.
package stakeholder

import (
	"fmt"
	"time"

	"github.com/okian/clientiq/internal/domain/roi"

	"github.com/dustin/go-humanize"
)

// Score bands on the 0-100 scale.
const (
	StatusExcellent        = "Excellent"
	StatusGood             = "Good"
	StatusFair             = "Fair"
	StatusNeedsImprovement = "Needs Improvement"
)

// DefaultTimeline is the remediation window quoted when none is known.
const DefaultTimeline = "6-12 months"

// Risk is one exposure listed on the one-pager.
type Risk struct {
	Issue           string  `json:"issue"`
	FinancialImpact float64 `json:"financial_impact"`
}

// ROISnapshot is the ROI summary the one-pager quotes.
type ROISnapshot struct {
	TotalRiskPrevented float64 `json:"total_risk_prevented"`
	InvestmentRequired float64 `json:"investment_required"`
	MonthlyCost        float64 `json:"monthly_cost"`
	Timeline           string  `json:"timeline"`
	Presentation       string  `json:"presentation"`
	PaybackMonths      int     `json:"payback_months"`
	ThreeYearValue     float64 `json:"three_year_value"`
}

// OnePager is the thirty-second executive summary.
type OnePager struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	OverallScore float64  `json:"overall_score"`
	ScoreStatus  string   `json:"score_status"`
	WhatWeFound  []string `json:"what_we_found"`
	TheRisk      []string `json:"the_risk"`
	TheCost      []string `json:"the_cost"`
	TheROI       []string `json:"the_roi"`
}

// TalkingPoint is one board-level statement.
type TalkingPoint struct {
	Category     string `json:"category"`
	TalkingPoint string `json:"talking_point"`
	Context      string `json:"context"`
}

// BoardFacts are the figures the talking points quote.
type BoardFacts struct {
	Industry           string
	IncidentsPrevented int
	RiskPrevented      float64
	UptimePercentile   int
	PeerSummary        string
	ComplianceScore    float64
	PrimaryFramework   string
	HoursSaved         float64
	EfficiencyValue    float64
	ROIMultiplier      float64
}

// State describes the security posture before or after remediation.
type State struct {
	CompliancePct       float64
	PostureDescription  string
	GapCount            int
	RiskExposure        float64
	GapsClosed          int
	RiskReductionAmount float64
}

// CurrentState is the rendered starting point.
type CurrentState struct {
	ComplianceLevel string `json:"compliance_level"`
	SecurityPosture string `json:"security_posture"`
	KnownGaps       int    `json:"known_gaps"`
	RiskExposure    string `json:"risk_exposure"`
}

// TargetState is the rendered end point.
type TargetState struct {
	ComplianceLevel string `json:"compliance_level"`
	SecurityPosture string `json:"security_posture"`
	GapsClosed      int    `json:"gaps_closed"`
	RiskReduction   string `json:"risk_reduction"`
}

// BudgetOption is one cumulative spend choice.
type BudgetOption struct {
	Tier              string `json:"tier"`
	Cost              string `json:"cost"`
	WhatYouGet        string `json:"what_you_get"`
	WhatYouDontGet    string `json:"what_you_dont_get"`
	RiskIfNotApproved string `json:"risk_if_not_approved"`
}

// Justification is the internal budget presentation.
type Justification struct {
	Title             string         `json:"title"`
	CurrentState      CurrentState   `json:"current_state"`
	TargetState       TargetState    `json:"target_state"`
	BudgetOptions     []BudgetOption `json:"budget_options"`
	Recommendation    string         `json:"recommendation"`
	TradeOffStatement string         `json:"trade_off_statement"`
}

// Content bundles everything produced for one review.
type Content struct {
	ExecutiveOnePager   OnePager       `json:"executive_onepager"`
	BoardTalkingPoints  []TalkingPoint `json:"board_talking_points"`
	BudgetJustification Justification  `json:"budget_justification"`
}

// ScoreStatus names the band of a 0-100 score.
func ScoreStatus(score float64) string {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 75:
		return StatusGood
	case score >= 60:
		return StatusFair
	default:
		return StatusNeedsImprovement
	}
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.", v)
}

// ExecutiveOnePager summarises findings, risk, cost and return in three
// lines each. Only the first two risks are named; exposure sums the first three.
func ExecutiveOnePager(customerName string, date time.Time, overallScore float64, r ROISnapshot, risks []Risk) OnePager {
	status := ScoreStatus(overallScore)

	theRisk := []string{"No critical risks identified", "", ""}
	if len(risks) > 0 {
		theRisk[0] = risks[0].Issue
	}
	if len(risks) > 1 {
		theRisk[1] = risks[1].Issue
	}
	var exposure float64
	for _, risk := range risks[:min(3, len(risks))] {
		exposure += risk.FinancialImpact
	}
	theRisk[2] = "Estimated exposure: " + money(exposure)

	timeline := r.Timeline
	if timeline == "" {
		timeline = DefaultTimeline
	}
	presentation := r.Presentation
	if presentation == "" {
		presentation = "ROI analysis included in full report"
	}
	payback := r.PaybackMonths
	if payback <= 0 {
		payback = 12
	}

	return OnePager{
		Title:        fmt.Sprintf("Executive Summary: %s IT Security Review", customerName),
		Date:         date.Format("January 02, 2006"),
		OverallScore: overallScore,
		ScoreStatus:  status,
		WhatWeFound: []string{
			fmt.Sprintf("Security posture at %.1f%% - %s", overallScore, status),
			fmt.Sprintf("%d critical gaps identified requiring immediate attention", len(risks)),
			fmt.Sprintf("%s in potential losses prevented this quarter", money(r.TotalRiskPrevented)),
		},
		TheRisk: theRisk,
		TheCost: []string{
			"Investment required: " + money(r.InvestmentRequired),
			"Timeline: " + timeline,
			"Monthly cost: " + money(r.MonthlyCost),
		},
		TheROI: []string{
			presentation,
			fmt.Sprintf("Payback period: %d months", payback),
			"3-year value: " + money(r.ThreeYearValue),
		},
	}
}

// BoardTalkingPoints phrases the review in board language, one point per
// category: performance, peers, compliance, operations and risk.
func BoardTalkingPoints(f BoardFacts) []TalkingPoint {
	framework := f.PrimaryFramework
	if framework == "" {
		framework = "industry standards"
	}
	peer := f.PeerSummary
	if peer == "" {
		peer = "Industry benchmarking analysis included"
	}
	return []TalkingPoint{
		{
			Category: "Performance",
			TalkingPoint: fmt.Sprintf("Our infrastructure prevented %d potential incidents worth %s this quarter",
				f.IncidentsPrevented, money(f.RiskPrevented)),
			Context: "This demonstrates proactive security management and risk mitigation",
		},
		{
			Category: "Peer Comparison",
			TalkingPoint: fmt.Sprintf("We rank in the top %d%% for uptime compared to similar %s organizations",
				100-f.UptimePercentile, f.Industry),
			Context: peer,
		},
		{
			Category:     "Compliance",
			TalkingPoint: fmt.Sprintf("We maintain %.0f%% compliance with %s", f.ComplianceScore, framework),
			Context:      "Regulatory audit-ready with documented controls",
		},
		{
			Category:     "Operational Excellence",
			TalkingPoint: fmt.Sprintf("IT operations freed %s staff hours this year through automation", humanize.FormatFloat("#,###.", f.HoursSaved)),
			Context:      fmt.Sprintf("Value: %s redirected to mission-critical work", money(f.EfficiencyValue)),
		},
		{
			Category:     "Risk Management",
			TalkingPoint: fmt.Sprintf("Current security investment provides %.1fx return through risk avoidance", f.ROIMultiplier),
			Context:      "Every dollar invested prevents multiple dollars in potential losses",
		},
	}
}

// TradeoffStatement contrasts the recommended Tier 1+2 spend with Tier 1 alone.
func TradeoffStatement(tb roi.TieredBudget) string {
	return fmt.Sprintf("We can implement Tier 1+2 for %s (compliance + efficiency improvements). OR Tier 1 only for %s and accept higher operational risk and costs.",
		money(tb.Tier1.Cost+tb.Tier2.Cost), money(tb.Tier1.Cost))
}

// BudgetJustification lays out the three cumulative spend options with what
// each buys and what declining it risks.
func BudgetJustification(tb roi.TieredBudget, current, target State) Justification {
	posture := current.PostureDescription
	if posture == "" {
		posture = StatusNeedsImprovement
	}
	targetPosture := target.PostureDescription
	if targetPosture == "" {
		targetPosture = "Strong"
	}
	recommendation := tb.Recommendation
	if recommendation == "" {
		recommendation = "Tier 1+2 recommended for balanced protection and efficiency"
	}
	return Justification{
		Title: "IT Security Budget Justification",
		CurrentState: CurrentState{
			ComplianceLevel: fmt.Sprintf("%.0f%%", current.CompliancePct),
			SecurityPosture: posture,
			KnownGaps:       current.GapCount,
			RiskExposure:    money(current.RiskExposure),
		},
		TargetState: TargetState{
			ComplianceLevel: fmt.Sprintf("%.0f%%", target.CompliancePct),
			SecurityPosture: targetPosture,
			GapsClosed:      target.GapsClosed,
			RiskReduction:   money(target.RiskReductionAmount),
		},
		BudgetOptions: []BudgetOption{
			{
				Tier:              "Tier 1 Only (Minimum Compliance)",
				Cost:              money(tb.Tier1.Cost),
				WhatYouGet:        tb.Tier1.Outcome,
				WhatYouDontGet:    "Efficiency improvements, competitive advantages",
				RiskIfNotApproved: tb.Tier1.RiskIfNotDone,
			},
			{
				Tier:              "Tier 1 + 2 (Recommended)",
				Cost:              money(tb.Tier1.Cost + tb.Tier2.Cost),
				WhatYouGet:        tb.Tier1.Outcome + " + " + tb.Tier2.Outcome,
				WhatYouDontGet:    "Advanced automation, competitive edge features",
				RiskIfNotApproved: "Operational inefficiency continues, higher long-term costs",
			},
			{
				Tier:              "All Tiers (Full Protection)",
				Cost:              money(tb.Tier1.Cost + tb.Tier2.Cost + tb.Tier3.Cost),
				WhatYouGet:        "Complete security + efficiency + competitive advantages",
				WhatYouDontGet:    "Nothing - comprehensive coverage",
				RiskIfNotApproved: "N/A",
			},
		},
		Recommendation:    recommendation,
		TradeOffStatement: TradeoffStatement(tb),
	}
}
