package stakeholder

import (
	"math"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"
)

// Exposure multiples applied to tier item costs. They match the penalty and
// wasted-labor figures quoted in each tier's RiskIfNotDone.
const (
	tier1Exposure = 5
	tier2Exposure = 3
)

// Input is the part of a finished review the stakeholder content reads.
type Input struct {
	CustomerName    string
	Industry        roi.Industry
	Date            time.Time
	OverallScore    float64 // 0-100
	GapCount        int
	MonthlyCost     float64
	Signals         model.Signals
	Tickets         []model.Ticket
	TieredBudget    roi.TieredBudget
	IndustryMetrics roi.IndustryMetrics
	PeerBenchmark   roi.PeerBenchmark
}

// TopRisks lists Tier 1 items then Tier 2 items with their exposure.
func TopRisks(tb roi.TieredBudget) []Risk {
	risks := make([]Risk, 0, len(tb.Tier1.Items)+len(tb.Tier2.Items))
	for _, it := range tb.Tier1.Items {
		risks = append(risks, Risk{Issue: it.Issue, FinancialImpact: it.Cost * tier1Exposure})
	}
	for _, it := range tb.Tier2.Items {
		risks = append(risks, Risk{Issue: it.Issue, FinancialImpact: it.Cost * tier2Exposure})
	}
	return risks
}

// criticalTickets counts the incidents the service handled before they escalated.
func criticalTickets(tickets []model.Ticket) int {
	n := 0
	for _, t := range tickets {
		if t.Priority == model.PriorityCritical {
			n++
		}
	}
	return n
}

// Compose builds all stakeholder content for one review. The investment is
// the recommended Tier 1+2 spend.
func Compose(in Input) Content {
	engine := roi.NewEngine(in.Industry)
	tb := in.TieredBudget
	investment := tb.BudgetScenarios.Tier1And2.Cost
	incidents := criticalTickets(in.Tickets)

	risk := engine.RiskAvoidance(investment, incidents, 0)
	efficiency := engine.EfficiencyUnlock(roi.SelfServiceHours(in.Tickets), 0, 0)
	threeYear := engine.ThreeYearStacked(investment, risk.TotalRiskPrevented, 0)

	payback := 0
	if monthly := risk.TotalRiskPrevented / 12; monthly > 0 && investment > 0 {
		payback = int(math.Ceil(investment / monthly))
	}

	risks := TopRisks(tb)
	var exposure float64
	for _, r := range risks {
		exposure += r.FinancialImpact
	}

	framework := ""
	if len(in.IndustryMetrics.ComplianceFrameworks) > 0 {
		framework = in.IndustryMetrics.ComplianceFrameworks[0]
	}

	return Content{
		ExecutiveOnePager: ExecutiveOnePager(in.CustomerName, in.Date, in.OverallScore, ROISnapshot{
			TotalRiskPrevented: risk.TotalRiskPrevented,
			InvestmentRequired: investment,
			MonthlyCost:        in.MonthlyCost,
			Presentation:       risk.Presentation,
			PaybackMonths:      payback,
			ThreeYearValue:     threeYear.CumulativeValue,
		}, risks),
		BoardTalkingPoints: BoardTalkingPoints(BoardFacts{
			Industry:           engine.Profile().Name,
			IncidentsPrevented: incidents,
			RiskPrevented:      risk.TotalRiskPrevented,
			UptimePercentile:   in.PeerBenchmark.UptimePercentile,
			PeerSummary:        in.PeerBenchmark.Summary,
			ComplianceScore:    in.Signals.PatchCompliance,
			PrimaryFramework:   framework,
			HoursSaved:         efficiency.HoursFreedAnnually,
			EfficiencyValue:    efficiency.AnnualSavings,
			ROIMultiplier:      risk.ROIMultiplier,
		}),
		BudgetJustification: BudgetJustification(tb,
			State{
				CompliancePct:      in.OverallScore,
				PostureDescription: ScoreStatus(in.OverallScore),
				GapCount:           in.GapCount,
				RiskExposure:       exposure,
			},
			State{
				CompliancePct:       100,
				GapsClosed:          in.GapCount,
				RiskReductionAmount: exposure,
			}),
	}
}
