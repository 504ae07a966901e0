package roi

import (
	"fmt"

	"github.com/okian/clientiq/internal/domain/model"
)

// Share of current monthly spend assumed per gap in each tier.
const (
	tier1Share = 0.3
	tier2Share = 0.2
	tier3Share = 0.1
)

// Tier narratives.
const (
	tier1Name    = "Table Stakes (Non-Negotiable)"
	tier1Outcome = "Regulatory compliance maintained, 0 breaches"

	tier2Name    = "Efficiency & Risk Reduction"
	tier2Outcome = "Staff freed for core mission, downtime cut 75%"

	tier3Name        = "Competitive Advantage"
	tier3Outcome     = "Faster than competitors, better customer experience"
	tier3ItemOutcome = "Competitive advantage, better customer experience"
	tier3Risk        = "Fall behind competitors, customer churn increases"
)

// Branch identifies which rung of the budget ladder a recommendation came from.
type Branch string

// Budget ladder rungs.
const (
	BranchAllTiers     Branch = "all_tiers"
	BranchPartialTier3 Branch = "partial_tier3"
	BranchPartialTier2 Branch = "partial_tier2"
	BranchShortfall    Branch = "shortfall"
)

// TierItem is one gap priced into a tier.
type TierItem struct {
	Issue   string  `json:"issue"`
	Cost    float64 `json:"cost"`
	Outcome string  `json:"outcome"`
}

// Tier is one prioritized spending band.
type Tier struct {
	Name          string     `json:"name"`
	Cost          float64    `json:"cost"`
	Items         []TierItem `json:"items"`
	Outcome       string     `json:"outcome"`
	RiskIfNotDone string     `json:"risk_if_not_done"`
}

// Scenario is a cumulative spend level.
type Scenario struct {
	Cost        float64 `json:"cost"`
	Description string  `json:"description"`
}

// Scenarios are the three cumulative spend levels.
type Scenarios struct {
	Tier1Only Scenario `json:"tier1_only"`
	Tier1And2 Scenario `json:"tier1_and_2"`
	AllTiers  Scenario `json:"all_tiers"`
}

// Recommendation is the outcome of comparing a budget against the scenarios.
// Percentage is set for the partial branches, Shortfall for the shortfall branch.
type Recommendation struct {
	Branch     Branch  `json:"branch"`
	Percentage float64 `json:"percentage,omitempty"`
	Shortfall  float64 `json:"shortfall,omitempty"`
	Text       string  `json:"text"`
}

// TieredBudget phases gap remediation into three tiers.
type TieredBudget struct {
	Tier1           Tier           `json:"tier1"`
	Tier2           Tier           `json:"tier2"`
	Tier3           Tier           `json:"tier3"`
	BudgetScenarios Scenarios      `json:"budget_scenarios"`
	Recommendation  string         `json:"recommendation"`
	Advice          Recommendation `json:"advice"`
}

// TieredBudget partitions gaps by severity (Critical, High, everything else)
// and prices each gap as a share of current monthly spend.
func (e *Engine) TieredBudget(totalBudget float64, gaps []model.Gap, currentMonthlyCost float64) TieredBudget {
	t1 := Tier{Name: tier1Name, Outcome: tier1Outcome, Items: []TierItem{}}
	t2 := Tier{Name: tier2Name, Outcome: tier2Outcome, Items: []TierItem{}}
	t3 := Tier{Name: tier3Name, Outcome: tier3Outcome, Items: []TierItem{}, RiskIfNotDone: tier3Risk}

	for _, g := range gaps {
		switch g.Severity {
		case model.SeverityCritical:
			cost := currentMonthlyCost * tier1Share
			t1.Items = append(t1.Items, TierItem{Issue: g.Issue, Cost: cost, Outcome: tier1Outcome})
			t1.Cost += cost
		case model.SeverityHigh:
			cost := currentMonthlyCost * tier2Share
			t2.Items = append(t2.Items, TierItem{Issue: g.Issue, Cost: cost, Outcome: tier2Outcome})
			t2.Cost += cost
		default:
			cost := currentMonthlyCost * tier3Share
			t3.Items = append(t3.Items, TierItem{Issue: g.Issue, Cost: cost, Outcome: tier3ItemOutcome})
			t3.Cost += cost
		}
	}
	t1.RiskIfNotDone = fmt.Sprintf("%s+ penalty exposure, audit failure", dollars(t1.Cost*5))
	t2.RiskIfNotDone = fmt.Sprintf("%s/year in wasted labor, reputation risk", dollars(t2.Cost*3))

	only1 := t1.Cost
	upTo2 := t1.Cost + t2.Cost
	all := t1.Cost + t2.Cost + t3.Cost
	advice := Recommend(totalBudget, only1, upTo2, all)

	return TieredBudget{
		Tier1: t1,
		Tier2: t2,
		Tier3: t3,
		BudgetScenarios: Scenarios{
			Tier1Only: Scenario{Cost: only1, Description: "Compliance locked, but accept higher operational risk"},
			Tier1And2: Scenario{Cost: upTo2, Description: fmt.Sprintf("Compliance locked + %d efficiency improvements", len(t2.Items))},
			AllTiers:  Scenario{Cost: all, Description: "Full protection + efficiency + competitive edge"},
		},
		Recommendation: advice.Text,
		Advice:         advice,
	}
}

// Recommend walks the budget ladder against the cumulative tier costs. The
// rungs are checked from the most expensive down and each boundary is inclusive.
func Recommend(budget, tier1, tier1And2, allTiers float64) Recommendation {
	switch {
	case budget >= allTiers:
		return Recommendation{
			Branch: BranchAllTiers,
			Text:   fmt.Sprintf("At %s budget, you can implement all three tiers for comprehensive protection.", dollars(budget)),
		}
	case budget >= tier1And2:
		pct := (budget - tier1And2) / (allTiers - tier1And2) * 100
		return Recommendation{
			Branch:     BranchPartialTier3,
			Percentage: pct,
			Text:       fmt.Sprintf("At %s budget, prioritize Tier 1+2 fully, plus %.0f%% of Tier 3.", dollars(budget), pct),
		}
	case budget >= tier1:
		pct := (budget - tier1) / (tier1And2 - tier1) * 100
		return Recommendation{
			Branch:     BranchPartialTier2,
			Percentage: pct,
			Text:       fmt.Sprintf("At %s budget, prioritize Tier 1 fully, plus %.0f%% of Tier 2. Tier 3 deferred.", dollars(budget), pct),
		}
	default:
		shortfall := tier1 - budget
		return Recommendation{
			Branch:    BranchShortfall,
			Shortfall: shortfall,
			Text:      fmt.Sprintf("At %s budget, you're %s short of minimum compliance requirements (Tier 1).", dollars(budget), dollars(shortfall)),
		}
	}
}
