package insights

import (
	"fmt"

	"github.com/okian/clientiq/internal/domain/model"
)

// Recommendation is a heuristic suggestion beyond the gap analysis.
type Recommendation struct {
	Title            string         `json:"title"`
	Priority         model.Severity `json:"priority"`
	Category         string         `json:"category"`
	Rationale        string         `json:"rationale"`
	Impact           string         `json:"impact"`
	EstimatedSavings string         `json:"estimated_savings"`
}

// Anomaly is an unusual pattern in the signals.
type Anomaly struct {
	Type           string         `json:"type"`
	Severity       model.Severity `json:"severity"`
	Description    string         `json:"description"`
	Recommendation string         `json:"recommendation"`
}

func recommend(s model.Signals, tickets []model.Ticket) []Recommendation {
	recs := []Recommendation{}
	if n := len(tickets); n > 0 {
		cats := newCounter()
		for _, t := range tickets {
			cats.add(categoryOf(t))
		}
		total := float64(n)
		share := func(k int) float64 { return float64(k) / total * 100 }

		if access := cats.get("Password Reset") + cats.get("Account Access"); float64(access) > total*0.15 {
			recs = append(recs, Recommendation{
				Title:            "Implement Self-Service Password Reset Portal",
				Priority:         model.SeverityMedium,
				Category:         "Efficiency",
				Rationale:        fmt.Sprintf("%d password/access tickets (%.1f%% of total) suggest high support burden", access, share(access)),
				Impact:           "Reduce helpdesk workload by 20-30%, improve user satisfaction",
				EstimatedSavings: "$200-400/month in support time",
			})
		}
		if hw := cats.get("Hardware Issue") + cats.get("Equipment Failure"); float64(hw) > total*0.20 {
			recs = append(recs, Recommendation{
				Title:            "Accelerate Hardware Refresh Cycle",
				Priority:         model.SeverityHigh,
				Category:         "Infrastructure",
				Rationale:        fmt.Sprintf("%d hardware-related tickets (%.1f%% of total) indicate aging equipment", hw, share(hw)),
				Impact:           "Reduce downtime, improve productivity, lower support costs",
				EstimatedSavings: "$500-800/month in reduced support and downtime",
			})
		}
		if sw := cats.get("Software Issue") + cats.get("Application Error"); float64(sw) > total*0.15 {
			recs = append(recs, Recommendation{
				Title:            "Conduct Application Portfolio Review and User Training",
				Priority:         model.SeverityMedium,
				Category:         "Training",
				Rationale:        fmt.Sprintf("%d software-related tickets (%.1f%% of total) suggest training gaps or application issues", sw, share(sw)),
				Impact:           "Improve user proficiency, reduce support burden",
				EstimatedSavings: "$150-300/month in reduced support tickets",
			})
		}
	}

	if s.EDR < 90 {
		recs = append(recs, Recommendation{
			Title:            "Deploy EDR to All Endpoints with Automated Threat Response",
			Priority:         model.SeverityCritical,
			Category:         "Security",
			Rationale:        fmt.Sprintf("Current EDR coverage at %.1f%% leaves significant attack surface", s.EDR),
			Impact:           "Reduce breach risk, enable proactive threat hunting, meet compliance requirements",
			EstimatedSavings: "Avoid potential breach costs ($50K-$500K+)",
		})
	}
	if s.BackupStatus < 98 {
		recs = append(recs, Recommendation{
			Title:            "Implement Comprehensive Backup Strategy with Immutable Copies",
			Priority:         model.SeverityCritical,
			Category:         "Business Continuity",
			Rationale:        fmt.Sprintf("Backup coverage at %.1f%% presents significant data loss risk", s.BackupStatus),
			Impact:           "Protect against ransomware, ensure business continuity, meet RTO/RPO objectives",
			EstimatedSavings: "Avoid data loss costs ($100K-$1M+)",
		})
	}
	if s.PatchCompliance < 95 {
		recs = append(recs, Recommendation{
			Title:            "Implement Automated Patch Management with Testing Framework",
			Priority:         model.SeverityHigh,
			Category:         "Security",
			Rationale:        fmt.Sprintf("Patch compliance at %.1f%% increases vulnerability to known exploits", s.PatchCompliance),
			Impact:           "Reduce attack surface, automate compliance, minimize manual effort",
			EstimatedSavings: "Avoid breach costs + $300-500/month in manual patching time",
		})
	}
	return recs
}

func anomalies(s model.Signals) []Anomaly {
	out := []Anomaly{}
	if s.TotalUsers > 0 {
		ratio := float64(s.TotalAssets) / float64(s.TotalUsers)
		switch {
		case ratio > 3:
			out = append(out, Anomaly{
				Type:           "Asset Ratio",
				Severity:       model.SeverityMedium,
				Description:    fmt.Sprintf("High asset-to-user ratio (%.1f:1) may indicate shadow IT or inventory issues", ratio),
				Recommendation: "Conduct asset inventory audit and decommission unused equipment",
			})
		case ratio < 1:
			out = append(out, Anomaly{
				Type:           "Asset Ratio",
				Severity:       model.SeverityLow,
				Description:    fmt.Sprintf("Low asset-to-user ratio (%.1f:1) may indicate incomplete inventory", ratio),
				Recommendation: "Verify all assets are properly tracked in inventory system",
			})
		}
	}
	if s.ResponseTimeSLA < 70 {
		out = append(out, Anomaly{
			Type:           "SLA Performance",
			Severity:       model.SeverityHigh,
			Description:    fmt.Sprintf("SLA attainment of %.1f%% is significantly below industry standard (90%%+)", s.ResponseTimeSLA),
			Recommendation: "Immediate review of staffing levels, ticket prioritization, and escalation procedures",
		})
	}
	return out
}
