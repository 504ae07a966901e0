package roi_test

import (
	"errors"
	"testing"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseIndustry(t *testing.T) {
	Convey("Given industry names", t, func() {
		Convey("Then known names are matched case-insensitively", func() {
			So(roi.ParseIndustry("Healthcare"), ShouldEqual, roi.IndustryHealthcare)
			So(roi.ParseIndustry(" FINANCIAL "), ShouldEqual, roi.IndustryFinancial)
		})

		Convey("Then unknown names fall back to government", func() {
			So(roi.ParseIndustry("retail"), ShouldEqual, roi.IndustryGovernment)
			So(roi.ParseIndustry(""), ShouldEqual, roi.IndustryGovernment)
		})

		Convey("Then every industry has a profile", func() {
			for _, i := range roi.Industries() {
				p := i.Profile()
				So(p.Name, ShouldNotBeEmpty)
				So(p.DowntimeCostPerHour, ShouldBeGreaterThan, 0)
				So(p.ComplianceFrameworks, ShouldNotBeEmpty)
			}
		})

		Convey("When a caller edits a returned profile", func() {
			p := roi.IndustryHealthcare.Profile()
			p.ComplianceFrameworks[0] = "EDITED"
			p.KeyMetrics[0] = "EDITED"
			engine := roi.NewEngine(roi.IndustryHealthcare)
			ep := engine.Profile()
			ep.ComplianceFrameworks[1] = "EDITED"
			m := engine.IndustryMetrics(model.Signals{}, nil)
			m.ComplianceFrameworks[0] = "EDITED"

			Convey("Then the shared industry table is unchanged", func() {
				fresh := roi.IndustryHealthcare.Profile()
				So(fresh.ComplianceFrameworks, ShouldResemble, []string{"HIPAA", "HITECH"})
				So(fresh.KeyMetrics[0], ShouldEqual, "ehr_uptime")
				So(engine.Profile().ComplianceFrameworks, ShouldResemble, []string{"HIPAA", "HITECH"})
				So(engine.IndustryMetrics(model.Signals{}, nil).ComplianceFrameworks[0], ShouldEqual, "HIPAA")
			})
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given ROI format slugs", t, func() {
		f, err := roi.ParseFormat("risk-avoidance")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, roi.FormatRiskAvoidance)

		_, err = roi.ParseFormat("payback")
		So(errors.Is(err, roi.ErrUnknownFormat), ShouldBeTrue)
	})
}

func TestEngine_Formats(t *testing.T) {
	Convey("Given a manufacturing engine", t, func() {
		engine := roi.NewEngine(roi.IndustryManufacturing)

		Convey("When computing risk avoidance", func() {
			r := engine.RiskAvoidance(50000, 2, 0)

			Convey("Then the default duration is used", func() {
				So(r.AvgIncidentDurationHours, ShouldEqual, 6)
				So(r.TotalRiskPrevented, ShouldEqual, 1008000)
				So(r.NetROI, ShouldEqual, 958000)
				So(r.ROIMultiplier, ShouldAlmostEqual, 20.16, 1e-9)
			})

			Convey("Then the presentation uses thousands separators", func() {
				So(r.Presentation, ShouldEqual, "Your $50,000 investment prevents $1,008,000 in lost revenue. ROI: 20.2x")
				So(r.Summary().Format, ShouldEqual, roi.FormatRiskAvoidance)
			})
		})

		Convey("When the investment is zero", func() {
			r := engine.RiskAvoidance(0, 1, 1)
			So(r.ROIMultiplier, ShouldEqual, 0)
		})
	})

	Convey("Given a government engine", t, func() {
		engine := roi.NewEngine(roi.IndustryGovernment)

		Convey("When computing efficiency unlock with defaults", func() {
			r := engine.EfficiencyUnlock(1040, 0, 0)

			So(r.CostPerHour, ShouldEqual, 50)
			So(r.AnnualSavings, ShouldEqual, 52000)
			So(r.RedeploymentValue, ShouldEqual, 78000)
			So(r.HoursPerWeek, ShouldEqual, 20)
			So(r.Presentation, ShouldEqual, "1,040 hours freed annually = $52,000 value (at $50.0/hr fully loaded cost)")
		})

		Convey("When the hourly rate has cents", func() {
			r := engine.EfficiencyUnlock(100, 52.75, 0)

			So(r.AnnualSavings, ShouldEqual, 5275)
			So(r.Presentation, ShouldEqual, "100 hours freed annually = $5,275 value (at $52.75/hr fully loaded cost)")
		})

		Convey("When computing compliance risk", func() {
			r := engine.ComplianceRisk(70, 95, 200000, 45000)

			So(r.ComplianceGap, ShouldEqual, 25)
			So(r.RiskReduction, ShouldEqual, 50000)
			So(r.NetValue, ShouldEqual, 5000)
			So(r.Presentation, ShouldEqual, "70% compliant with FERPA standards. 25% gap = $200,000 potential penalties. 45K to close.")
		})

		Convey("When computing a three-year projection", func() {
			r := engine.ThreeYearStacked(20000, 30000, 0)

			So(r.Year1.Net, ShouldEqual, 10000)
			So(r.Year2.Investment, ShouldEqual, 0)
			So(r.Year2.Net, ShouldEqual, 45000)
			So(r.Year3.Net, ShouldEqual, 56250)
			So(r.CumulativeValue, ShouldEqual, 111250)
			So(r.Presentation, ShouldEqual, "3-year value: Year 1 $10,000 + Year 2 $45,000 + Year 3 $56,250 = $111,250 total")
		})

		Convey("Then every result satisfies the Result union", func() {
			results := []roi.Result{
				engine.RiskAvoidance(1, 1, 1),
				engine.EfficiencyUnlock(1, 1, 1),
				engine.ComplianceRisk(1, 2, 3, 4),
				engine.ThreeYearStacked(1, 2, 3),
			}
			seen := map[roi.Format]bool{}
			for _, r := range results {
				seen[r.Summary().Format] = true
			}
			So(seen, ShouldHaveLength, 4)
		})
	})
}

func TestRecommend(t *testing.T) {
	Convey("Given cumulative tier costs of 1000, 3000 and 3500", t, func() {
		Convey("When the budget is 1500", func() {
			r := roi.Recommend(1500, 1000, 3000, 3500)

			Convey("Then Tier 1 is funded plus a quarter of Tier 2", func() {
				So(r.Branch, ShouldEqual, roi.BranchPartialTier2)
				So(r.Percentage, ShouldEqual, 25.0)
				So(r.Text, ShouldEqual, "At $1,500 budget, prioritize Tier 1 fully, plus 25% of Tier 2. Tier 3 deferred.")
			})
		})

		Convey("When the budget covers everything", func() {
			r := roi.Recommend(3500, 1000, 3000, 3500)
			So(r.Branch, ShouldEqual, roi.BranchAllTiers)
			So(r.Text, ShouldEqual, "At $3,500 budget, you can implement all three tiers for comprehensive protection.")
		})

		Convey("When the budget covers Tier 1 and 2", func() {
			r := roi.Recommend(3250, 1000, 3000, 3500)
			So(r.Branch, ShouldEqual, roi.BranchPartialTier3)
			So(r.Percentage, ShouldEqual, 50.0)
			So(r.Text, ShouldEqual, "At $3,250 budget, prioritize Tier 1+2 fully, plus 50% of Tier 3.")
		})

		Convey("When the budget is on the Tier 1 boundary", func() {
			r := roi.Recommend(1000, 1000, 3000, 3500)
			So(r.Branch, ShouldEqual, roi.BranchPartialTier2)
			So(r.Percentage, ShouldEqual, 0)
		})

		Convey("When the budget is below Tier 1", func() {
			r := roi.Recommend(400, 1000, 3000, 3500)
			So(r.Branch, ShouldEqual, roi.BranchShortfall)
			So(r.Shortfall, ShouldEqual, 600)
			So(r.Text, ShouldEqual, "At $400 budget, you're $600 short of minimum compliance requirements (Tier 1).")
		})
	})
}

func TestEngine_TieredBudget(t *testing.T) {
	Convey("Given one gap of each severity band", t, func() {
		engine := roi.NewEngine(roi.IndustryGovernment)
		gaps := []model.Gap{
			{Signal: model.SignalMFA, Severity: model.SeverityCritical, Issue: "mfa"},
			{Signal: model.SignalEDR, Severity: model.SeverityHigh, Issue: "edr"},
			{Signal: model.SignalResponseSLA, Severity: model.SeverityMedium, Issue: "sla"},
		}
		tb := engine.TieredBudget(4000, gaps, 10000)

		Convey("Then each tier is priced as a share of monthly spend", func() {
			So(tb.Tier1.Cost, ShouldAlmostEqual, 3000)
			So(tb.Tier2.Cost, ShouldAlmostEqual, 2000)
			So(tb.Tier3.Cost, ShouldAlmostEqual, 1000)
			So(tb.Tier1.Items[0].Issue, ShouldEqual, "mfa")
			So(tb.Tier3.Items[0].Outcome, ShouldEqual, "Competitive advantage, better customer experience")
		})

		Convey("Then risk narratives scale with tier cost", func() {
			So(tb.Tier1.RiskIfNotDone, ShouldEqual, "$15,000+ penalty exposure, audit failure")
			So(tb.Tier2.RiskIfNotDone, ShouldEqual, "$6,000/year in wasted labor, reputation risk")
		})

		Convey("Then scenarios are cumulative", func() {
			So(tb.BudgetScenarios.Tier1Only.Cost, ShouldAlmostEqual, 3000)
			So(tb.BudgetScenarios.Tier1And2.Cost, ShouldAlmostEqual, 5000)
			So(tb.BudgetScenarios.AllTiers.Cost, ShouldAlmostEqual, 6000)
			So(tb.BudgetScenarios.Tier1And2.Description, ShouldEqual, "Compliance locked + 1 efficiency improvements")
		})

		Convey("Then the recommendation falls on the Tier 2 rung", func() {
			So(tb.Advice.Branch, ShouldEqual, roi.BranchPartialTier2)
			So(tb.Advice.Percentage, ShouldAlmostEqual, 50, 1e-6)
			So(tb.Recommendation, ShouldEqual, tb.Advice.Text)
		})
	})

	Convey("Given no gaps", t, func() {
		tb := roi.NewEngine(roi.IndustryGovernment).TieredBudget(0, nil, 10000)

		Convey("Then any budget covers all tiers", func() {
			So(tb.Advice.Branch, ShouldEqual, roi.BranchAllTiers)
			So(tb.Tier1.Items, ShouldBeEmpty)
		})
	})
}

func TestEngine_IndustryMetrics(t *testing.T) {
	signals := model.Signals{PatchCompliance: 88, IncidentVolume: 10, TotalUsers: 4}
	tickets := []model.Ticket{
		{Category: "Password Reset", Priority: model.PriorityCritical},
		{Category: "Account Access", Priority: model.PriorityHigh},
		{Category: "Hardware", Priority: model.PriorityCritical},
	}

	Convey("Given signals and tickets", t, func() {
		Convey("Then government reports uptime, cost per user and audit readiness", func() {
			m := roi.NewEngine(roi.IndustryGovernment).IndustryMetrics(signals, tickets)
			So(m.Industry, ShouldEqual, "Local Government & Schools")
			So(m.Metrics[roi.MetricUptimePct], ShouldAlmostEqual, 99.9, 1e-9)
			So(m.Metrics[roi.MetricCostPerUserPerMonth], ShouldEqual, 100)
			So(m.Metrics[roi.MetricAuditReadinessScore], ShouldEqual, 88)
		})

		Convey("Then nonprofit counts self-service tickets", func() {
			m := roi.NewEngine(roi.IndustryNonprofit).IndustryMetrics(signals, tickets)
			So(m.Metrics[roi.MetricManualHoursFreed], ShouldEqual, 1)
			So(m.Metrics[roi.MetricTicketBacklogDays], ShouldEqual, 14)
		})

		Convey("Then self-service hours count half an hour per access ticket", func() {
			So(roi.SelfServiceHours(tickets), ShouldEqual, 1)
			So(roi.SelfServiceHours(nil), ShouldEqual, 0)
		})

		Convey("Then manufacturing reports a full year of revenue at risk", func() {
			m := roi.NewEngine(roi.IndustryManufacturing).IndustryMetrics(signals, tickets)
			So(m.Metrics[roi.MetricRevenueAtRisk], ShouldEqual, 84000*24*365)
			So(m.Metrics[roi.MetricProductionUptimePct], ShouldAlmostEqual, 99.95, 1e-9)
		})

		Convey("Then financial reports compliance from patching", func() {
			m := roi.NewEngine(roi.IndustryFinancial).IndustryMetrics(signals, tickets)
			So(m.Metrics[roi.MetricComplianceScore], ShouldEqual, 88)
			So(m.Metrics, ShouldHaveLength, 3)
		})

		Convey("Then healthcare subtracts critical tickets from prevented incidents", func() {
			m := roi.NewEngine(roi.IndustryHealthcare).IndustryMetrics(signals, tickets)
			So(m.Metrics[roi.MetricSafetyIncidentsPrevented], ShouldEqual, 8)
			So(m.ComplianceFrameworks, ShouldResemble, []string{"HIPAA", "HITECH"})
		})
	})
}

func TestEngine_PeerBenchmark(t *testing.T) {
	Convey("Given the percentile ladder", t, func() {
		So(roi.Percentile(95), ShouldEqual, 90)
		So(roi.Percentile(94.99), ShouldEqual, 75)
		So(roi.Percentile(85), ShouldEqual, 75)
		So(roi.Percentile(75), ShouldEqual, 50)
		So(roi.Percentile(74.99), ShouldEqual, 25)

		Convey("Then incident response percentile is capped at 95", func() {
			b := roi.NewEngine(roi.IndustryHealthcare).PeerBenchmark(model.Signals{PatchCompliance: 99})
			So(b.UptimePercentile, ShouldEqual, 90)
			So(b.IncidentResponsePercentile, ShouldEqual, 95)
			So(b.Summary, ShouldEqual, "Your controls exceed 90% of similar-sized healthcare organizations organizations")
		})

		Convey("Then lower bands add ten", func() {
			b := roi.NewEngine(roi.IndustryGovernment).PeerBenchmark(model.Signals{PatchCompliance: 10})
			So(b.IncidentResponsePercentile, ShouldEqual, 35)
		})
	})
}
