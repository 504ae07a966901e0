package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	service "github.com/okian/clientiq/internal/app"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/review"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeSource serves one client with a patch gap and no other shortfalls.
type fakeSource struct {
	industry string
	err      error
	calls    atomic.Int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Customer(_ context.Context, id string) (model.Customer, error) {
	f.calls.Add(1)
	if f.err != nil {
		return model.Customer{}, f.err
	}
	return model.Customer{ID: id, Name: "Acme Clinic", Industry: f.industry, MFAEnforced: true}, nil
}

func (f *fakeSource) Assets(context.Context, string) ([]model.Asset, error) {
	f.calls.Add(1)
	assets := make([]model.Asset, 0, 10)
	for i := 0; i < 8; i++ {
		status := "Compliant"
		if i < 2 {
			status = "OutOfDate"
		}
		assets = append(assets, model.Asset{Type: model.AssetWorkstation, PatchStatus: status, AntivirusStatus: "Protected"})
	}
	for i := 0; i < 2; i++ {
		assets = append(assets, model.Asset{Type: model.AssetServer, PatchStatus: "Compliant", AntivirusStatus: "Protected", BackupEnabled: true})
	}
	return assets, nil
}

func (f *fakeSource) Tickets(context.Context, string) ([]model.Ticket, error) {
	f.calls.Add(1)
	tickets := make([]model.Ticket, 6)
	for i := range tickets {
		tickets[i] = model.Ticket{ID: string(rune('a' + i)), Category: "Password", Priority: model.PriorityNormal, MetSLA: true, MonthOffset: i % 3}
	}
	return tickets, nil
}

func (f *fakeSource) Users(context.Context, string) ([]model.User, error) {
	f.calls.Add(1)
	return []model.User{{ID: "u1", Active: true}, {ID: "u2", Active: true}, {ID: "u3"}}, nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (n fakeNarrator) Narrate(_ context.Context, r review.Review) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	return n.text + " " + r.CustomerName, nil
}

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	st, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "clientiq.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestService_GenerateReview(t *testing.T) {
	Convey("Given a service over a fake source and a store", t, func() {
		ctx := context.Background()
		src := &fakeSource{industry: "Healthcare"}
		st := openStore(t)
		svc := service.New(src, st, service.WithClock(func() time.Time { return fixedNow }))

		Convey("When a review is generated", func() {
			r, err := svc.GenerateReview(ctx, review.Request{CustomerID: " c-1 "})
			So(err, ShouldBeNil)

			Convey("Then the pipeline output is assembled", func() {
				So(r.ID, ShouldNotBeEmpty)
				So(r.CustomerID, ShouldEqual, "c-1")
				So(r.CustomerName, ShouldEqual, "Acme Clinic")
				So(r.Industry, ShouldEqual, roi.IndustryHealthcare)
				So(r.GeneratedAt, ShouldEqual, fixedNow)
				So(r.Signals.PatchCompliance, ShouldEqual, 80)
				So(r.Gaps, ShouldHaveLength, 1)
				So(r.Gaps[0].Signal, ShouldEqual, model.SignalPatchCompliance)
				So(r.Recommendations, ShouldHaveLength, 1)
				So(r.Narrative, ShouldBeEmpty)
				So(src.calls.Load(), ShouldEqual, 4)
			})

			Convey("Then stakeholder content is attached", func() {
				So(r.Stakeholder.BoardTalkingPoints, ShouldNotBeEmpty)
				So(r.Stakeholder.ExecutiveOnePager.Title, ShouldContainSubstring, "Acme Clinic")
			})

			Convey("Then the tiered budget falls back to the priced budget", func() {
				So(r.Budget.TotalMonthly, ShouldEqual, 0)
				So(r.TieredBudget.Tier2.Items, ShouldHaveLength, 1)
			})

			Convey("Then the run is persisted and readable", func() {
				latest, err := svc.LatestReview(ctx, "c-1")
				So(err, ShouldBeNil)
				So(latest.ID, ShouldEqual, r.ID)
				So(latest.Scores, ShouldResemble, r.Scores)

				sums, err := st.ReportSummaries(ctx, "c-1")
				So(err, ShouldBeNil)
				So(sums, ShouldHaveLength, 1)
				So(sums[0].OverallScore, ShouldEqual, r.OverallPercent())
			})

			Convey("Then a second run lists newest first", func() {
				second, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-1"})
				So(err, ShouldBeNil)
				runs, err := svc.ListReviews(ctx, "c-1", 10)
				So(err, ShouldBeNil)
				So(runs, ShouldHaveLength, 2)
				ids := []string{runs[0].ID, runs[1].ID}
				So(ids, ShouldContain, second.ID)
				So(ids, ShouldContain, r.ID)
			})
		})

		Convey("When the request names an industry", func() {
			r, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-1", Industry: "financial", CurrentMonthlyCost: 10000, TotalBudget: 5000})
			So(err, ShouldBeNil)

			Convey("Then it overrides the customer's industry", func() {
				So(r.Industry, ShouldEqual, roi.IndustryFinancial)
				So(r.IndustryMetrics.Metrics, ShouldContainKey, roi.MetricComplianceScore)
			})

			Convey("Then the given spend prices the tiers", func() {
				So(r.TieredBudget.Tier2.Cost, ShouldAlmostEqual, 2000, 1e-9)
			})
		})

		Convey("When the customer id is blank", func() {
			_, err := svc.GenerateReview(ctx, review.Request{CustomerID: "  "})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(src.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the source fails", func() {
			src.err = source.ErrCustomerNotFound
			_, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-9"})

			Convey("Then the error is returned and nothing is stored", func() {
				So(errors.Is(err, source.ErrCustomerNotFound), ShouldBeTrue)
				_, err := svc.LatestReview(ctx, "c-9")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := service.New(&fakeSource{}, nil, service.WithDefaultIndustry(roi.IndustryNonprofit))

		Convey("When a review is generated", func() {
			r, err := svc.GenerateReview(context.Background(), review.Request{CustomerID: "c-1"})

			Convey("Then it is returned without persistence", func() {
				So(err, ShouldBeNil)
				So(r.Industry, ShouldEqual, roi.IndustryNonprofit)
			})
		})

		Convey("When stored data is requested", func() {
			_, err := svc.LatestReview(context.Background(), "c-1")

			Convey("Then the service reports it is not available", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Narrator(t *testing.T) {
	Convey("Given a service with a narrator", t, func() {
		ctx := context.Background()

		Convey("When narration succeeds", func() {
			svc := service.New(&fakeSource{}, nil, service.WithNarrator(fakeNarrator{text: "Quarterly summary for"}))
			r, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-1"})

			Convey("Then the narrative is attached", func() {
				So(err, ShouldBeNil)
				So(r.Narrative, ShouldEqual, "Quarterly summary for Acme Clinic")
			})
		})

		Convey("When narration is skipped by the request", func() {
			svc := service.New(&fakeSource{}, nil, service.WithNarrator(fakeNarrator{text: "x"}))
			r, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-1", SkipNarrative: true})

			Convey("Then no narrative is produced", func() {
				So(err, ShouldBeNil)
				So(r.Narrative, ShouldBeEmpty)
			})
		})

		Convey("When narration fails", func() {
			svc := service.New(&fakeSource{}, nil, service.WithNarrator(fakeNarrator{err: errors.New("model offline")}))
			r, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-1"})

			Convey("Then the review still succeeds without text", func() {
				So(err, ShouldBeNil)
				So(r.Narrative, ShouldBeEmpty)
				So(r.Scores.Overall, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestService_Segmentation(t *testing.T) {
	Convey("Given a service with a store", t, func() {
		ctx := context.Background()
		st := openStore(t)
		svc := service.New(&fakeSource{}, st, service.WithClock(func() time.Time { return fixedNow }))
		start := fixedNow.AddDate(-1, 0, 0)

		Convey("When scheduling before start", func() {
			err := svc.ScheduleSegmentation(ctx, "c-1", service.ReasonManual)

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When a customer is read before any worker has run", func() {
			_, err := svc.SaveAgreement(ctx, model.Agreement{ID: "a-9", CustomerID: "c-9", MonthlyMRR: 12000, Status: model.AgreementActive, StartDate: start})
			So(err, ShouldBeNil)
			rec, err := svc.Segmentation(ctx, "c-9")

			Convey("Then the segmentation is calculated on read and stored", func() {
				So(err, ShouldBeNil)
				So(rec.Tier, ShouldEqual, segmentation.TierPlatinum)
				So(rec.TotalMRR, ShouldEqual, 12000)

				again, err := st.Segmentation(ctx, "c-9")
				So(err, ShouldBeNil)
				So(again.Tier, ShouldEqual, segmentation.TierPlatinum)
			})
		})

		Convey("When records are saved without an id", func() {
			a, err := svc.SaveAgreement(ctx, model.Agreement{ID: "  ", CustomerID: "c-1", MonthlyMRR: 100, Status: model.AgreementActive})
			So(err, ShouldBeNil)
			m, err := svc.SaveMeeting(ctx, model.Meeting{CustomerID: "c-1", Title: "Intro", ScheduledDate: fixedNow})
			So(err, ShouldBeNil)

			Convey("Then each gets a generated id", func() {
				So(a.ID, ShouldHaveLength, 36)
				So(m.ID, ShouldHaveLength, 36)
				So(a.ID, ShouldNotEqual, m.ID)

				stored, err := st.Agreements(ctx, "c-1")
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 1)
				So(stored[0].ID, ShouldEqual, a.ID)
			})
		})

		Convey("When another customer reuses an agreement id", func() {
			_, err := svc.SaveAgreement(ctx, model.Agreement{ID: "a-1", CustomerID: "c-1", MonthlyMRR: 100, Status: model.AgreementActive})
			So(err, ShouldBeNil)
			_, err = svc.SaveAgreement(ctx, model.Agreement{ID: "a-1", CustomerID: "c-2", MonthlyMRR: 100, Status: model.AgreementActive})

			Convey("Then a conflict is returned", func() {
				So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When a customer is recalculated directly", func() {
			_, err := svc.SaveAgreement(ctx, model.Agreement{ID: "a-1", CustomerID: "c-1", MonthlyMRR: 4000, Status: model.AgreementActive, StartDate: start})
			So(err, ShouldBeNil)
			first, err := svc.RecalculateSegmentation(ctx, "c-1")
			So(err, ShouldBeNil)

			Convey("Then the first record has a stable trend", func() {
				So(first.Tier, ShouldEqual, segmentation.TierSilver)
				So(first.MRRTrend, ShouldEqual, segmentation.TrendStable)
				So(first.TenureMonths, ShouldEqual, 12)
			})

			Convey("Then added revenue is seen as growth", func() {
				_, err := svc.SaveAgreement(ctx, model.Agreement{ID: "a-2", CustomerID: "c-1", MonthlyMRR: 2000, Status: model.AgreementActive, StartDate: start})
				So(err, ShouldBeNil)
				second, err := svc.RecalculateSegmentation(ctx, "c-1")
				So(err, ShouldBeNil)
				So(second.Tier, ShouldEqual, segmentation.TierGold)
				So(second.MRRTrend, ShouldEqual, segmentation.TrendGrowing)
				So(second.MRRChangePercentage, ShouldEqual, 50)

				stored, err := svc.Segmentation(ctx, "c-1")
				So(err, ShouldBeNil)
				So(stored.TotalMRR, ShouldEqual, 6000)
			})

			Convey("Then the tier summary counts it", func() {
				summary, err := svc.SegmentationSummary(ctx)
				So(err, ShouldBeNil)
				So(summary[segmentation.TierSilver].Count, ShouldEqual, 1)
				So(summary[segmentation.TierPlatinum].Count, ShouldEqual, 0)
			})
		})

		Convey("When the service runs and a meeting is recorded", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.SaveMeeting(ctx, model.Meeting{ID: "m-1", CustomerID: "c-2", Title: "QBR", ScheduledDate: fixedNow.AddDate(0, 0, -10)})
			So(err, ShouldBeNil)

			var rec segmentation.Record
			deadline := time.Now().Add(5 * time.Second)
			for {
				rec, err = svc.Segmentation(ctx, "c-2")
				if err == nil || time.Now().After(deadline) {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			Convey("Then a worker recalculates the segmentation", func() {
				So(err, ShouldBeNil)
				So(rec.CustomerID, ShouldEqual, "c-2")
				So(rec.MeetingsPerQuarter, ShouldEqual, 1)
			})

			Convey("Then stopping drains and reports stats", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
				stats := svc.Stats()
				So(stats["started"], ShouldEqual, false)
				So(stats["source"], ShouldEqual, "fake")
			})

			Reset(func() { _ = svc.Stop(ctx) })
		})
	})
}
