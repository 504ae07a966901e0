package loadgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/clientiq/internal/adapters/http/api"
	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	service "github.com/okian/clientiq/internal/app"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/internal/domain/segmentation"
	"github.com/okian/clientiq/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerateFixtures(t *testing.T) {
	Convey("Given a seeded configuration", t, func() {
		cfg := &Config{Customers: 20, MaxAgreements: 3, Seed: 7}

		Convey("Then fixtures are reproducible", func() {
			a, err := generateFixtures(context.Background(), cfg, &Stats{})
			So(err, ShouldBeNil)
			b, err := generateFixtures(context.Background(), cfg, &Stats{})
			So(err, ShouldBeNil)

			So(len(a), ShouldEqual, 20)
			for i := range a {
				So(a[i].CustomerID, ShouldEqual, b[i].CustomerID)
				So(a[i].ExpectedMRR(), ShouldEqual, b[i].ExpectedMRR())
				So(len(a[i].Agreements), ShouldEqual, len(b[i].Agreements))
			}
		})

		Convey("Then every fixture has an active agreement owned by the customer", func() {
			stats := &Stats{}
			fixtures, err := generateFixtures(context.Background(), cfg, stats)
			So(err, ShouldBeNil)
			So(stats.CustomersGenerated, ShouldEqual, 20)

			seen := map[string]bool{}
			for _, f := range fixtures {
				So(seen[f.CustomerID], ShouldBeFalse)
				seen[f.CustomerID] = true
				So(f.ExpectedMRR(), ShouldBeGreaterThan, 0)

				active := 0
				for _, a := range f.Agreements {
					So(a.CustomerID, ShouldEqual, f.CustomerID)
					if a.Status == model.AgreementActive {
						active++
					}
				}
				So(active, ShouldBeBetweenOrEqual, 1, 3)
				So(len(f.Meetings), ShouldBeLessThanOrEqualTo, maxMeetings)
			}
		})

		Convey("Then a different seed yields different customers", func() {
			a, _ := generateFixtures(context.Background(), cfg, &Stats{})
			other := *cfg
			other.Seed = 8
			b, _ := generateFixtures(context.Background(), &other, &Stats{})
			So(a[0].CustomerID, ShouldNotEqual, b[0].CustomerID)
		})

		Convey("Then zero customers is rejected", func() {
			cfg.Customers = 0
			_, err := generateFixtures(context.Background(), cfg, &Stats{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerifyRecord(t *testing.T) {
	Convey("Given a fixture worth 6000 a month", t, func() {
		f := Fixture{
			CustomerID: "c-1",
			Agreements: []model.Agreement{
				{ID: "a", CustomerID: "c-1", MonthlyMRR: 6000, Status: model.AgreementActive},
				{ID: "b", CustomerID: "c-1", MonthlyMRR: 900, Status: "expired"},
			},
		}
		So(f.ExpectedTier(), ShouldEqual, segmentation.TierGold)

		Convey("A matching record passes", func() {
			So(verifyRecord(f, segmentation.Record{CustomerID: "c-1", TotalMRR: 6000, Tier: segmentation.TierGold}), ShouldBeNil)
		})
		Convey("A missing record fails", func() {
			So(verifyRecord(f, segmentation.Record{}), ShouldNotBeNil)
		})
		Convey("Counting the expired agreement fails", func() {
			err := verifyRecord(f, segmentation.Record{CustomerID: "c-1", TotalMRR: 6900, Tier: segmentation.TierGold})
			So(err.Error(), ShouldContainSubstring, "total mrr")
		})
		Convey("A wrong tier fails", func() {
			err := verifyRecord(f, segmentation.Record{CustomerID: "c-1", TotalMRR: 6000, Tier: segmentation.TierSilver})
			So(err.Error(), ShouldContainSubstring, "tier")
		})
	})

	Convey("Given a summary short of the generated customers", t, func() {
		f := Fixture{CustomerID: "c-1", Agreements: []model.Agreement{{MonthlyMRR: 100, Status: model.AgreementActive}}}
		rec := segmentation.Record{CustomerID: "c-1", TotalMRR: 100, Tier: segmentation.TierBronze}
		stats := &Stats{}
		err := verifyResults(context.Background(), &Config{}, []Fixture{f}, []segmentation.Record{rec}, Summary{}, stats)
		So(errors.Is(err, ErrMismatch), ShouldBeTrue)
		So(stats.Mismatches, ShouldEqual, 1)
	})
}

func startService(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := repository.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := service.New(source.NewSynthetic(), store, service.WithWorkerCount(2), service.WithQueueSize(16))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc, svc, roi.IndustryGovernment).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
		_ = store.Close()
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := startService(t)
		output := filepath.Join(t.TempDir(), "out", "fixtures.json")
		cfg := &Config{
			BaseURL:       srv.URL,
			Customers:     12,
			MaxAgreements: 3,
			Workers:       4,
			Timeout:       5 * time.Second,
			Retries:       3,
			Settle:        10 * time.Second,
			Seed:          42,
			OutputFile:    output,
		}

		Convey("Then every customer converges to its expected tier", func() {
			stats, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(stats.CustomersGenerated, ShouldEqual, 12)
			So(stats.RequestsFailed, ShouldEqual, 0)
			So(stats.RequestsSuccessful, ShouldEqual, stats.RequestsSubmitted)
			So(stats.RecordsConverged, ShouldEqual, 12)
			So(stats.Mismatches, ShouldEqual, 0)

			_, statErr := os.Stat(output)
			So(statErr, ShouldBeNil)
		})
	})

	Convey("Given an unhealthy service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Customers: 1, Workers: 1, Timeout: time.Second})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})
}
