package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/config"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func openMemoryStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("CLIENTIQ_ADDR", ":8080")
		t.Setenv("CLIENTIQ_QUEUE_SIZE", "1000")
		t.Setenv("CLIENTIQ_WORKER_COUNT", "4")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.DataSource, convey.ShouldEqual, config.SourceSynthetic)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("CLIENTIQ_ADDR", "")

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestNewService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())
		cfg.WorkerCount = 2
		store := openMemoryStore(t)

		convey.Convey("When the service is built", func() {
			svc, err := newService(cfg, store)
			convey.So(err, convey.ShouldBeNil)

			stats := svc.Stats()
			convey.So(stats["source"], convey.ShouldEqual, "synthetic")
			convey.So(stats["persistent"], convey.ShouldBeTrue)
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			convey.So(stats["started"], convey.ShouldBeFalse)
		})

		convey.Convey("When the halo source has no api url", func() {
			cfg.DataSource = config.SourceHalo
			_, err := newService(cfg, store)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the data source is unknown", func() {
			cfg.DataSource = "spreadsheet"
			_, err := newService(cfg, store)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a threshold is missing", func() {
			delete(cfg.Thresholds, "edr_coverage")
			_, err := newService(cfg, store)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestHandlerEndToEnd(t *testing.T) {
	convey.Convey("Given a started service behind the HTTP handler", t, func() {
		cfg := config.New(context.Background())
		cfg.WorkerCount = 1
		svc, err := newService(cfg, openMemoryStore(t))
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		srv := httptest.NewServer(newHandler(cfg, svc))
		defer srv.Close()

		convey.Convey("Then health answers", func() {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
			req.Header.Set("Accept", "application/json")
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then a review can be generated and read back", func() {
			body := strings.NewReader(`{"customer_id":"cust-42","skip_narrative":true}`)
			resp, err := http.Post(srv.URL+"/reviews", "application/json", body)
			convey.So(err, convey.ShouldBeNil)
			resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			resp, err = http.Get(srv.URL + "/customers/cust-42/reviews/latest")
			convey.So(err, convey.ShouldBeNil)
			resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		cfg := config.New(context.Background())
		svc, err := newService(cfg, nil)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the system updater returns once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the service updater returns once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
