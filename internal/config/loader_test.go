package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/clientiq/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.Thresholds["patch_compliance"], convey.ShouldEqual, 95)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CLIENTIQ_ADDR", ":8080")
			_ = os.Setenv("CLIENTIQ_QUEUE_SIZE", "64")
			_ = os.Setenv("CLIENTIQ_WORKER_COUNT", "16")
			_ = os.Setenv("CLIENTIQ_DEFAULT_INDUSTRY", "healthcare")
			_ = os.Setenv("CLIENTIQ_THRESHOLDS__PATCH_COMPLIANCE", "80")
			_ = os.Setenv("CLIENTIQ_HALO__RETRY_MAX", "7")
			_ = os.Setenv("CLIENTIQ_METRICS__REFRESH_SECONDS", "30")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.DefaultIndustry, convey.ShouldEqual, "healthcare")
				convey.So(cfg.Thresholds["patch_compliance"], convey.ShouldEqual, 80)
				convey.So(cfg.Thresholds["backup_success"], convey.ShouldEqual, 98)
				convey.So(cfg.Halo.RetryMax, convey.ShouldEqual, 7)
				convey.So(cfg.Metrics.RefreshSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.Metrics.Enabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
worker_count: 24
data_source: halo
halo:
  api_url: https://halo.example.com/api
  client_id: abc
  client_secret: xyz
unit_costs:
  mfa_per_user: 4.25
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CLIENTIQ_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.DataSource, convey.ShouldEqual, config.SourceHalo)
				convey.So(cfg.Halo.APIURL, convey.ShouldEqual, "https://halo.example.com/api")
				convey.So(cfg.Halo.TimeoutSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.UnitCosts["mfa_per_user"], convey.ShouldEqual, 4.25)
				convey.So(cfg.UnitCosts["siem_per_user"], convey.ShouldEqual, 6.5)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 24\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CLIENTIQ_CONFIG", tmpFile)
			_ = os.Setenv("CLIENTIQ_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CLIENTIQ_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CLIENTIQ_CONFIG", "/non/existent/clientiq.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CLIENTIQ_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CLIENTIQ_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a threshold is out of range", func() {
			_ = os.Setenv("CLIENTIQ_THRESHOLDS__EDR_COVERAGE", "140")

			cfg, err := config.Load(ctx)

			convey.Convey("Then startup is refused", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CLIENTIQ_CONFIG",
		"CLIENTIQ_ADDR",
		"CLIENTIQ_QUEUE_SIZE",
		"CLIENTIQ_WORKER_COUNT",
		"CLIENTIQ_DEFAULT_INDUSTRY",
		"CLIENTIQ_THRESHOLDS__PATCH_COMPLIANCE",
		"CLIENTIQ_THRESHOLDS__EDR_COVERAGE",
		"CLIENTIQ_HALO__RETRY_MAX",
		"CLIENTIQ_METRICS__REFRESH_SECONDS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "clientiq-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
