package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/clientiq/internal/loadgen"

	"github.com/urfave/cli/v2"
)

// Default configuration constants.
const (
	defaultCustomers     = 500
	defaultMaxAgreements = 3
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultSettle        = 2 * time.Minute
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	app := &cli.App{
		Name:  "loadgen",
		Usage: "Post generated agreements and meetings and verify customer segmentation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "Base URL of the service"},
			&cli.IntFlag{Name: "customers", Value: defaultCustomers, Usage: "Number of customers to generate"},
			&cli.IntFlag{Name: "max-agreements", Value: defaultMaxAgreements, Usage: "Maximum active agreements per customer"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * defaultWorkers, Usage: "Number of concurrent workers"},
			&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "HTTP request timeout"},
			&cli.IntFlag{Name: "retries", Value: 4, Usage: "Retries per request on 429 and 5xx"},
			&cli.DurationFlag{Name: "settle", Value: defaultSettle, Usage: "How long to wait for segmentation to converge"},
			&cli.Uint64Flag{Name: "seed", Value: uint64(time.Now().UnixNano()), Usage: "Fixture seed"},
			&cli.StringFlag{Name: "output", Usage: "Fixture dump (default: loadgen_fixtures_TIMESTAMP.json)"},
			&cli.StringFlag{Name: "log", Usage: "Also write log output to this file"},
			&cli.BoolFlag{Name: "verbose", Usage: "Enable verbose logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Load run failed: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	closeLog, err := loadgen.SetupLogging(c.String("log"))
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	output := c.String("output")
	if output == "" {
		output = loadgen.DefaultOutputFile(time.Now())
	}

	_, err = loadgen.Run(ctx, &loadgen.Config{
		BaseURL:       c.String("url"),
		Customers:     c.Int("customers"),
		MaxAgreements: c.Int("max-agreements"),
		Workers:       c.Int("workers"),
		Timeout:       c.Duration("timeout"),
		Retries:       c.Int("retries"),
		Settle:        c.Duration("settle"),
		Seed:          c.Uint64("seed"),
		OutputFile:    output,
		Verbose:       c.Bool("verbose"),
	})
	return err
}
