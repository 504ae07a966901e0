// Command review generates client security reviews from the command line.
//
// Usage:
//
//	review generate --customer 42 [--industry healthcare] [--persist]
//	review tiers --gaps gaps.json --budget 12000 --current-cost 3000
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/clientiq/internal/adapters/repository"
	app "github.com/okian/clientiq/internal/app"
	"github.com/okian/clientiq/internal/config"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/review"
	"github.com/okian/clientiq/internal/domain/roi"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "review",
		Usage:     "Generate client security reviews and budget tiers",
		Version:   version,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"CLIENTIQ_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			generateCommand(),
			tiersCommand(),
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a review for one customer and print it as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "customer",
				Aliases:  []string{"c"},
				Usage:    "Customer identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "industry",
				Aliases: []string{"i"},
				Usage:   "Industry override (" + industryList() + ")",
			},
			&cli.Float64Flag{
				Name:  "budget",
				Usage: "Total budget available for the tiered plan",
			},
			&cli.Float64Flag{
				Name:  "current-cost",
				Usage: "Current monthly cost",
			},
			&cli.BoolFlag{
				Name:  "persist",
				Usage: "Store the run in the configured database",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	var store repository.Store
	if c.Bool("persist") {
		s, err := repository.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	svc, err := app.NewFromConfig(cfg, store)
	if err != nil {
		return err
	}

	rv, err := svc.GenerateReview(ctx, review.Request{
		CustomerID:         c.String("customer"),
		Industry:           c.String("industry"),
		TotalBudget:        c.Float64("budget"),
		CurrentMonthlyCost: c.Float64("current-cost"),
		SkipNarrative:      true,
	})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, rv)
}

func tiersCommand() *cli.Command {
	return &cli.Command{
		Name:  "tiers",
		Usage: "Split a list of gaps into budget tiers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "gaps",
				Aliases:  []string{"g"},
				Usage:    "Path to a JSON array of gaps, - for stdin",
				Required: true,
			},
			&cli.Float64Flag{
				Name:     "budget",
				Usage:    "Total budget available",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "current-cost",
				Usage: "Current monthly cost",
			},
			&cli.StringFlag{
				Name:  "industry",
				Value: string(roi.IndustryGovernment),
				Usage: "Industry profile (" + industryList() + ")",
			},
		},
		Action: runTiers,
	}
}

func runTiers(c *cli.Context) error {
	gaps, err := readGaps(c.String("gaps"))
	if err != nil {
		return err
	}
	if c.Float64("budget") < 0 || c.Float64("current-cost") < 0 {
		return fmt.Errorf("budget and current cost must not be negative")
	}
	engine := roi.NewEngine(roi.ParseIndustry(c.String("industry")))
	return printJSON(c.App.Writer, engine.TieredBudget(c.Float64("budget"), gaps, c.Float64("current-cost")))
}

func readGaps(path string) ([]model.Gap, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open gaps: %w", err)
		}
		defer f.Close()
		r = f
	}
	var gaps []model.Gap
	if err := json.NewDecoder(r).Decode(&gaps); err != nil {
		return nil, fmt.Errorf("decode gaps: %w", err)
	}
	return gaps, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func industryList() string {
	var s string
	for i, ind := range roi.Industries() {
		if i > 0 {
			s += ", "
		}
		s += string(ind)
	}
	return s
}
