// Package budget prices compliance gaps into monthly and annual service costs.
package budget

import (
	"fmt"
	"math"

	"github.com/okian/clientiq/internal/domain/model"

	"github.com/shopspring/decimal"
)

// Unit cost configuration keys.
const (
	KeyMFAPerUser      = "mfa_per_user"
	KeyEDRPerEndpoint  = "edr_per_endpoint"
	KeyBackupPerServer = "backup_per_server"
	KeySIEMPerUser     = "siem_per_user"
)

// Line item names and units.
const (
	ServiceMFA    = "Multi-Factor Authentication"
	ServiceEDR    = "Endpoint Detection & Response"
	ServiceBackup = "Server Backup Solution"
	ServiceSIEM   = "SIEM / Security Monitoring"

	unitUser     = "per user"
	unitEndpoint = "per endpoint"
	unitServer   = "per server"

	siemNote = "Recommended due to multiple security gaps"
)

// siemGapCount is the number of High or Critical gaps that triggers SIEM.
const siemGapCount = 3

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// UnitCosts are monthly per-unit service prices.
type UnitCosts struct {
	MFAPerUser      float64 `json:"mfa_per_user"`
	EDRPerEndpoint  float64 `json:"edr_per_endpoint"`
	BackupPerServer float64 `json:"backup_per_server"`
	SIEMPerUser     float64 `json:"siem_per_user"`
}

// DefaultUnitCosts returns list prices.
func DefaultUnitCosts() UnitCosts {
	return UnitCosts{
		MFAPerUser:      3.00,
		EDRPerEndpoint:  5.50,
		BackupPerServer: 45.00,
		SIEMPerUser:     6.50,
	}
}

// ParseUnitCosts builds UnitCosts from a configuration map. All four keys
// must be present, finite and non-negative.
func ParseUnitCosts(raw map[string]float64) (UnitCosts, error) {
	var c UnitCosts
	fields := []struct {
		key string
		dst *float64
	}{
		{KeyMFAPerUser, &c.MFAPerUser},
		{KeyEDRPerEndpoint, &c.EDRPerEndpoint},
		{KeyBackupPerServer, &c.BackupPerServer},
		{KeySIEMPerUser, &c.SIEMPerUser},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			return UnitCosts{}, fmt.Errorf("%w: %s", ErrMissingUnitCost, f.key)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return UnitCosts{}, fmt.Errorf("%w: %s=%v", ErrInvalidUnitCost, f.key, v)
		}
		*f.dst = v
	}
	return c, nil
}

// Engine prices gaps. It holds only immutable configuration.
type Engine struct {
	costs UnitCosts
}

// NewEngine creates an engine with default unit costs unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{costs: DefaultUnitCosts()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UnitCosts returns the configured unit costs.
func (e *Engine) UnitCosts() UnitCosts {
	return e.costs
}

// Calculate prices the services needed to close the given gaps. A service
// is only priced when its gap exists and its population is positive.
func (e *Engine) Calculate(s model.Signals, gaps []model.Gap) model.Budget {
	var (
		needMFA, needEDR, needBackup bool
		severe                       int
	)
	for _, g := range gaps {
		switch g.Signal {
		case model.SignalMFA:
			needMFA = true
		case model.SignalEDR:
			needEDR = true
		case model.SignalBackupStatus:
			needBackup = true
		}
		if g.Severity == model.SeverityHigh || g.Severity == model.SeverityCritical {
			severe++
		}
	}

	b := model.Budget{Services: []model.LineItem{}}
	total := decimal.Zero
	add := func(service, unit string, qty int64, rate float64, note string) {
		monthly := decimal.NewFromInt(qty).Mul(decimal.NewFromFloat(rate))
		total = total.Add(monthly)
		rounded := monthly.Round(2)
		b.Services = append(b.Services, model.LineItem{
			Service:     service,
			Unit:        unit,
			Quantity:    int(qty),
			UnitCost:    rate,
			MonthlyCost: toFloat(rounded),
			AnnualCost:  toFloat(rounded.Mul(twelve).Round(2)),
			Note:        note,
		})
	}

	users := int64(s.TotalUsers)
	if needMFA && users > 0 {
		add(ServiceMFA, unitUser, users, e.costs.MFAPerUser, "")
	}
	if needEDR && s.TotalEndpoints > 0 {
		if n := uncovered(s.TotalEndpoints, s.EDR); n > 0 {
			add(ServiceEDR, unitEndpoint, n, e.costs.EDRPerEndpoint, "")
		}
	}
	if needBackup && s.TotalServers > 0 {
		if n := uncovered(s.TotalServers, s.BackupStatus); n > 0 {
			add(ServiceBackup, unitServer, n, e.costs.BackupPerServer, "")
		}
	}
	if severe >= siemGapCount && users > 0 {
		add(ServiceSIEM, unitUser, users, e.costs.SIEMPerUser, siemNote)
	}

	monthly := total.Round(2)
	b.TotalMonthly = toFloat(monthly)
	b.TotalAnnual = toFloat(monthly.Mul(twelve).Round(2))
	return b
}

// uncovered returns the whole number of units not covered at pct percent.
func uncovered(population int, pct float64) int64 {
	gap := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct).Div(hundred))
	n := decimal.NewFromInt(int64(population)).Mul(gap).IntPart()
	if n < 0 {
		return 0
	}
	return n
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
