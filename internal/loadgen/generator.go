package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/google/uuid"
)

// loadgenNamespace scopes the fixture identifiers so reruns with one seed
// upsert the same rows.
var loadgenNamespace = uuid.MustParse("9b7c9a52-38f4-4a8e-8e0d-3f0e6c1f4b21")

// Account size bands in monthly recurring revenue.
const (
	caseSmallAccount = iota
	caseMidAccount
	caseLargeAccount
	caseEnterpriseAccount
	accountCases
)

var accountBands = [accountCases]struct{ min, span float64 }{
	caseSmallAccount:      {min: 200, span: 1700},
	caseMidAccount:        {min: 2100, span: 2800},
	caseLargeAccount:      {min: 5100, span: 4800},
	caseEnterpriseAccount: {min: 10100, span: 9000},
}

var inactiveStatuses = []string{"expired", "cancelled", "pending"}

const (
	inactiveOneIn    = 5
	maxMeetings      = 4
	maxTenureMonths  = 48
	meetingWindowDay = 180
)

// generateFixtures builds one fixture per customer. The same seed yields
// the same fixtures apart from the timestamps, which are relative to now.
func generateFixtures(ctx context.Context, config *Config, stats *Stats) ([]Fixture, error) {
	logger.Get().Info(ctx, "generating fixtures", logger.Int("customers", config.Customers))

	if config.Customers <= 0 {
		return nil, fmt.Errorf("customers must be positive, got %d", config.Customers)
	}
	maxAgreements := config.MaxAgreements
	if maxAgreements <= 0 {
		maxAgreements = 1
	}

	now := time.Now().UTC()
	r := rand.New(rand.NewPCG(config.Seed, config.Seed^0x5bd1e995))
	fixtures := make([]Fixture, config.Customers)
	for i := range fixtures {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during fixture generation: %w", err)
		}
		fixtures[i] = generateSingleFixture(r, config.Seed, i, maxAgreements, now)
	}

	stats.CustomersGenerated = len(fixtures)
	logger.Get().Info(ctx, "generated fixtures", logger.Int("count", len(fixtures)))
	return fixtures, nil
}

// generateSingleFixture spreads one account band's MRR over a few active
// agreements and adds the occasional inactive one that must not count.
func generateSingleFixture(r *rand.Rand, seed uint64, index, maxAgreements int, now time.Time) Fixture {
	customerID := fixtureID(seed, "customer", index, 0)
	band := accountBands[r.IntN(accountCases)]
	total := band.min + r.Float64()*band.span

	active := 1 + r.IntN(maxAgreements)
	f := Fixture{CustomerID: customerID}
	for j := 0; j < active; j++ {
		f.Agreements = append(f.Agreements, model.Agreement{
			ID:         fixtureID(seed, "agreement", index, j),
			CustomerID: customerID,
			Name:       fmt.Sprintf("Managed services %d", j+1),
			MonthlyMRR: roundCents(total / float64(active)),
			Status:     model.AgreementActive,
			StartDate:  now.AddDate(0, -r.IntN(maxTenureMonths)-1, 0).Truncate(time.Second),
		})
	}
	if r.IntN(inactiveOneIn) == 0 {
		f.Agreements = append(f.Agreements, model.Agreement{
			ID:         fixtureID(seed, "agreement", index, active),
			CustomerID: customerID,
			Name:       "Legacy backup plan",
			MonthlyMRR: roundCents(band.min),
			Status:     inactiveStatuses[r.IntN(len(inactiveStatuses))],
			StartDate:  now.AddDate(-2, 0, 0).Truncate(time.Second),
		})
	}

	meetings := r.IntN(maxMeetings + 1)
	for j := 0; j < meetings; j++ {
		f.Meetings = append(f.Meetings, model.Meeting{
			ID:            fixtureID(seed, "meeting", index, j),
			CustomerID:    customerID,
			Title:         "Quarterly business review",
			ScheduledDate: now.AddDate(0, 0, -r.IntN(meetingWindowDay)).Truncate(time.Second),
		})
	}
	return f
}

func fixtureID(seed uint64, kind string, index, n int) string {
	return uuid.NewSHA1(loadgenNamespace, fmt.Appendf(nil, "%d/%s/%d/%d", seed, kind, index, n)).String()
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
