package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"

	"github.com/google/uuid"
)

const syntheticSourceName = "synthetic"

// syntheticNamespace scopes the name-based ids the generator emits.
var syntheticNamespace = uuid.MustParse("5b0c2a3e-8d5f-4c1e-9a57-0f3d2b6e1c44") //nolint:gochecknoglobals // fixed namespace

var (
	assetTypes       = []string{model.AssetServer, model.AssetWorkstation, model.AssetLaptop, model.AssetMobile}
	patchStatuses    = []string{"Compliant", "Compliant", "Compliant", "UpToDate", "OutOfDate", model.Unknown}
	avStatuses       = []string{"Protected", "Protected", "Enabled", "Disabled", model.Unknown}
	operatingSystems = []string{"Windows 11", "Windows 10", "Windows Server 2022", "macOS", "Linux"}
	ticketCategories = []string{
		"Hardware Issue", "Software Issue", "Network Issue", "Security", "Password Reset",
		"Account Access", "Equipment Failure", "Application Error", "Email Issue", "Printer Issue",
	}
	ticketPriorities = []string{model.PriorityLow, model.PriorityNormal, model.PriorityNormal, model.PriorityNormal, model.PriorityHigh, model.PriorityCritical}
	ticketStatuses   = []string{"Resolved", "Resolved", "Resolved", "Closed", "Open"}
)

// Synthetic generates plausible records for demos and tests. Output depends
// only on the seed, the customer id and the clock, so repeated calls agree.
type Synthetic struct {
	seed uint64
	now  func() time.Time
}

// SyntheticOption applies a configuration option to the Synthetic source.
type SyntheticOption func(*Synthetic)

// WithSeed fixes the generator seed.
func WithSeed(seed int64) SyntheticOption {
	return func(s *Synthetic) {
		s.seed = uint64(seed)
	}
}

// WithClock sets the clock ticket dates are relative to.
func WithClock(now func() time.Time) SyntheticOption {
	return func(s *Synthetic) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSynthetic creates a synthetic data source.
func NewSynthetic(opts ...SyntheticOption) *Synthetic {
	s := &Synthetic{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements DataSource.
func (s *Synthetic) Name() string { return syntheticSourceName }

// rng returns an independent stream per customer and resource.
func (s *Synthetic) rng(customerID, resource string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(customerID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(resource))
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}

func between(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

func id(kind, customerID string, i int) string {
	return uuid.NewSHA1(syntheticNamespace, []byte(fmt.Sprintf("%s/%s/%d", kind, customerID, i))).String()
}

// Customer implements DataSource.
func (s *Synthetic) Customer(ctx context.Context, customerID string) (model.Customer, error) {
	if err := ctx.Err(); err != nil {
		return model.Customer{}, err
	}
	r := s.rng(customerID, "customer")
	return model.Customer{
		ID:            customerID,
		Name:          "Acme Corporation " + customerID,
		Industry:      string(pick(r, roi.Industries())),
		MFAEnforced:   r.IntN(2) == 0,
		EmployeeCount: between(r, 50, 500),
	}, nil
}

// Assets implements DataSource.
func (s *Synthetic) Assets(ctx context.Context, customerID string) ([]model.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := s.rng(customerID, "assets")
	assets := make([]model.Asset, between(r, 20, 100))
	for i := range assets {
		t := pick(r, assetTypes)
		assets[i] = model.Asset{
			ID:              id("asset", customerID, i),
			Name:            fmt.Sprintf("%s-%03d", t, i),
			Type:            t,
			PatchStatus:     pick(r, patchStatuses),
			AntivirusStatus: pick(r, avStatuses),
			BackupEnabled:   r.IntN(4) != 0,
			OS:              pick(r, operatingSystems),
		}
	}
	return assets, nil
}

// Tickets implements DataSource. Tickets spread over the three months of
// the window. Resolved and closed ones carry resolution hours, which settle
// the SLA; open ones have neither hours nor a met SLA.
func (s *Synthetic) Tickets(ctx context.Context, customerID string) ([]model.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := s.rng(customerID, "tickets")
	now := s.now()

	users := between(r, 25, 100)
	type namedAsset struct{ name, kind string }
	var assets []namedAsset
	for _, kind := range []string{model.AssetServer, model.AssetWorkstation, model.AssetLaptop} {
		n := between(r, 5, 20)
		for i := 0; i < n; i++ {
			assets = append(assets, namedAsset{fmt.Sprintf("%s-%03d", kind, i), kind})
		}
	}

	tickets := make([]model.Ticket, between(r, 50, 150))
	for i := range tickets {
		offset := r.IntN(3)
		created := now.Add(-time.Duration(between(r, offset*30, (offset+1)*30)) * 24 * time.Hour)
		hours := float64(between(r, 1, 120))
		priority := pick(r, ticketPriorities)
		category := pick(r, ticketCategories)
		status := pick(r, ticketStatuses)
		user := fmt.Sprintf("User %d", r.IntN(users))
		asset := pick(r, assets)

		t := model.Ticket{
			ID:          id("ticket", customerID, i),
			Subject:     category + " - " + user,
			Category:    category,
			Priority:    priority,
			Status:      status,
			User:        user,
			Asset:       asset.name,
			AssetType:   asset.kind,
			CreatedAt:   created,
			MonthOffset: offset,
		}
		if status == "Resolved" || status == "Closed" {
			resolved := created.Add(time.Duration(hours) * time.Hour)
			t.ResolvedAt = &resolved
			t.ResolutionHours = &hours
		}
		// open tickets carry no resolution and no upstream flag, so they count as missed
		t.MetSLA = TicketMetSLA(priority, t.ResolutionHours, false, false)
		tickets[i] = t
	}
	return tickets, nil
}

// Users implements DataSource.
func (s *Synthetic) Users(ctx context.Context, customerID string) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := s.rng(customerID, "users")
	users := make([]model.User, between(r, 25, 200))
	for i := range users {
		users[i] = model.User{
			ID:     id("user", customerID, i),
			Name:   fmt.Sprintf("User %d", i),
			Email:  fmt.Sprintf("user%d@customer%s.com", i, customerID),
			Active: r.IntN(5) != 0,
		}
	}
	return users, nil
}

// syntheticRosterSize is how many clients ListCustomers reports.
const syntheticRosterSize = 5

// ListCustomers implements CustomerLister with the ids c-1 through c-5.
func (s *Synthetic) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	out := make([]model.Customer, 0, syntheticRosterSize)
	for i := 1; i <= syntheticRosterSize; i++ {
		c, err := s.Customer(ctx, fmt.Sprintf("c-%d", i))
		if err != nil {
			return nil, err
		}
		c.Metadata = &model.CustomerMetadata{SourceID: c.ID, Status: "active"}
		out = append(out, c)
	}
	return out, nil
}
