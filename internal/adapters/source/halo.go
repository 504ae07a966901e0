package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/logger"
	"github.com/okian/clientiq/pkg/metrics"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Default Halo client configuration constants.
const (
	defaultHaloRetryMax = 3
	defaultHaloTimeout  = 30 * time.Second
	defaultHaloScope    = "all"
	haloSourceName      = "halo"
	maxResponseBytes    = 32 << 20
	haloClientPageSize  = 1000
)

// HaloConfig holds the HaloPSA connection settings.
type HaloConfig struct {
	APIURL       string
	TokenURL     string // defaults to APIURL + "/token"
	ClientID     string
	ClientSecret string
	Scope        string
	RetryMax     int
	Timeout      time.Duration
}

// Halo reads records from the HaloPSA REST API using OAuth2 client
// credentials. Transient failures are retried with backoff.
type Halo struct {
	base   string
	client *http.Client
	now    func() time.Time
	logger logger.Logger
}

// HaloOption applies a configuration option to the Halo client.
type HaloOption func(*haloOptions)

type haloOptions struct {
	transport http.RoundTripper
	now       func() time.Time
}

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) HaloOption {
	return func(o *haloOptions) {
		if rt != nil {
			o.transport = rt
		}
	}
}

// WithHaloClock sets the clock used for the ticket window.
func WithHaloClock(now func() time.Time) HaloOption {
	return func(o *haloOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewHalo builds a Halo client. The token endpoint is reached through the
// same retrying client as the API.
func NewHalo(cfg HaloConfig, opts ...HaloOption) (*Halo, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("halo: api url is required")
	}
	o := haloOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	base := strings.TrimRight(cfg.APIURL, "/")
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = base + "/token"
	}
	scope := cfg.Scope
	if scope == "" {
		scope = defaultHaloScope
	}
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = defaultHaloRetryMax
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHaloTimeout
	}

	log := logger.Get().Named("halo")

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = retryLogger{log: log}
	rc.HTTPClient.Timeout = timeout
	if o.transport != nil {
		rc.HTTPClient.Transport = o.transport
	}
	// Return the last response instead of an error so status codes reach the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, rc.StandardClient())

	return &Halo{
		base:   base,
		client: cc.Client(tokenCtx),
		now:    o.now,
		logger: log,
	}, nil
}

// Name implements DataSource.
func (h *Halo) Name() string { return haloSourceName }

// Customer fetches one customer's metadata.
func (h *Halo) Customer(ctx context.Context, customerID string) (model.Customer, error) {
	var rec Record
	if err := h.get(ctx, "customers", "/customers/"+url.PathEscape(customerID), nil, &rec); err != nil {
		return model.Customer{}, err
	}
	return DecodeCustomer(rec)
}

// Assets fetches the customer's asset inventory.
func (h *Halo) Assets(ctx context.Context, customerID string) ([]model.Asset, error) {
	recs, err := h.list(ctx, "assets", "/assets", url.Values{"customerId": {customerID}})
	if err != nil {
		return nil, err
	}
	return DecodeAssets(recs)
}

// Tickets fetches the customer's tickets from the last TicketWindow.
func (h *Halo) Tickets(ctx context.Context, customerID string) ([]model.Ticket, error) {
	q := url.Values{
		"customerId": {customerID},
		"startDate":  {h.now().Add(-TicketWindow).UTC().Format(time.RFC3339)},
	}
	recs, err := h.list(ctx, "tickets", "/tickets", q)
	if err != nil {
		return nil, err
	}
	return DecodeTickets(recs)
}

// Users fetches the customer's user accounts.
func (h *Halo) Users(ctx context.Context, customerID string) ([]model.User, error) {
	recs, err := h.list(ctx, "users", "/users", url.Values{"customerId": {customerID}})
	if err != nil {
		return nil, err
	}
	return DecodeUsers(recs)
}

// ListCustomers fetches the whole client roster in one unpaginated page.
func (h *Halo) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	q := url.Values{
		"pageinate": {"false"},
		"count":     {strconv.Itoa(haloClientPageSize)},
	}
	recs, err := h.list(ctx, "clients", "/client", q)
	if err != nil {
		return nil, err
	}
	return DecodeClients(recs)
}

// list fetches a collection. Both a bare JSON array and an object wrapping
// the array under the resource name are accepted.
func (h *Halo) list(ctx context.Context, resource, path string, q url.Values) ([]Record, error) {
	var raw json.RawMessage
	if err := h.get(ctx, resource, path, q, &raw); err != nil {
		return nil, err
	}
	var recs []Record
	if err := json.Unmarshal(raw, &recs); err == nil {
		return recs, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %s: unexpected body", ErrUpstream, resource)
	}
	inner, ok := wrapped[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing %q array", ErrUpstream, resource, resource)
	}
	if err := json.Unmarshal(inner, &recs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, resource, err)
	}
	return recs, nil
}

func (h *Halo) get(ctx context.Context, resource, path string, q url.Values, dst any) (err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			metrics.RecordSourceFetchError(haloSourceName, resource)
			return
		}
		metrics.RecordSourceFetch(haloSourceName, resource, float64(time.Since(start).Milliseconds()))
	}()

	u := h.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("halo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %w", ErrUpstream, resource, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && resource == "customers":
		return ErrCustomerNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		h.logger.Warn(ctx, "halo request failed",
			logger.String("resource", resource),
			logger.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: %s: status %d", ErrUpstream, resource, resp.StatusCode)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %s: decode: %w", ErrUpstream, resource, err)
	}
	return nil
}

// retryLogger routes retryablehttp's leveled logging into the service logger.
type retryLogger struct {
	log logger.Logger
}

func (l retryLogger) fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}

func (l retryLogger) Error(msg string, kv ...any) {
	l.log.Error(context.Background(), msg, l.fields(kv)...)
}

func (l retryLogger) Info(msg string, kv ...any) {
	l.log.Debug(context.Background(), msg, l.fields(kv)...)
}

func (l retryLogger) Debug(msg string, kv ...any) {
	l.log.Debug(context.Background(), msg, l.fields(kv)...)
}

func (l retryLogger) Warn(msg string, kv ...any) {
	l.log.Warn(context.Background(), msg, l.fields(kv)...)
}
