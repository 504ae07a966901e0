package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/logger"
)

// ErrImportUnsupported reports a data source without a client roster.
var ErrImportUnsupported = errors.New("customer import not supported by source")

// ImportResult counts the outcome of one roster import.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ImportCustomers copies the source's client roster into the store. A
// client that fails to save is counted and skipped.
func (s *Service) ImportCustomers(ctx context.Context) (ImportResult, error) {
	if err := s.requireStore(); err != nil {
		return ImportResult{}, err
	}
	lister, ok := s.source.(source.CustomerLister)
	if !ok {
		return ImportResult{}, fmt.Errorf("%w: %s", ErrImportUnsupported, s.source.Name())
	}
	clients, err := lister.ListCustomers(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("list customers: %w", err)
	}

	var res ImportResult
	at := s.now().UTC()
	for _, c := range clients {
		created, err := s.store.SaveCustomer(ctx, c, at)
		switch {
		case err != nil:
			res.Failed++
			s.logger.Warn(ctx, "customer import failed",
				logger.String("customerID", c.ID),
				logger.Error(err),
			)
		case created:
			res.Added++
		default:
			res.Updated++
		}
	}
	s.logger.Info(ctx, "customers imported",
		logger.String("source", s.source.Name()),
		logger.Int("added", res.Added),
		logger.Int("updated", res.Updated),
		logger.Int("failed", res.Failed),
	)
	return res, nil
}

// Customers returns the imported roster.
func (s *Service) Customers(ctx context.Context) ([]model.Customer, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.Customers(ctx)
}

// rosterIndustry fills a missing industry from the imported roster.
func (s *Service) rosterIndustry(ctx context.Context, c *model.Customer) {
	if s.store == nil || c.Industry != "" {
		return
	}
	stored, err := s.store.Customer(ctx, c.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "roster lookup failed", logger.String("customerID", c.ID), logger.Error(err))
		}
		return
	}
	c.Industry = stored.Industry
}
