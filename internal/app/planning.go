package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/clientiq/internal/domain/planning"
	"github.com/okian/clientiq/pkg/logger"

	"github.com/google/uuid"
)

// CreateGoal stores a new goal for customerID with a generated id.
// Invalid fields fail with planning.ErrInvalid.
func (s *Service) CreateGoal(ctx context.Context, customerID string, g planning.Goal) (planning.Goal, error) {
	if err := s.requireStore(); err != nil {
		return planning.Goal{}, err
	}
	g.ID = uuid.NewString()
	g.CustomerID = strings.TrimSpace(customerID)
	g, err := planning.NewGoal(g, s.now())
	if err != nil {
		return planning.Goal{}, err
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return planning.Goal{}, err
	}
	s.logger.Info(ctx, "goal created",
		logger.String("customerID", g.CustomerID),
		logger.String("goalID", g.ID),
	)
	return g, nil
}

// Goals lists the customer's goals, newest first.
func (s *Service) Goals(ctx context.Context, customerID string) ([]planning.Goal, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.Goals(ctx, customerID)
}

// Goal returns one goal. Another customer's goal is reported as not found.
func (s *Service) Goal(ctx context.Context, customerID, goalID string) (planning.Goal, error) {
	if err := s.requireStore(); err != nil {
		return planning.Goal{}, err
	}
	return s.store.Goal(ctx, customerID, goalID)
}

// UpdateGoal applies a partial update.
func (s *Service) UpdateGoal(ctx context.Context, customerID, goalID string, p planning.GoalPatch) (planning.Goal, error) {
	g, err := s.Goal(ctx, customerID, goalID)
	if err != nil {
		return planning.Goal{}, err
	}
	if g, err = g.Apply(p, s.now()); err != nil {
		return planning.Goal{}, err
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		return planning.Goal{}, err
	}
	return g, nil
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, customerID, goalID string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	return s.store.DeleteGoal(ctx, customerID, goalID)
}

// CreateActionItem stores a new open action item for customerID.
func (s *Service) CreateActionItem(ctx context.Context, customerID string, a planning.ActionItem) (planning.ActionItem, error) {
	if err := s.requireStore(); err != nil {
		return planning.ActionItem{}, err
	}
	a.ID = uuid.NewString()
	a.CustomerID = strings.TrimSpace(customerID)
	a, err := planning.NewActionItem(a, s.now())
	if err != nil {
		return planning.ActionItem{}, err
	}
	if err := s.store.SaveActionItem(ctx, a); err != nil {
		return planning.ActionItem{}, err
	}
	return a, nil
}

// ActionItems lists the customer's action items, optionally by status.
func (s *Service) ActionItems(ctx context.Context, customerID, status string) ([]planning.ActionItem, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !planning.ValidItemStatus(status) {
		return nil, fmt.Errorf("%w: status %q", planning.ErrInvalid, status)
	}
	return s.store.ActionItems(ctx, customerID, status)
}

// UpdateActionItem applies a partial update. Completing an item stamps its
// completion date.
func (s *Service) UpdateActionItem(ctx context.Context, customerID, itemID string, p planning.ActionItemPatch) (planning.ActionItem, error) {
	if err := s.requireStore(); err != nil {
		return planning.ActionItem{}, err
	}
	a, err := s.store.ActionItem(ctx, customerID, itemID)
	if err != nil {
		return planning.ActionItem{}, err
	}
	if a, err = a.Apply(p, s.now()); err != nil {
		return planning.ActionItem{}, err
	}
	if err := s.store.SaveActionItem(ctx, a); err != nil {
		return planning.ActionItem{}, err
	}
	return a, nil
}
