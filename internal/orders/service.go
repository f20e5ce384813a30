package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/metrics"
)

// FilterAll lists orders regardless of status.
const FilterAll = "all"

// Service tracks order history and status changes.
type Service interface {
	List(ctx context.Context, sessionID, status string) ([]Detail, error)
	Get(ctx context.Context, sessionID, orderID string) (Detail, error)
	Cancel(ctx context.Context, sessionID, orderID string) (Detail, error)
	Transition(ctx context.Context, sessionID, orderID string, next enums.OrderStatus) (Detail, error)
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo    *Repository
	Logger  *logger.Logger
	Metrics *metrics.MarketplaceMetrics
}

type service struct {
	repo    *Repository
	logg    *logger.Logger
	metrics *metrics.MarketplaceMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger, metrics: params.Metrics}, nil
}

// List returns the session's orders newest first, optionally narrowed to one status.
func (s *service) List(ctx context.Context, sessionID, status string) ([]Detail, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	var filter enums.OrderStatus
	if status != "" && status != FilterAll {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter = parsed
	}

	history, err := s.repo.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]Detail, 0, len(history))
	for _, o := range history {
		if filter != "" && o.Status != filter {
			continue
		}
		out = append(out, Describe(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *service) Get(ctx context.Context, sessionID, orderID string) (Detail, error) {
	if err := requireSession(sessionID); err != nil {
		return Detail{}, err
	}
	order, err := s.repo.Get(ctx, sessionID, orderID)
	if err != nil {
		return Detail{}, err
	}
	return Describe(order), nil
}

// Cancel moves a processing order to cancelled.
func (s *service) Cancel(ctx context.Context, sessionID, orderID string) (Detail, error) {
	return s.Transition(ctx, sessionID, orderID, enums.OrderStatusCancelled)
}

// Transition applies a status change allowed by the transition table.
// Re-applying the current status is a no-op.
func (s *service) Transition(ctx context.Context, sessionID, orderID string, next enums.OrderStatus) (Detail, error) {
	if err := requireSession(sessionID); err != nil {
		return Detail{}, err
	}
	if !next.IsValid() {
		return Detail{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var previous enums.OrderStatus
	updated, err := s.repo.Update(ctx, sessionID, orderID, func(o *Order) error {
		previous = o.Status
		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return pkgerrors.Wrap(
				pkgerrors.CodeStateConflict,
				fmt.Errorf("%w: %s -> %s", enums.ErrInvalidTransition, o.Status, next),
				fmt.Sprintf("order cannot move from %s to %s", o.Status, next),
			).WithDetails(map[string]any{
				"status":  o.Status,
				"allowed": o.Status.AllowedTransitions(),
			})
		}
		o.Status = next
		return nil
	})
	if err != nil {
		return Detail{}, err
	}

	if previous != next {
		s.metrics.StatusChanged(string(next))
		logCtx := s.logg.WithOrderID(ctx, orderID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{"from": previous, "to": next})
		s.logg.Info(logCtx, "order status changed")
	}
	return Describe(updated), nil
}

func requireSession(sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
