package stock

import (
	"context"
	"errors"
	"strconv"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Service exposes read access to the ledger plus manual appends for
// operator-driven relocations.
type Service struct {
	repo Repository
}

// NewService constructs Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one movement. Reconciliation writes its rows inside its own
// transaction; this path serves operator tooling and integrations.
func (s *Service) Record(ctx context.Context, movement Movement) (Movement, error) {
	if movement.ItemID <= 0 {
		return Movement{}, shared.ValidationError("stock.record", "movement", "item id required")
	}
	if movement.Source.LocationID == nil && movement.Source.Tag == "" {
		return Movement{}, shared.ValidationError("stock.record", "movement", "source location or tag required")
	}
	if movement.Target.LocationID == nil && movement.Target.Tag == "" {
		return Movement{}, shared.ValidationError("stock.record", "movement", "target location or tag required")
	}
	if movement.Kind == "" {
		movement.Kind = MovementInternal
	}
	if movement.Trigger == "" {
		movement.Trigger = TriggerOperator
	}
	return s.repo.Insert(ctx, movement)
}

// Get returns one ledger row.
func (s *Service) Get(ctx context.Context, id int64) (Movement, error) {
	m, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrMovementNotFound) {
		return Movement{}, shared.NotFoundError("stock.get", "movement", strconv.FormatInt(id, 10))
	}
	return m, err
}

// List returns filtered ledger rows, newest first.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Movement, int, error) {
	return s.repo.List(ctx, filters)
}
