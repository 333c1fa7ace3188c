package investigation

import (
	"context"
	"errors"
	"strconv"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Service exposes read access to cases opened by reconciliation.
type Service struct {
	repo Repository
}

// NewService constructs Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one case.
func (s *Service) Get(ctx context.Context, id int64) (Investigation, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrInvestigationNotFound) {
		return Investigation{}, shared.NotFoundError("investigation.get", "investigation", strconv.FormatInt(id, 10))
	}
	return c, err
}

// List returns filtered cases, newest first.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Investigation, int, error) {
	return s.repo.List(ctx, filters)
}
