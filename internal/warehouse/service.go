package warehouse

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Service coordinates hierarchy reads, masterdata writes and the
// investigation-location bootstrap used by reconciliation.
type Service struct {
	repo     Repository
	cache    *TreeCache
	refcodes *shared.RefCodeGenerator
}

// NewService builds Service. The cache may be nil.
func NewService(repo Repository, cache *TreeCache, refcodes *shared.RefCodeGenerator) *Service {
	return &Service{repo: repo, cache: cache, refcodes: refcodes}
}

// Ancestors returns the ordered path from the location's parent to the root.
func (s *Service) Ancestors(ctx context.Context, locationID int64) ([]Location, error) {
	if _, err := s.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}
	return s.repo.AncestorLocations(ctx, locationID)
}

// DescendantsResult carries a subtree and, when requested, its resident units.
type DescendantsResult struct {
	Locations []Location            `json:"locations"`
	Items     []catalog.ProductItem `json:"items,omitempty"`
}

// Descendants returns the full subtree under the location, optionally
// eager-loading resident units. Subtree shapes are cached; unit lists are
// always read live.
func (s *Service) Descendants(ctx context.Context, locationID int64, withItems bool) (DescendantsResult, error) {
	var locations []Location
	err := s.cache.FetchSubtree(ctx, locationID, &locations, func(ctx context.Context) ([]Location, error) {
		return s.repo.SubtreeLocations(ctx, locationID)
	})
	if errors.Is(err, ErrLocationNotFound) {
		return DescendantsResult{}, shared.NotFoundError("warehouse.descendants", "location", strconv.FormatInt(locationID, 10))
	}
	if err != nil {
		return DescendantsResult{}, err
	}
	result := DescendantsResult{Locations: locations}
	if withItems {
		items, err := s.repo.SubtreeItems(ctx, locationID, nil)
		if err != nil {
			return DescendantsResult{}, err
		}
		result.Items = items
	}
	return result, nil
}

// ExpectedItems lists the units of one variant physically residing in the
// location's subtree. This is the expected set of a counting session.
func (s *Service) ExpectedItems(ctx context.Context, rootID, variantID int64) ([]catalog.ProductItem, error) {
	return s.repo.SubtreeItems(ctx, rootID, &variantID)
}

// ResolveStoragePoint walks ancestors to the first node carrying an area
// link and resolves that area's storage point.
func (s *Service) ResolveStoragePoint(ctx context.Context, locationID int64) (StoragePoint, error) {
	loc, err := s.GetLocation(ctx, locationID)
	if err != nil {
		return StoragePoint{}, err
	}
	areaID := loc.AreaID
	if areaID == nil {
		ancestors, err := s.repo.AncestorLocations(ctx, locationID)
		if err != nil {
			return StoragePoint{}, err
		}
		for _, ancestor := range ancestors {
			if ancestor.AreaID != nil {
				areaID = ancestor.AreaID
				break
			}
		}
	}
	if areaID == nil {
		return StoragePoint{}, ErrOrphanLocation
	}
	area, err := s.repo.GetArea(ctx, *areaID)
	if err != nil {
		return StoragePoint{}, err
	}
	return s.repo.GetStoragePoint(ctx, area.StoragePointID)
}

// AuthorizeLocation enforces the home-warehouse rule: an operator may act on
// a location only when their home storage point matches the resolved one,
// unless the capability is elevated.
func (s *Service) AuthorizeLocation(ctx context.Context, actor shared.Actor, locationID int64, op string) error {
	if actor.Elevated {
		return nil
	}
	sp, err := s.ResolveStoragePoint(ctx, locationID)
	if err != nil {
		return err
	}
	if !actor.CanActOn(sp.ID) {
		return shared.UnauthorizedError(op, "location", strconv.FormatInt(locationID, 10))
	}
	return nil
}

// EnsureInvestigationLocation returns the storage point's single
// investigation location, lazily creating it (and the dead stock area it
// lives under) on first use. Safe to call repeatedly.
func (s *Service) EnsureInvestigationLocation(ctx context.Context, storagePointID int64) (Location, error) {
	loc, err := s.repo.FindInvestigationLocation(ctx, storagePointID)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, ErrLocationNotFound) {
		return Location{}, err
	}

	area, err := s.repo.FindAreaByKind(ctx, storagePointID, AreaKindDeadStock)
	if errors.Is(err, ErrAreaNotFound) {
		area, err = s.repo.CreateArea(ctx, Area{
			StoragePointID: storagePointID,
			Name:           "Dead stock",
			Kind:           AreaKindDeadStock,
		})
	}
	if err != nil {
		return Location{}, err
	}

	areaID := area.ID
	created, err := s.repo.CreateLocation(ctx, Location{
		AreaID:    &areaID,
		Reference: s.refcodes.Generate("INVG"),
		Barcode:   s.refcodes.GenerateBarcode(),
		Kind:      LocationKindInvestigation,
	})
	if err != nil {
		// A concurrent caller may have created it first.
		if existing, findErr := s.repo.FindInvestigationLocation(ctx, storagePointID); findErr == nil {
			return existing, nil
		}
		return Location{}, err
	}
	s.cache.Invalidate(ctx)
	return created, nil
}

func (s *Service) ListStoragePoints(ctx context.Context, filters ListFilters) ([]StoragePoint, int, error) {
	return s.repo.ListStoragePoints(ctx, filters)
}

func (s *Service) GetStoragePoint(ctx context.Context, id int64) (StoragePoint, error) {
	sp, err := s.repo.GetStoragePoint(ctx, id)
	if errors.Is(err, ErrStoragePointNotFound) {
		return StoragePoint{}, shared.NotFoundError("warehouse.get_storage_point", "storage_point", strconv.FormatInt(id, 10))
	}
	return sp, err
}

func (s *Service) CreateStoragePoint(ctx context.Context, sp StoragePoint) (StoragePoint, error) {
	if strings.TrimSpace(sp.Code) == "" || strings.TrimSpace(sp.Name) == "" {
		return StoragePoint{}, shared.ValidationError("warehouse.create_storage_point", "storage_point", "code and name required")
	}
	return s.repo.CreateStoragePoint(ctx, sp)
}

func (s *Service) GetArea(ctx context.Context, id int64) (Area, error) {
	area, err := s.repo.GetArea(ctx, id)
	if errors.Is(err, ErrAreaNotFound) {
		return Area{}, shared.NotFoundError("warehouse.get_area", "area", strconv.FormatInt(id, 10))
	}
	return area, err
}

func (s *Service) CreateArea(ctx context.Context, area Area) (Area, error) {
	if area.StoragePointID <= 0 || strings.TrimSpace(area.Name) == "" {
		return Area{}, shared.ValidationError("warehouse.create_area", "area", "storage point id and name required")
	}
	if area.Kind == "" {
		area.Kind = AreaKindOrdinary
	}
	return s.repo.CreateArea(ctx, area)
}

func (s *Service) GetLocation(ctx context.Context, id int64) (Location, error) {
	loc, err := s.repo.GetLocation(ctx, id)
	if errors.Is(err, ErrLocationNotFound) {
		return Location{}, shared.NotFoundError("warehouse.get_location", "location", strconv.FormatInt(id, 10))
	}
	return loc, err
}

func (s *Service) ListLocations(ctx context.Context, filters ListFilters) ([]Location, int, error) {
	return s.repo.ListLocations(ctx, filters)
}

func (s *Service) CreateLocation(ctx context.Context, loc Location) (Location, error) {
	if loc.ParentID == nil && loc.AreaID == nil {
		return Location{}, shared.ValidationError("warehouse.create_location", "location", "location needs a parent or an area")
	}
	if loc.ParentID != nil {
		if _, err := s.GetLocation(ctx, *loc.ParentID); err != nil {
			return Location{}, err
		}
	}
	if loc.Kind == "" {
		loc.Kind = LocationKindOrdinary
	}
	if strings.TrimSpace(loc.Reference) == "" {
		loc.Reference = s.refcodes.Generate("LOC")
	}
	if strings.TrimSpace(loc.Barcode) == "" {
		loc.Barcode = s.refcodes.GenerateBarcode()
	}
	created, err := s.repo.CreateLocation(ctx, loc)
	if err != nil {
		return Location{}, err
	}
	s.cache.Invalidate(ctx)
	return created, nil
}
