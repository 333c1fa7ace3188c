package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// Service coordinates catalog reads and masterdata writes.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, filters)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ValidationError("catalog.get_product", "product", "invalid product id")
	}
	product, err := s.repo.GetProduct(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		return Product{}, shared.NotFoundError("catalog.get_product", "product", strconv.FormatInt(id, 10))
	}
	return product, err
}

func (s *Service) CreateProduct(ctx context.Context, product Product) (Product, error) {
	if strings.TrimSpace(product.Code) == "" || strings.TrimSpace(product.Name) == "" {
		return Product{}, shared.ValidationError("catalog.create_product", "product", "code and name required")
	}
	return s.repo.CreateProduct(ctx, product)
}

func (s *Service) ListVariants(ctx context.Context, filters ListFilters) ([]ProductVariant, int, error) {
	return s.repo.ListVariants(ctx, filters)
}

func (s *Service) GetVariant(ctx context.Context, id int64) (ProductVariant, error) {
	if id <= 0 {
		return ProductVariant{}, shared.ValidationError("catalog.get_variant", "variant", "invalid variant id")
	}
	variant, err := s.repo.GetVariant(ctx, id)
	if errors.Is(err, ErrVariantNotFound) {
		return ProductVariant{}, shared.NotFoundError("catalog.get_variant", "variant", strconv.FormatInt(id, 10))
	}
	return variant, err
}

func (s *Service) CreateVariant(ctx context.Context, variant ProductVariant) (ProductVariant, error) {
	if variant.ProductID <= 0 || strings.TrimSpace(variant.SKU) == "" {
		return ProductVariant{}, shared.ValidationError("catalog.create_variant", "variant", "product id and sku required")
	}
	return s.repo.CreateVariant(ctx, variant)
}

func (s *Service) GetItemByBarcode(ctx context.Context, barcode string) (ProductItem, error) {
	if strings.TrimSpace(barcode) == "" {
		return ProductItem{}, shared.ValidationError("catalog.get_item", "item", "barcode required")
	}
	item, err := s.repo.GetItemByBarcode(ctx, barcode)
	if errors.Is(err, ErrItemNotFound) {
		return ProductItem{}, shared.NotFoundError("catalog.get_item", "item", barcode)
	}
	return item, err
}

func (s *Service) ListItems(ctx context.Context, filters ListFilters) ([]ProductItem, int, error) {
	return s.repo.ListItems(ctx, filters)
}

func (s *Service) CreateItem(ctx context.Context, item ProductItem) (ProductItem, error) {
	if item.VariantID <= 0 || strings.TrimSpace(item.Barcode) == "" {
		return ProductItem{}, shared.ValidationError("catalog.create_item", "item", "variant id and barcode required")
	}
	if item.State == "" {
		item.State = StatePendingReception
	}
	if !item.State.IsValid() {
		return ProductItem{}, shared.ValidationError("catalog.create_item", "item", "unknown item state")
	}
	if item.Status == "" {
		item.Status = StatusInStock
	}
	return s.repo.CreateItem(ctx, item)
}
