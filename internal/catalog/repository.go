package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListFilters narrows catalog listings.
type ListFilters struct {
	ProductID  *int64
	VariantID  *int64
	LocationID *int64
	State      *ItemState
	Search     string
	Page       int
	Limit      int
}

// Repository persists catalog data in PostgreSQL.
type Repository interface {
	ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	ListVariants(ctx context.Context, filters ListFilters) ([]ProductVariant, int, error)
	GetVariant(ctx context.Context, id int64) (ProductVariant, error)
	CreateVariant(ctx context.Context, variant ProductVariant) (ProductVariant, error)
	GetItemByBarcode(ctx context.Context, barcode string) (ProductItem, error)
	ListItems(ctx context.Context, filters ListFilters) ([]ProductItem, int, error)
	CreateItem(ctx context.Context, item ProductItem) (ProductItem, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quantityColumns = `qty_available, qty_reserved, qty_in_transit, qty_delivery_processing,
	qty_awaiting_sav, qty_delivered, qty_got_out, qty_pending_investigation,
	qty_lost, qty_is_dead, qty_pending_reception, qty_discovered`

func quantityFields(q *Quantity) []any {
	return []any{
		&q.Available, &q.Reserved, &q.InTransit, &q.DeliveryProcessing,
		&q.AwaitingSAV, &q.Delivered, &q.GotOut, &q.PendingInvestigation,
		&q.Lost, &q.Dead, &q.PendingReception, &q.Discovered,
	}
}

func (r *repository) ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	query := `SELECT id, code, name, ` + quantityColumns + `, created_at, updated_at FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY name ASC"
	query = appendPagination(query, &args, &argCount, filters)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		fields := append([]any{&p.ID, &p.Code, &p.Name}, quantityFields(&p.Quantity)...)
		fields = append(fields, &p.CreatedAt, &p.UpdatedAt)
		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	fields := append([]any{&p.ID, &p.Code, &p.Name}, quantityFields(&p.Quantity)...)
	fields = append(fields, &p.CreatedAt, &p.UpdatedAt)
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, `+quantityColumns+`, created_at, updated_at FROM products WHERE id = $1`, id).Scan(fields...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *repository) CreateProduct(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (code, name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		product.Code, product.Name, now).Scan(&product.ID)
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) ListVariants(ctx context.Context, filters ListFilters) ([]ProductVariant, int, error) {
	query := `SELECT id, product_id, sku, name, ` + quantityColumns + `, created_at, updated_at FROM product_variants WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM product_variants WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.ProductID != nil {
		argCount++
		clause := ` AND product_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.ProductID)
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY sku ASC"
	query = appendPagination(query, &args, &argCount, filters)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var variants []ProductVariant
	for rows.Next() {
		var v ProductVariant
		fields := append([]any{&v.ID, &v.ProductID, &v.SKU, &v.Name}, quantityFields(&v.Quantity)...)
		fields = append(fields, &v.CreatedAt, &v.UpdatedAt)
		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}
		variants = append(variants, v)
	}
	return variants, total, rows.Err()
}

func (r *repository) GetVariant(ctx context.Context, id int64) (ProductVariant, error) {
	var v ProductVariant
	fields := append([]any{&v.ID, &v.ProductID, &v.SKU, &v.Name}, quantityFields(&v.Quantity)...)
	fields = append(fields, &v.CreatedAt, &v.UpdatedAt)
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, sku, name, `+quantityColumns+`, created_at, updated_at FROM product_variants WHERE id = $1`, id).Scan(fields...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductVariant{}, ErrVariantNotFound
	}
	return v, err
}

func (r *repository) CreateVariant(ctx context.Context, variant ProductVariant) (ProductVariant, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO product_variants (product_id, sku, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		variant.ProductID, variant.SKU, variant.Name, now).Scan(&variant.ID)
	if err != nil {
		return ProductVariant{}, err
	}
	variant.CreatedAt = now
	variant.UpdatedAt = now
	return variant, nil
}

func (r *repository) GetItemByBarcode(ctx context.Context, barcode string) (ProductItem, error) {
	var item ProductItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, barcode, variant_id, location_id, state, status, created_at, updated_at FROM product_items WHERE barcode = $1`,
		barcode).Scan(&item.ID, &item.Barcode, &item.VariantID, &item.LocationID, &item.State, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductItem{}, ErrItemNotFound
	}
	return item, err
}

func (r *repository) ListItems(ctx context.Context, filters ListFilters) ([]ProductItem, int, error) {
	query := `SELECT id, barcode, variant_id, location_id, state, status, created_at, updated_at FROM product_items WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM product_items WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.VariantID != nil {
		argCount++
		clause := ` AND variant_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.VariantID)
	}
	if filters.LocationID != nil {
		argCount++
		clause := ` AND location_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.LocationID)
	}
	if filters.State != nil {
		argCount++
		clause := ` AND state = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filters.State))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY barcode ASC"
	query = appendPagination(query, &args, &argCount, filters)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []ProductItem
	for rows.Next() {
		var item ProductItem
		if err := rows.Scan(&item.ID, &item.Barcode, &item.VariantID, &item.LocationID, &item.State, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *repository) CreateItem(ctx context.Context, item ProductItem) (ProductItem, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO product_items (barcode, variant_id, location_id, state, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		item.Barcode, item.VariantID, item.LocationID, string(item.State), string(item.Status), now).Scan(&item.ID)
	if err != nil {
		return ProductItem{}, err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func appendPagination(query string, args *[]any, argCount *int, filters ListFilters) string {
	if filters.Limit <= 0 {
		return query
	}
	*argCount++
	query += ` LIMIT $` + strconv.Itoa(*argCount)
	*args = append(*args, filters.Limit)

	*argCount++
	query += ` OFFSET $` + strconv.Itoa(*argCount)
	offset := (filters.Page - 1) * filters.Limit
	if offset < 0 {
		offset = 0
	}
	*args = append(*args, offset)
	return query
}
