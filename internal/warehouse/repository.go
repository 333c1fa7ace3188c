package warehouse

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
)

// ListFilters narrows warehouse listings.
type ListFilters struct {
	StoragePointID *int64
	AreaID         *int64
	Search         string
	Page           int
	Limit          int
}

// Repository persists the location hierarchy in PostgreSQL.
type Repository interface {
	ListStoragePoints(ctx context.Context, filters ListFilters) ([]StoragePoint, int, error)
	GetStoragePoint(ctx context.Context, id int64) (StoragePoint, error)
	CreateStoragePoint(ctx context.Context, sp StoragePoint) (StoragePoint, error)
	GetArea(ctx context.Context, id int64) (Area, error)
	FindAreaByKind(ctx context.Context, storagePointID int64, kind AreaKind) (Area, error)
	CreateArea(ctx context.Context, area Area) (Area, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	ListLocations(ctx context.Context, filters ListFilters) ([]Location, int, error)
	CreateLocation(ctx context.Context, loc Location) (Location, error)
	AncestorLocations(ctx context.Context, id int64) ([]Location, error)
	SubtreeLocations(ctx context.Context, rootID int64) ([]Location, error)
	SubtreeItems(ctx context.Context, rootID int64, variantID *int64) ([]catalog.ProductItem, error)
	FindInvestigationLocation(ctx context.Context, storagePointID int64) (Location, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const locationColumns = `id, parent_id, area_id, reference, barcode, kind, total_items, created_at, updated_at`

func scanLocation(row pgx.Row) (Location, error) {
	var loc Location
	err := row.Scan(&loc.ID, &loc.ParentID, &loc.AreaID, &loc.Reference, &loc.Barcode, &loc.Kind, &loc.TotalItems, &loc.CreatedAt, &loc.UpdatedAt)
	return loc, err
}

func (r *repository) ListStoragePoints(ctx context.Context, filters ListFilters) ([]StoragePoint, int, error) {
	query := `SELECT id, code, name, created_at, updated_at FROM storage_points WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM storage_points WHERE 1=1`
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

	query += ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var points []StoragePoint
	for rows.Next() {
		var sp StoragePoint
		if err := rows.Scan(&sp.ID, &sp.Code, &sp.Name, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, 0, err
		}
		points = append(points, sp)
	}
	return points, total, rows.Err()
}

func (r *repository) GetStoragePoint(ctx context.Context, id int64) (StoragePoint, error) {
	var sp StoragePoint
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, created_at, updated_at FROM storage_points WHERE id = $1`, id).
		Scan(&sp.ID, &sp.Code, &sp.Name, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoragePoint{}, ErrStoragePointNotFound
	}
	return sp, err
}

func (r *repository) CreateStoragePoint(ctx context.Context, sp StoragePoint) (StoragePoint, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO storage_points (code, name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		sp.Code, sp.Name, now).Scan(&sp.ID)
	if err != nil {
		return StoragePoint{}, err
	}
	sp.CreatedAt = now
	sp.UpdatedAt = now
	return sp, nil
}

func (r *repository) GetArea(ctx context.Context, id int64) (Area, error) {
	var area Area
	err := r.pool.QueryRow(ctx,
		`SELECT id, storage_point_id, name, kind, created_at, updated_at FROM areas WHERE id = $1`, id).
		Scan(&area.ID, &area.StoragePointID, &area.Name, &area.Kind, &area.CreatedAt, &area.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Area{}, ErrAreaNotFound
	}
	return area, err
}

func (r *repository) FindAreaByKind(ctx context.Context, storagePointID int64, kind AreaKind) (Area, error) {
	var area Area
	err := r.pool.QueryRow(ctx,
		`SELECT id, storage_point_id, name, kind, created_at, updated_at FROM areas WHERE storage_point_id = $1 AND kind = $2 LIMIT 1`,
		storagePointID, string(kind)).
		Scan(&area.ID, &area.StoragePointID, &area.Name, &area.Kind, &area.CreatedAt, &area.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Area{}, ErrAreaNotFound
	}
	return area, err
}

func (r *repository) CreateArea(ctx context.Context, area Area) (Area, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO areas (storage_point_id, name, kind, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		area.StoragePointID, area.Name, string(area.Kind), now).Scan(&area.ID)
	if err != nil {
		return Area{}, err
	}
	area.CreatedAt = now
	area.UpdatedAt = now
	return area, nil
}

func (r *repository) GetLocation(ctx context.Context, id int64) (Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrLocationNotFound
	}
	return loc, err
}

func (r *repository) ListLocations(ctx context.Context, filters ListFilters) ([]Location, int, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM locations WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.AreaID != nil {
		argCount++
		clause := ` AND area_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.AreaID)
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND (reference ILIKE $` + strconv.Itoa(argCount) + ` OR barcode ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY reference ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, 0, err
		}
		locations = append(locations, loc)
	}
	return locations, total, rows.Err()
}

func (r *repository) CreateLocation(ctx context.Context, loc Location) (Location, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO locations (parent_id, area_id, reference, barcode, kind, total_items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $6) RETURNING id`,
		loc.ParentID, loc.AreaID, loc.Reference, loc.Barcode, string(loc.Kind), now).Scan(&loc.ID)
	if err != nil {
		return Location{}, err
	}
	loc.TotalItems = 0
	loc.CreatedAt = now
	loc.UpdatedAt = now
	return loc, nil
}

// AncestorLocations walks parent links from the location up to its root,
// ordered leaf side first. The location itself is not included.
func (r *repository) AncestorLocations(ctx context.Context, id int64) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT l.*, 0 AS depth FROM locations l WHERE l.id = $1
			UNION ALL
			SELECT p.*, chain.depth + 1 FROM locations p
			JOIN chain ON chain.parent_id = p.id
		)
		SELECT `+locationColumns+` FROM chain WHERE depth > 0 ORDER BY depth ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// SubtreeLocations returns the location and its descendants, depth first.
func (r *repository) SubtreeLocations(ctx context.Context, rootID int64) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT l.*, 0 AS depth FROM locations l WHERE l.id = $1
			UNION ALL
			SELECT c.*, subtree.depth + 1 FROM locations c
			JOIN subtree ON c.parent_id = subtree.id
		)
		SELECT `+locationColumns+` FROM subtree ORDER BY depth ASC, id ASC`, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	if len(locations) == 0 {
		return nil, ErrLocationNotFound
	}
	return locations, rows.Err()
}

// SubtreeItems eager-loads the units physically residing in the subtree,
// optionally narrowed to one variant.
func (r *repository) SubtreeItems(ctx context.Context, rootID int64, variantID *int64) ([]catalog.ProductItem, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT l.id, l.parent_id FROM locations l WHERE l.id = $1
			UNION ALL
			SELECT c.id, c.parent_id FROM locations c
			JOIN subtree ON c.parent_id = subtree.id
		)
		SELECT i.id, i.barcode, i.variant_id, i.location_id, i.state, i.status, i.created_at, i.updated_at
		FROM product_items i
		JOIN subtree ON i.location_id = subtree.id`
	args := []any{rootID}
	if variantID != nil {
		query += ` WHERE i.variant_id = $2`
		args = append(args, *variantID)
	}
	query += ` ORDER BY i.barcode ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.ProductItem
	for rows.Next() {
		var item catalog.ProductItem
		if err := rows.Scan(&item.ID, &item.Barcode, &item.VariantID, &item.LocationID, &item.State, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindInvestigationLocation finds the storage point's single investigation
// location through its dead stock area.
func (r *repository) FindInvestigationLocation(ctx context.Context, storagePointID int64) (Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx, `
		SELECT `+joinedLocationColumns("l")+`
		FROM locations l
		JOIN areas a ON l.area_id = a.id
		WHERE a.storage_point_id = $1 AND l.kind = $2
		LIMIT 1`, storagePointID, string(LocationKindInvestigation)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrLocationNotFound
	}
	return loc, err
}

func joinedLocationColumns(alias string) string {
	return alias + `.id, ` + alias + `.parent_id, ` + alias + `.area_id, ` + alias + `.reference, ` +
		alias + `.barcode, ` + alias + `.kind, ` + alias + `.total_items, ` + alias + `.created_at, ` + alias + `.updated_at`
}
