package stock

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMovementNotFound signals a missing ledger row.
var ErrMovementNotFound = errors.New("stock movement not found")

// ListFilters narrows movement listings.
type ListFilters struct {
	Kind        *MovementKind
	Origin      *Origin
	ItemID      *int64
	InventoryID *int64
	LocationID  *int64
	Page        int
	Limit       int
}

// Repository persists the movement ledger in PostgreSQL. Rows are append
// only: there is no update or delete path.
type Repository interface {
	Insert(ctx context.Context, movement Movement) (Movement, error)
	Get(ctx context.Context, id int64) (Movement, error)
	List(ctx context.Context, filters ListFilters) ([]Movement, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const movementColumns = `id, kind, trigger_kind, origin, item_id,
	source_location_id, source_tag, target_location_id, target_tag,
	inventory_id, created_at`

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(&m.ID, &m.Kind, &m.Trigger, &m.Origin, &m.ItemID,
		&m.Source.LocationID, &m.Source.Tag, &m.Target.LocationID, &m.Target.Tag,
		&m.InventoryID, &m.CreatedAt)
	return m, err
}

func (r *repository) Insert(ctx context.Context, movement Movement) (Movement, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO stock_movements
			(kind, trigger_kind, origin, item_id, source_location_id, source_tag,
			 target_location_id, target_tag, inventory_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		string(movement.Kind), string(movement.Trigger), string(movement.Origin),
		movement.ItemID, movement.Source.LocationID, movement.Source.Tag,
		movement.Target.LocationID, movement.Target.Tag, movement.InventoryID, now).
		Scan(&movement.ID)
	if err != nil {
		return Movement{}, err
	}
	movement.CreatedAt = now
	return movement, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Movement, error) {
	m, err := scanMovement(r.pool.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, ErrMovementNotFound
	}
	return m, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Movement, int, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM stock_movements WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Kind != nil {
		argCount++
		clause := ` AND kind = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filters.Kind))
	}
	if filters.Origin != nil {
		argCount++
		clause := ` AND origin = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filters.Origin))
	}
	if filters.ItemID != nil {
		argCount++
		clause := ` AND item_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.ItemID)
	}
	if filters.InventoryID != nil {
		argCount++
		clause := ` AND inventory_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.InventoryID)
	}
	if filters.LocationID != nil {
		argCount++
		clause := ` AND (source_location_id = $` + strconv.Itoa(argCount) +
			` OR target_location_id = $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, *filters.LocationID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY created_at DESC, id DESC"
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

	var movements []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}
