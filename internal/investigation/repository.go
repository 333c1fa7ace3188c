package investigation

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListFilters narrows case listings.
type ListFilters struct {
	InventoryID *int64
	ItemID      *int64
	Status      *Status
	Page        int
	Limit       int
}

// Repository reads case rows. Inserts happen inside the reconciliation
// transaction, not through this interface.
type Repository interface {
	Get(ctx context.Context, id int64) (Investigation, error)
	List(ctx context.Context, filters ListFilters) ([]Investigation, int, error)
	ListByInventory(ctx context.Context, inventoryID int64) ([]Investigation, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const caseColumns = `id, reference, status, inventory_id, item_id, created_at, updated_at`

func scanCase(row pgx.Row) (Investigation, error) {
	var c Investigation
	err := row.Scan(&c.ID, &c.Reference, &c.Status, &c.InventoryID, &c.ItemID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id int64) (Investigation, error) {
	c, err := scanCase(r.pool.QueryRow(ctx,
		`SELECT `+caseColumns+` FROM investigations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Investigation{}, ErrInvestigationNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Investigation, int, error) {
	query := `SELECT ` + caseColumns + ` FROM investigations WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM investigations WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.InventoryID != nil {
		argCount++
		clause := ` AND inventory_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.InventoryID)
	}
	if filters.ItemID != nil {
		argCount++
		clause := ` AND item_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.ItemID)
	}
	if filters.Status != nil {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filters.Status))
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

	var cases []Investigation
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		cases = append(cases, c)
	}
	return cases, total, rows.Err()
}

func (r *repository) ListByInventory(ctx context.Context, inventoryID int64) ([]Investigation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+caseColumns+` FROM investigations WHERE inventory_id = $1 ORDER BY id ASC`, inventoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []Investigation
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
