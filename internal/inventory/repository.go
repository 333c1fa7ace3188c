package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
	"github.com/atlas-wms/atlas-wms/internal/investigation"
	"github.com/atlas-wms/atlas-wms/internal/platform/db"
	"github.com/atlas-wms/atlas-wms/internal/stock"
)

// ListFilters narrows session listings.
type ListFilters struct {
	LocationID *int64
	Status     *Status
	Search     string
	Page       int
	Limit      int
}

// Repository persists counting sessions in PostgreSQL.
type Repository interface {
	Create(ctx context.Context, inv Inventory) (Inventory, error)
	Get(ctx context.Context, id int64) (Inventory, error)
	List(ctx context.Context, filters ListFilters) ([]Inventory, int, error)
	Update(ctx context.Context, inv Inventory) error
	UpsertState(ctx context.Context, state State) (State, error)
	ListStates(ctx context.Context, inventoryID int64) ([]State, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the row-locked operations reconciliation runs inside
// one transaction.
type TxRepository interface {
	GetInventoryForUpdate(ctx context.Context, id int64) (Inventory, error)
	UpdateInventory(ctx context.Context, inv Inventory) error
	ListStates(ctx context.Context, inventoryID int64) ([]State, error)
	GetItemForUpdate(ctx context.Context, barcode string) (catalog.ProductItem, error)
	UpdateItem(ctx context.Context, item catalog.ProductItem) error
	AdjustLocationTotal(ctx context.Context, locationID int64, delta int) error
	InsertMovement(ctx context.Context, m stock.Movement) error
	InsertInvestigation(ctx context.Context, c investigation.Investigation) (investigation.Investigation, error)
	GetVariantForUpdate(ctx context.Context, variantID int64) (catalog.ProductVariant, error)
	UpdateVariantQuantity(ctx context.Context, variantID int64, q catalog.Quantity) error
	GetProductQuantityForUpdate(ctx context.Context, productID int64) (catalog.Quantity, error)
	UpdateProductQuantity(ctx context.Context, productID int64, q catalog.Quantity) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const inventoryColumns = `id, reference, title, location_id, status, created_by,
	confirmed_by, confirmed_at, validated_by, validated_at, canceled_by, canceled_at,
	created_at, updated_at`

func scanInventory(row pgx.Row) (Inventory, error) {
	var inv Inventory
	err := row.Scan(&inv.ID, &inv.Reference, &inv.Title, &inv.LocationID, &inv.Status, &inv.CreatedBy,
		&inv.ConfirmedBy, &inv.ConfirmedAt, &inv.ValidatedBy, &inv.ValidatedAt, &inv.CanceledBy, &inv.CanceledAt,
		&inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) Create(ctx context.Context, inv Inventory) (Inventory, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO inventories (reference, title, location_id, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		inv.Reference, inv.Title, inv.LocationID, string(inv.Status), inv.CreatedBy, now).Scan(&inv.ID)
	if err != nil {
		return Inventory{}, err
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Inventory, error) {
	inv, err := scanInventory(r.pool.QueryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Inventory{}, ErrInventoryNotFound
	}
	return inv, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Inventory, int, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventories WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM inventories WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.LocationID != nil {
		argCount++
		clause := ` AND location_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.LocationID)
	}
	if filters.Status != nil {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filters.Status))
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND (reference ILIKE $` + strconv.Itoa(argCount) + ` OR title ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
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

	var sessions []Inventory
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, inv)
	}
	return sessions, total, rows.Err()
}

const updateInventorySQL = `UPDATE inventories SET
	title = $2, status = $3,
	confirmed_by = $4, confirmed_at = $5,
	validated_by = $6, validated_at = $7,
	canceled_by = $8, canceled_at = $9,
	updated_at = $10
 WHERE id = $1`

func (r *repository) Update(ctx context.Context, inv Inventory) error {
	tag, err := r.pool.Exec(ctx, updateInventorySQL,
		inv.ID, inv.Title, string(inv.Status),
		inv.ConfirmedBy, inv.ConfirmedAt, inv.ValidatedBy, inv.ValidatedAt,
		inv.CanceledBy, inv.CanceledAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInventoryNotFound
	}
	return nil
}

func (r *repository) UpsertState(ctx context.Context, state State) (State, error) {
	return upsertState(ctx, r.pool, state)
}

func (r *repository) ListStates(ctx context.Context, inventoryID int64) ([]State, error) {
	return listStates(ctx, r.pool, inventoryID)
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// rowQuerier is the subset of pool/tx used by the shared state helpers.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func upsertState(ctx context.Context, q rowQuerier, state State) (State, error) {
	inStock, err := json.Marshal(state.InStock)
	if err != nil {
		return State{}, err
	}
	counted, err := json.Marshal(state.Counted)
	if err != nil {
		return State{}, err
	}
	items, err := json.Marshal(state.Items)
	if err != nil {
		return State{}, err
	}
	now := time.Now().UTC()
	err = q.QueryRow(ctx,
		`INSERT INTO inventory_states (inventory_id, variant_id, in_stock, counted, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (inventory_id, variant_id) DO UPDATE SET
			in_stock = EXCLUDED.in_stock,
			counted = EXCLUDED.counted,
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		state.InventoryID, state.VariantID, inStock, counted, items, now).
		Scan(&state.ID, &state.CreatedAt)
	if err != nil {
		return State{}, err
	}
	state.UpdatedAt = now
	return state, nil
}

func listStates(ctx context.Context, q rowQuerier, inventoryID int64) ([]State, error) {
	rows, err := q.Query(ctx,
		`SELECT id, inventory_id, variant_id, in_stock, counted, items, created_at, updated_at
		 FROM inventory_states WHERE inventory_id = $1 ORDER BY variant_id ASC`, inventoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []State
	for rows.Next() {
		var state State
		var inStock, counted, items []byte
		if err := rows.Scan(&state.ID, &state.InventoryID, &state.VariantID,
			&inStock, &counted, &items, &state.CreatedAt, &state.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(inStock, &state.InStock); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(counted, &state.Counted); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &state.Items); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetInventoryForUpdate(ctx context.Context, id int64) (Inventory, error) {
	inv, err := scanInventory(r.tx.QueryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventories WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Inventory{}, ErrInventoryNotFound
	}
	return inv, err
}

func (r *txRepo) UpdateInventory(ctx context.Context, inv Inventory) error {
	tag, err := r.tx.Exec(ctx, updateInventorySQL,
		inv.ID, inv.Title, string(inv.Status),
		inv.ConfirmedBy, inv.ConfirmedAt, inv.ValidatedBy, inv.ValidatedAt,
		inv.CanceledBy, inv.CanceledAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInventoryNotFound
	}
	return nil
}

func (r *txRepo) ListStates(ctx context.Context, inventoryID int64) ([]State, error) {
	return listStates(ctx, r.tx, inventoryID)
}

func (r *txRepo) GetItemForUpdate(ctx context.Context, barcode string) (catalog.ProductItem, error) {
	var item catalog.ProductItem
	err := r.tx.QueryRow(ctx,
		`SELECT id, barcode, variant_id, location_id, state, status, created_at, updated_at
		 FROM product_items WHERE barcode = $1 FOR UPDATE`, barcode).
		Scan(&item.ID, &item.Barcode, &item.VariantID, &item.LocationID, &item.State, &item.Status,
			&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ProductItem{}, catalog.ErrItemNotFound
	}
	return item, err
}

func (r *txRepo) UpdateItem(ctx context.Context, item catalog.ProductItem) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE product_items SET location_id = $2, state = $3, status = $4, updated_at = $5 WHERE id = $1`,
		item.ID, item.LocationID, string(item.State), string(item.Status), time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrItemNotFound
	}
	return nil
}

func (r *txRepo) AdjustLocationTotal(ctx context.Context, locationID int64, delta int) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE locations SET total_items = total_items + $2 WHERE id = $1`, locationID, delta)
	return err
}

func (r *txRepo) InsertMovement(ctx context.Context, m stock.Movement) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO stock_movements
			(kind, trigger_kind, origin, item_id, source_location_id, source_tag,
			 target_location_id, target_tag, inventory_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(m.Kind), string(m.Trigger), string(m.Origin), m.ItemID,
		m.Source.LocationID, m.Source.Tag, m.Target.LocationID, m.Target.Tag,
		m.InventoryID, time.Now().UTC())
	return err
}

func (r *txRepo) InsertInvestigation(ctx context.Context, c investigation.Investigation) (investigation.Investigation, error) {
	now := time.Now().UTC()
	err := r.tx.QueryRow(ctx,
		`INSERT INTO investigations (reference, status, inventory_id, item_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		c.Reference, string(c.Status), c.InventoryID, c.ItemID, now).Scan(&c.ID)
	if err != nil {
		return investigation.Investigation{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

const variantQuantityColumns = `qty_available, qty_reserved, qty_in_transit, qty_delivery_processing,
	qty_awaiting_sav, qty_delivered, qty_got_out, qty_pending_investigation,
	qty_lost, qty_is_dead, qty_pending_reception, qty_discovered`

func quantityScanFields(q *catalog.Quantity) []any {
	return []any{
		&q.Available, &q.Reserved, &q.InTransit, &q.DeliveryProcessing,
		&q.AwaitingSAV, &q.Delivered, &q.GotOut, &q.PendingInvestigation,
		&q.Lost, &q.Dead, &q.PendingReception, &q.Discovered,
	}
}

func quantityExecArgs(q catalog.Quantity) []any {
	return []any{
		q.Available, q.Reserved, q.InTransit, q.DeliveryProcessing,
		q.AwaitingSAV, q.Delivered, q.GotOut, q.PendingInvestigation,
		q.Lost, q.Dead, q.PendingReception, q.Discovered,
	}
}

const quantitySetClause = `qty_available = $2, qty_reserved = $3, qty_in_transit = $4,
	qty_delivery_processing = $5, qty_awaiting_sav = $6, qty_delivered = $7,
	qty_got_out = $8, qty_pending_investigation = $9, qty_lost = $10,
	qty_is_dead = $11, qty_pending_reception = $12, qty_discovered = $13,
	updated_at = NOW()`

func (r *txRepo) GetVariantForUpdate(ctx context.Context, variantID int64) (catalog.ProductVariant, error) {
	var v catalog.ProductVariant
	fields := append([]any{&v.ID, &v.ProductID, &v.SKU, &v.Name}, quantityScanFields(&v.Quantity)...)
	err := r.tx.QueryRow(ctx,
		`SELECT id, product_id, sku, name, `+variantQuantityColumns+` FROM product_variants WHERE id = $1 FOR UPDATE`,
		variantID).Scan(fields...)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ProductVariant{}, catalog.ErrVariantNotFound
	}
	return v, err
}

func (r *txRepo) UpdateVariantQuantity(ctx context.Context, variantID int64, q catalog.Quantity) error {
	args := append([]any{variantID}, quantityExecArgs(q)...)
	_, err := r.tx.Exec(ctx, `UPDATE product_variants SET `+quantitySetClause+` WHERE id = $1`, args...)
	return err
}

func (r *txRepo) GetProductQuantityForUpdate(ctx context.Context, productID int64) (catalog.Quantity, error) {
	var q catalog.Quantity
	err := r.tx.QueryRow(ctx,
		`SELECT `+variantQuantityColumns+` FROM products WHERE id = $1 FOR UPDATE`, productID).
		Scan(quantityScanFields(&q)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Quantity{}, catalog.ErrProductNotFound
	}
	return q, err
}

func (r *txRepo) UpdateProductQuantity(ctx context.Context, productID int64, q catalog.Quantity) error {
	args := append([]any{productID}, quantityExecArgs(q)...)
	_, err := r.tx.Exec(ctx, `UPDATE products SET `+quantitySetClause+` WHERE id = $1`, args...)
	return err
}
