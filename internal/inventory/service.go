package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
	"github.com/atlas-wms/atlas-wms/internal/investigation"
	"github.com/atlas-wms/atlas-wms/internal/shared"
	"github.com/atlas-wms/atlas-wms/internal/stock"
	"github.com/atlas-wms/atlas-wms/internal/storefront"
	"github.com/atlas-wms/atlas-wms/internal/warehouse"
)

// CatalogPort abstracts barcode resolution.
type CatalogPort interface {
	GetItemByBarcode(ctx context.Context, barcode string) (catalog.ProductItem, error)
}

// WarehousePort abstracts the hierarchy reads and the investigation-location
// bootstrap the session lifecycle depends on.
type WarehousePort interface {
	GetLocation(ctx context.Context, id int64) (warehouse.Location, error)
	ExpectedItems(ctx context.Context, rootID, variantID int64) ([]catalog.ProductItem, error)
	AuthorizeLocation(ctx context.Context, actor shared.Actor, locationID int64, op string) error
	ResolveStoragePoint(ctx context.Context, locationID int64) (warehouse.StoragePoint, error)
	EnsureInvestigationLocation(ctx context.Context, storagePointID int64) (warehouse.Location, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MovementsPort reads the movement ledger for session hydration.
type MovementsPort interface {
	List(ctx context.Context, filters stock.ListFilters) ([]stock.Movement, int, error)
}

// CasesPort reads investigation cases for session hydration.
type CasesPort interface {
	ListByInventory(ctx context.Context, inventoryID int64) ([]investigation.Investigation, error)
}

// MailerPort enqueues operator notifications for opened cases.
type MailerPort interface {
	InvestigationOpened(ctx context.Context, caseReference, inventoryReference string) error
}

// MetricsPort records reconciliation outcomes.
type MetricsPort interface {
	RecordReconciliation(outcome string)
	RecordReconciledUnits(classification string, n int)
	RecordInvestigationOpened()
	RecordTransition(status string)
}

// ServiceDeps groups the collaborators of Service.
type ServiceDeps struct {
	Repo        Repository
	Catalog     CatalogPort
	Warehouses  WarehousePort
	Movements   MovementsPort
	Cases       CasesPort
	Idempotency *shared.IdempotencyStore
	Audit       AuditPort
	RefCodes    *shared.RefCodeGenerator
	Notifier    storefront.Notifier
	Mailer      MailerPort
	Metrics     MetricsPort
	Logger      *slog.Logger
}

// Service orchestrates the counting-session lifecycle and runs
// reconciliation at validate time.
type Service struct {
	repo        Repository
	catalog     CatalogPort
	warehouses  WarehousePort
	movements   MovementsPort
	cases       CasesPort
	idempotency *shared.IdempotencyStore
	audit       AuditPort
	refcodes    *shared.RefCodeGenerator
	notifier    storefront.Notifier
	mailer      MailerPort
	metrics     MetricsPort
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(deps ServiceDeps) *Service {
	if deps.Notifier == nil {
		deps.Notifier = storefront.NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		repo:        deps.Repo,
		catalog:     deps.Catalog,
		warehouses:  deps.Warehouses,
		movements:   deps.Movements,
		cases:       deps.Cases,
		idempotency: deps.Idempotency,
		audit:       deps.Audit,
		refcodes:    deps.RefCodes,
		notifier:    deps.Notifier,
		mailer:      deps.Mailer,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Create opens a SAVED session scoped to the location and its subtree.
// Investigation locations can never be counted: they hold units whose
// physical location is already unknown.
func (s *Service) Create(ctx context.Context, actor shared.Actor, locationID int64, title string) (Inventory, error) {
	if title == "" {
		return Inventory{}, shared.ValidationError("inventory.create", "inventory", "title required")
	}
	loc, err := s.warehouses.GetLocation(ctx, locationID)
	if err != nil {
		return Inventory{}, err
	}
	if loc.Kind == warehouse.LocationKindInvestigation {
		return Inventory{}, shared.InvalidStateError("inventory.create", "location", strconv.FormatInt(locationID, 10),
			"an investigation location cannot be counted")
	}
	if err := s.warehouses.AuthorizeLocation(ctx, actor, locationID, "inventory.create"); err != nil {
		return Inventory{}, err
	}

	inv, err := s.repo.Create(ctx, Inventory{
		Reference:  s.refcodes.Generate("INV"),
		Title:      title,
		LocationID: locationID,
		Status:     StatusSaved,
		CreatedBy:  actor.ID,
	})
	if err != nil {
		return Inventory{}, err
	}
	s.recordAudit(ctx, actor.ID, "inventory:create", inv.ID, map[string]any{"location_id": locationID})
	return inv, nil
}

// Edit updates session metadata while the session is still SAVED.
func (s *Service) Edit(ctx context.Context, actor shared.Actor, id int64, patch EditPatch) (Inventory, error) {
	inv, err := s.getAuthorized(ctx, actor, id, "inventory.edit")
	if err != nil {
		return Inventory{}, err
	}
	if !inv.Status.CanEdit() {
		return Inventory{}, shared.InvalidStateError("inventory.edit", "inventory", strconv.FormatInt(id, 10),
			fmt.Sprintf("cannot edit in status %s", inv.Status))
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return Inventory{}, shared.ValidationError("inventory.edit", "inventory", "title required")
		}
		inv.Title = *patch.Title
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

// Confirm turns a submitted physical count into per-variant snapshots and
// moves the session to PENDING. Re-confirming replaces the prior snapshot
// per variant, so the operation is idempotent by replace.
func (s *Service) Confirm(ctx context.Context, actor shared.Actor, id int64, inputs []CountInput) (Inventory, error) {
	inv, err := s.getAuthorized(ctx, actor, id, "inventory.confirm")
	if err != nil {
		return Inventory{}, err
	}
	if !inv.Status.CanConfirm() {
		return Inventory{}, shared.InvalidStateError("inventory.confirm", "inventory", strconv.FormatInt(id, 10),
			fmt.Sprintf("cannot confirm in status %s", inv.Status))
	}
	if len(inputs) == 0 {
		return Inventory{}, shared.ValidationError("inventory.confirm", "inventory", "at least one variant count required")
	}

	// Resolve and validate everything before the first write.
	states := make([]State, 0, len(inputs))
	for _, input := range inputs {
		if input.VariantID <= 0 {
			return Inventory{}, shared.ValidationError("inventory.confirm", "count", "variant id required")
		}
		scanned := make([]catalog.ProductItem, 0, len(input.Barcodes))
		for _, barcode := range input.Barcodes {
			item, err := s.catalog.GetItemByBarcode(ctx, barcode)
			if errors.Is(err, catalog.ErrItemNotFound) {
				return Inventory{}, shared.NotFoundError("inventory.confirm", "barcode", barcode)
			}
			if err != nil {
				return Inventory{}, err
			}
			if item.VariantID != input.VariantID {
				return Inventory{}, shared.ValidationError("inventory.confirm", "barcode",
					fmt.Sprintf("barcode %s does not belong to variant %d", barcode, input.VariantID))
			}
			scanned = append(scanned, item)
		}

		expected, err := s.warehouses.ExpectedItems(ctx, inv.LocationID, input.VariantID)
		if err != nil {
			return Inventory{}, err
		}
		state, err := BuildState(inv.ID, input.VariantID, scanned, expected)
		if err != nil {
			return Inventory{}, shared.ValidationError("inventory.confirm", "count", err.Error())
		}
		states = append(states, state)
	}

	for _, state := range states {
		if _, err := s.repo.UpsertState(ctx, state); err != nil {
			return Inventory{}, shared.ConflictError("inventory.confirm", "inventory", strconv.FormatInt(id, 10), err)
		}
	}

	from := inv.Status
	now := time.Now().UTC()
	inv.Status = StatusPending
	inv.ConfirmedBy = &actor.ID
	inv.ConfirmedAt = &now
	if err := s.repo.Update(ctx, inv); err != nil {
		return Inventory{}, shared.ConflictError("inventory.confirm", "inventory", strconv.FormatInt(id, 10), err)
	}
	s.recordTransition(ctx, actor.ID, inv.ID, from, inv.Status)
	return inv, nil
}

// Validate runs reconciliation and moves the session to VALIDATED. The whole
// correction is one transaction: a relocation is never persisted without its
// paired ledger row and quantity adjustment. Concurrent validates are
// serialized by a row lock plus a status re-check under the lock.
func (s *Service) Validate(ctx context.Context, actor shared.Actor, id int64) (Inventory, error) {
	inv, err := s.getAuthorized(ctx, actor, id, "inventory.validate")
	if err != nil {
		return Inventory{}, err
	}
	if !inv.Status.CanValidate() {
		return Inventory{}, shared.InvalidStateError("inventory.validate", "inventory", strconv.FormatInt(id, 10),
			fmt.Sprintf("cannot validate in status %s", inv.Status))
	}

	sp, err := s.warehouses.ResolveStoragePoint(ctx, inv.LocationID)
	if err != nil {
		return Inventory{}, err
	}
	// Ensured before the transaction; the location is idempotent and harmless
	// if validation fails afterwards.
	investigationLoc, err := s.warehouses.EnsureInvestigationLocation(ctx, sp.ID)
	if err != nil {
		return Inventory{}, err
	}

	idemKey := fmt.Sprintf("validate:%d", id)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "inventory"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Inventory{}, shared.InvalidStateError("inventory.validate", "inventory", strconv.FormatInt(id, 10),
					"validation already running or completed")
			}
			return Inventory{}, err
		}
		insertedKey = true
	}

	var validated Inventory
	var touchedVariants []int64
	var openedCases []string
	var adopted, missing int
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.GetInventoryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !locked.Status.CanValidate() {
			return shared.InvalidStateError("inventory.validate", "inventory", strconv.FormatInt(id, 10),
				fmt.Sprintf("cannot validate in status %s", locked.Status))
		}
		states, err := tx.ListStates(ctx, id)
		if err != nil {
			return err
		}

		plan := BuildPlan(states, locked.LocationID, investigationLoc.ID)
		openedCases, err = s.applyPlan(ctx, tx, locked, plan)
		if err != nil {
			return err
		}
		touchedVariants = plan.VariantIDs
		for _, move := range plan.Moves {
			if move.OpenInvestigation {
				missing++
			} else {
				adopted++
			}
		}

		now := time.Now().UTC()
		locked.Status = StatusValidated
		locked.ValidatedBy = &actor.ID
		locked.ValidatedAt = &now
		if err := tx.UpdateInventory(ctx, locked); err != nil {
			return err
		}
		validated = locked
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		if s.metrics != nil {
			s.metrics.RecordReconciliation("error")
		}
		var de *shared.DomainError
		if errors.As(err, &de) {
			return Inventory{}, err
		}
		return Inventory{}, shared.ConflictError("inventory.validate", "inventory", strconv.FormatInt(id, 10), err)
	}

	if s.metrics != nil {
		s.metrics.RecordReconciliation("ok")
		s.metrics.RecordReconciledUnits(string(ClassNotFound), missing)
		s.metrics.RecordReconciledUnits(string(ClassInSurplus), adopted)
		for range openedCases {
			s.metrics.RecordInvestigationOpened()
		}
	}

	// Fire and forget: storefront sync failure never rolls back reconciliation.
	if err := s.notifier.VariantsChanged(ctx, id, touchedVariants); err != nil {
		s.logger.Error("storefront sync enqueue", slog.Int64("inventory_id", id), slog.Any("error", err))
	}
	if s.mailer != nil {
		for _, caseRef := range openedCases {
			if err := s.mailer.InvestigationOpened(ctx, caseRef, validated.Reference); err != nil {
				s.logger.Error("investigation mail enqueue", slog.String("case", caseRef), slog.Any("error", err))
			}
		}
	}
	s.recordTransition(ctx, actor.ID, id, StatusPending, StatusValidated)
	return validated, nil
}

// applyPlan executes every corrective move inside the validate transaction
// and returns the references of the cases it opened.
func (s *Service) applyPlan(ctx context.Context, tx TxRepository, inv Inventory, plan Plan) ([]string, error) {
	variantTransitions := make(map[int64][]transition, len(plan.VariantIDs))
	var openedCases []string

	for _, move := range plan.Moves {
		item, err := tx.GetItemForUpdate(ctx, move.Barcode)
		if err != nil {
			return nil, err
		}

		source := stock.TagEndpoint("unassigned")
		if item.LocationID != nil {
			source = stock.LocationEndpoint(*item.LocationID)
			if err := tx.AdjustLocationTotal(ctx, *item.LocationID, -1); err != nil {
				return nil, err
			}
		}
		if err := tx.AdjustLocationTotal(ctx, move.TargetLocationID, 1); err != nil {
			return nil, err
		}

		fromState := item.State
		target := move.TargetLocationID
		item.LocationID = &target
		item.State = move.NewState
		item.Status = move.NewStatus
		if err := tx.UpdateItem(ctx, item); err != nil {
			return nil, err
		}

		inventoryID := inv.ID
		if err := tx.InsertMovement(ctx, stock.Movement{
			Kind:        move.MovementKind,
			Trigger:     stock.TriggerSystem,
			Origin:      stock.OriginInventory,
			ItemID:      item.ID,
			Source:      source,
			Target:      stock.LocationEndpoint(target),
			InventoryID: &inventoryID,
		}); err != nil {
			return nil, err
		}

		if move.OpenInvestigation {
			opened, err := tx.InsertInvestigation(ctx, investigation.Investigation{
				Reference:   s.refcodes.Generate("CASE"),
				Status:      investigation.StatusPending,
				InventoryID: inv.ID,
				ItemID:      item.ID,
			})
			if err != nil {
				return nil, err
			}
			openedCases = append(openedCases, opened.Reference)
		}

		variantTransitions[move.VariantID] = append(variantTransitions[move.VariantID],
			transition{from: fromState, to: move.NewState})
	}

	// Quantity ledgers last: one read-modify-write per touched variant and
	// product, in deterministic order.
	for _, variantID := range plan.VariantIDs {
		shifts := variantTransitions[variantID]
		variant, err := tx.GetVariantForUpdate(ctx, variantID)
		if err != nil {
			return nil, err
		}
		newVariantQty, err := applyTransitions(variant.Quantity, shifts)
		if err != nil {
			return nil, err
		}
		if err := tx.UpdateVariantQuantity(ctx, variantID, newVariantQty); err != nil {
			return nil, err
		}

		productQty, err := tx.GetProductQuantityForUpdate(ctx, variant.ProductID)
		if err != nil {
			return nil, err
		}
		newProductQty, err := applyTransitions(productQty, shifts)
		if err != nil {
			return nil, err
		}
		if err := tx.UpdateProductQuantity(ctx, variant.ProductID, newProductQty); err != nil {
			return nil, err
		}
	}
	return openedCases, nil
}

// Cancel abandons a session before validation.
func (s *Service) Cancel(ctx context.Context, actor shared.Actor, id int64) (Inventory, error) {
	inv, err := s.getAuthorized(ctx, actor, id, "inventory.cancel")
	if err != nil {
		return Inventory{}, err
	}
	if !inv.Status.CanCancel() {
		return Inventory{}, shared.InvalidStateError("inventory.cancel", "inventory", strconv.FormatInt(id, 10),
			fmt.Sprintf("cannot cancel in status %s", inv.Status))
	}
	from := inv.Status
	now := time.Now().UTC()
	inv.Status = StatusCanceled
	inv.CanceledBy = &actor.ID
	inv.CanceledAt = &now
	if err := s.repo.Update(ctx, inv); err != nil {
		return Inventory{}, err
	}
	s.recordTransition(ctx, actor.ID, inv.ID, from, inv.Status)
	return inv, nil
}

// Detail is the hydrated read model of one session.
type Detail struct {
	Inventory      Inventory                     `json:"inventory"`
	States         []State                       `json:"states"`
	Movements      []stock.Movement              `json:"movements,omitempty"`
	Investigations []investigation.Investigation `json:"investigations,omitempty"`
}

// Get hydrates a session with its snapshots, ledger rows and cases.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	inv, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrInventoryNotFound) {
		return Detail{}, shared.NotFoundError("inventory.get", "inventory", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Inventory: inv}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		states, err := s.repo.ListStates(gctx, id)
		if err != nil {
			return err
		}
		detail.States = states
		return nil
	})
	if s.movements != nil {
		g.Go(func() error {
			movements, _, err := s.movements.List(gctx, stock.ListFilters{InventoryID: &id})
			if err != nil {
				return err
			}
			detail.Movements = movements
			return nil
		})
	}
	if s.cases != nil {
		g.Go(func() error {
			cases, err := s.cases.ListByInventory(gctx, id)
			if err != nil {
				return err
			}
			detail.Investigations = cases
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// List returns filtered sessions, newest first.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Inventory, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) getAuthorized(ctx context.Context, actor shared.Actor, id int64, op string) (Inventory, error) {
	inv, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrInventoryNotFound) {
		return Inventory{}, shared.NotFoundError(op, "inventory", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return Inventory{}, err
	}
	if err := s.warehouses.AuthorizeLocation(ctx, actor, inv.LocationID, op); err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, inventoryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventory",
		EntityID: strconv.FormatInt(inventoryID, 10),
		Meta:     meta,
	})
}

func (s *Service) recordTransition(ctx context.Context, actorID, inventoryID int64, from, to Status) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(to))
	}
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "transition:" + string(to),
		Entity:   "inventory",
		EntityID: strconv.FormatInt(inventoryID, 10),
		Meta:     map[string]any{"from": string(from), "to": string(to)},
	})
}
