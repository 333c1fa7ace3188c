package inventory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
	"github.com/atlas-wms/atlas-wms/internal/investigation"
	"github.com/atlas-wms/atlas-wms/internal/shared"
	"github.com/atlas-wms/atlas-wms/internal/stock"
	"github.com/atlas-wms/atlas-wms/internal/warehouse"
)

type memoryStore struct {
	inventories map[int64]Inventory
	states      map[int64]map[int64]State
	items       map[string]catalog.ProductItem
	variants    map[int64]catalog.ProductVariant
	products    map[int64]catalog.Quantity
	totals      map[int64]int
	movements   []stock.Movement
	cases       []investigation.Investigation
	nextID      int64

	// lockInventory intercepts row-locked reads when set.
	lockInventory func(inv Inventory) Inventory
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		inventories: map[int64]Inventory{},
		states:      map[int64]map[int64]State{},
		items:       map[string]catalog.ProductItem{},
		variants:    map[int64]catalog.ProductVariant{},
		products:    map[int64]catalog.Quantity{},
		totals:      map[int64]int{},
		nextID:      1000,
	}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) Create(ctx context.Context, inv Inventory) (Inventory, error) {
	inv.ID = s.id()
	inv.CreatedAt = time.Now()
	s.inventories[inv.ID] = inv
	return inv, nil
}

func (s *memoryStore) Get(ctx context.Context, id int64) (Inventory, error) {
	inv, ok := s.inventories[id]
	if !ok {
		return Inventory{}, ErrInventoryNotFound
	}
	return inv, nil
}

func (s *memoryStore) List(ctx context.Context, filters ListFilters) ([]Inventory, int, error) {
	var out []Inventory
	for _, inv := range s.inventories {
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (s *memoryStore) Update(ctx context.Context, inv Inventory) error {
	if _, ok := s.inventories[inv.ID]; !ok {
		return ErrInventoryNotFound
	}
	s.inventories[inv.ID] = inv
	return nil
}

func (s *memoryStore) UpsertState(ctx context.Context, state State) (State, error) {
	byVariant, ok := s.states[state.InventoryID]
	if !ok {
		byVariant = map[int64]State{}
		s.states[state.InventoryID] = byVariant
	}
	if existing, ok := byVariant[state.VariantID]; ok {
		state.ID = existing.ID
	} else {
		state.ID = s.id()
	}
	byVariant[state.VariantID] = state
	return state, nil
}

func (s *memoryStore) ListStates(ctx context.Context, inventoryID int64) ([]State, error) {
	var out []State
	for _, state := range s.states[inventoryID] {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) GetItemByBarcode(ctx context.Context, barcode string) (catalog.ProductItem, error) {
	item, ok := s.items[barcode]
	if !ok {
		return catalog.ProductItem{}, catalog.ErrItemNotFound
	}
	return item, nil
}

func (s *memoryStore) movementsFor(inventoryID int64) []stock.Movement {
	var out []stock.Movement
	for _, m := range s.movements {
		if m.InventoryID != nil && *m.InventoryID == inventoryID {
			out = append(out, m)
		}
	}
	return out
}

// CasesPort
func (s *memoryStore) ListByInventory(ctx context.Context, inventoryID int64) ([]investigation.Investigation, error) {
	var out []investigation.Investigation
	for _, c := range s.cases {
		if c.InventoryID == inventoryID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memoryMovements struct{ store *memoryStore }

func (m *memoryMovements) List(ctx context.Context, filters stock.ListFilters) ([]stock.Movement, int, error) {
	if filters.InventoryID == nil {
		return append([]stock.Movement(nil), m.store.movements...), len(m.store.movements), nil
	}
	out := m.store.movementsFor(*filters.InventoryID)
	return out, len(out), nil
}

type memoryTx struct {
	store *memoryStore
}

func (tx *memoryTx) GetInventoryForUpdate(ctx context.Context, id int64) (Inventory, error) {
	inv, err := tx.store.Get(ctx, id)
	if err != nil {
		return Inventory{}, err
	}
	if tx.store.lockInventory != nil {
		inv = tx.store.lockInventory(inv)
	}
	return inv, nil
}

func (tx *memoryTx) UpdateInventory(ctx context.Context, inv Inventory) error {
	return tx.store.Update(ctx, inv)
}

func (tx *memoryTx) ListStates(ctx context.Context, inventoryID int64) ([]State, error) {
	return tx.store.ListStates(ctx, inventoryID)
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, barcode string) (catalog.ProductItem, error) {
	return tx.store.GetItemByBarcode(ctx, barcode)
}

func (tx *memoryTx) UpdateItem(ctx context.Context, item catalog.ProductItem) error {
	for barcode, existing := range tx.store.items {
		if existing.ID == item.ID {
			tx.store.items[barcode] = item
			return nil
		}
	}
	return catalog.ErrItemNotFound
}

func (tx *memoryTx) AdjustLocationTotal(ctx context.Context, locationID int64, delta int) error {
	tx.store.totals[locationID] += delta
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m stock.Movement) error {
	m.ID = tx.store.id()
	tx.store.movements = append(tx.store.movements, m)
	return nil
}

func (tx *memoryTx) InsertInvestigation(ctx context.Context, c investigation.Investigation) (investigation.Investigation, error) {
	c.ID = tx.store.id()
	tx.store.cases = append(tx.store.cases, c)
	return c, nil
}

func (tx *memoryTx) GetVariantForUpdate(ctx context.Context, variantID int64) (catalog.ProductVariant, error) {
	v, ok := tx.store.variants[variantID]
	if !ok {
		return catalog.ProductVariant{}, catalog.ErrVariantNotFound
	}
	return v, nil
}

func (tx *memoryTx) UpdateVariantQuantity(ctx context.Context, variantID int64, q catalog.Quantity) error {
	v := tx.store.variants[variantID]
	v.Quantity = q
	tx.store.variants[variantID] = v
	return nil
}

func (tx *memoryTx) GetProductQuantityForUpdate(ctx context.Context, productID int64) (catalog.Quantity, error) {
	q, ok := tx.store.products[productID]
	if !ok {
		return catalog.Quantity{}, catalog.ErrProductNotFound
	}
	return q, nil
}

func (tx *memoryTx) UpdateProductQuantity(ctx context.Context, productID int64, q catalog.Quantity) error {
	tx.store.products[productID] = q
	return nil
}

// fakeWarehouse serves a fixed two-warehouse hierarchy.
type fakeWarehouse struct {
	store            *memoryStore
	locations        map[int64]warehouse.Location
	subtrees         map[int64][]int64
	storagePoint     warehouse.StoragePoint
	investigationLoc warehouse.Location
}

func (f *fakeWarehouse) GetLocation(ctx context.Context, id int64) (warehouse.Location, error) {
	loc, ok := f.locations[id]
	if !ok {
		return warehouse.Location{}, shared.NotFoundError("warehouse.get_location", "location", "missing")
	}
	return loc, nil
}

func (f *fakeWarehouse) ExpectedItems(ctx context.Context, rootID, variantID int64) ([]catalog.ProductItem, error) {
	inScope := map[int64]bool{}
	for _, id := range f.subtrees[rootID] {
		inScope[id] = true
	}
	var out []catalog.ProductItem
	var barcodes []string
	for barcode := range f.store.items {
		barcodes = append(barcodes, barcode)
	}
	sort.Strings(barcodes)
	for _, barcode := range barcodes {
		item := f.store.items[barcode]
		if item.VariantID != variantID || item.LocationID == nil || !inScope[*item.LocationID] {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeWarehouse) AuthorizeLocation(ctx context.Context, actor shared.Actor, locationID int64, op string) error {
	if actor.CanActOn(f.storagePoint.ID) {
		return nil
	}
	return shared.UnauthorizedError(op, "location", "foreign")
}

func (f *fakeWarehouse) ResolveStoragePoint(ctx context.Context, locationID int64) (warehouse.StoragePoint, error) {
	return f.storagePoint, nil
}

func (f *fakeWarehouse) EnsureInvestigationLocation(ctx context.Context, storagePointID int64) (warehouse.Location, error) {
	return f.investigationLoc, nil
}

type recorderNotifier struct {
	variantIDs []int64
	calls      int
}

func (n *recorderNotifier) VariantsChanged(ctx context.Context, inventoryID int64, variantIDs []int64) error {
	n.calls++
	n.variantIDs = append(n.variantIDs, variantIDs...)
	return nil
}

type recorderMailer struct {
	cases []string
}

func (m *recorderMailer) InvestigationOpened(ctx context.Context, caseReference, inventoryReference string) error {
	m.cases = append(m.cases, caseReference)
	return nil
}

type fixture struct {
	svc      *Service
	store    *memoryStore
	notifier *recorderNotifier
	mailer   *recorderMailer
	actor    shared.Actor
}

// Layout: storage point 1 owns session location 100 (child 101) and the
// investigation location 900; location 200 sits outside the session subtree.
// Variant 10 of product 1 has units A and B at 100 and C at 200.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()

	loc100 := int64(100)
	loc200 := int64(200)
	store.items["A"] = catalog.ProductItem{ID: 1, Barcode: "A", VariantID: 10, LocationID: &loc100, State: catalog.StateAvailable, Status: catalog.StatusInStock}
	store.items["B"] = catalog.ProductItem{ID: 2, Barcode: "B", VariantID: 10, LocationID: &loc100, State: catalog.StateAvailable, Status: catalog.StatusInStock}
	store.items["C"] = catalog.ProductItem{ID: 3, Barcode: "C", VariantID: 10, LocationID: &loc200, State: catalog.StateAvailable, Status: catalog.StatusInStock}
	store.variants[10] = catalog.ProductVariant{ID: 10, ProductID: 1, SKU: "SKU-10", Quantity: catalog.Quantity{Available: 3}}
	store.products[1] = catalog.Quantity{Available: 3}
	store.totals[100] = 2
	store.totals[200] = 1
	store.totals[900] = 0

	fw := &fakeWarehouse{
		store: store,
		locations: map[int64]warehouse.Location{
			100: {ID: 100, Reference: "F-01", Kind: warehouse.LocationKindOrdinary},
			200: {ID: 200, Reference: "F-02", Kind: warehouse.LocationKindOrdinary},
			900: {ID: 900, Reference: "INVG-1", Kind: warehouse.LocationKindInvestigation},
		},
		subtrees:         map[int64][]int64{100: {100, 101}, 200: {200}},
		storagePoint:     warehouse.StoragePoint{ID: 1, Code: "WH1"},
		investigationLoc: warehouse.Location{ID: 900, Kind: warehouse.LocationKindInvestigation},
	}

	notifier := &recorderNotifier{}
	mailer := &recorderMailer{}
	svc := NewService(ServiceDeps{
		Repo:       store,
		Catalog:    store,
		Warehouses: fw,
		Movements:  &memoryMovements{store: store},
		Cases:      store,
		RefCodes:   shared.NewRefCodeGenerator(),
		Notifier:   notifier,
		Mailer:     mailer,
	})
	return &fixture{
		svc:      svc,
		store:    store,
		notifier: notifier,
		mailer:   mailer,
		actor:    shared.Actor{ID: 7, HomeStoragePointID: 1},
	}
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Weekly count")
	require.NoError(t, err)
	require.Equal(t, StatusSaved, inv.Status)
	require.NotEmpty(t, inv.Reference)

	title := "Weekly count, aisle F"
	inv, err = f.svc.Edit(ctx, f.actor, inv.ID, EditPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, inv.Title)

	inv, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A", "B"}}})
	require.NoError(t, err)
	require.Equal(t, StatusPending, inv.Status)
	require.NotNil(t, inv.ConfirmedBy)

	_, err = f.svc.Edit(ctx, f.actor, inv.ID, EditPatch{Title: &title})
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))

	inv, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, inv.Status)
	require.NotNil(t, inv.ValidatedBy)

	_, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))

	_, err = f.svc.Cancel(ctx, f.actor, inv.ID)
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))
}

func TestCancelBeforeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)

	inv, err = f.svc.Cancel(ctx, f.actor, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, inv.Status)

	_, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A"}}})
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))

	pending, err := f.svc.Create(ctx, f.actor, 100, "Count 2")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.actor, pending.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A", "B"}}})
	require.NoError(t, err)
	canceled, err := f.svc.Cancel(ctx, f.actor, pending.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, canceled.Status)
}

func TestCreateRejectsInvestigationLocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.actor, 900, "Count")
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))
}

func TestCreateAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	foreign := shared.Actor{ID: 8, HomeStoragePointID: 2}
	_, err := f.svc.Create(ctx, foreign, 100, "Count")
	require.Equal(t, shared.KindUnauthorized, shared.KindOf(err))

	elevated := shared.Actor{ID: 9, HomeStoragePointID: 2, Elevated: true}
	_, err = f.svc.Create(ctx, elevated, 100, "Count")
	require.NoError(t, err)
}

func TestConfirmIsIdempotentByReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)

	input := []CountInput{{VariantID: 10, Barcodes: []string{"A"}}}
	_, err = f.svc.Confirm(ctx, f.actor, inv.ID, input)
	require.NoError(t, err)
	first, err := f.store.ListStates(ctx, inv.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.actor, inv.ID, input)
	require.NoError(t, err)
	second, err := f.store.ListStates(ctx, inv.ID)
	require.NoError(t, err)

	require.Len(t, second, 1)
	require.Equal(t, first[0].InStock, second[0].InStock)
	require.Equal(t, first[0].Counted, second[0].Counted)
	require.Equal(t, first[0].Items, second[0].Items)
}

func TestConfirmRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"NOPE"}}})
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))

	loc100 := int64(100)
	f.store.items["D"] = catalog.ProductItem{ID: 4, Barcode: "D", VariantID: 20, LocationID: &loc100, State: catalog.StateAvailable}
	_, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"D"}}})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))

	// rejected confirms leave no snapshot behind
	states, err := f.store.ListStates(ctx, inv.ID)
	require.NoError(t, err)
	require.Empty(t, states)
}

func TestValidateOpensInvestigationForMissingUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)
	inv, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A"}}})
	require.NoError(t, err)

	states, err := f.store.ListStates(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, 2, states[0].InStock.Available)
	require.Equal(t, 1, states[0].Counted.Available)
	require.Equal(t, []ItemEntry{
		{Barcode: "A", Classification: ClassFound},
		{Barcode: "B", Classification: ClassNotFound},
	}, states[0].Items)

	before := f.store.variants[10].Quantity.Total()
	inv, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, inv.Status)

	missing := f.store.items["B"]
	require.Equal(t, int64(900), *missing.LocationID)
	require.Equal(t, catalog.StatePendingInvestigation, missing.State)
	require.Equal(t, catalog.StatusToInvestigate, missing.Status)

	untouched := f.store.items["A"]
	require.Equal(t, int64(100), *untouched.LocationID)
	require.Equal(t, catalog.StateAvailable, untouched.State)

	require.Len(t, f.store.cases, 1)
	require.Equal(t, investigation.StatusPending, f.store.cases[0].Status)
	require.Equal(t, inv.ID, f.store.cases[0].InventoryID)
	require.Equal(t, missing.ID, f.store.cases[0].ItemID)
	require.NotEmpty(t, f.store.cases[0].Reference)

	require.Len(t, f.store.movements, 1)
	movement := f.store.movements[0]
	require.Equal(t, stock.MovementInternal, movement.Kind)
	require.Equal(t, stock.TriggerSystem, movement.Trigger)
	require.Equal(t, stock.OriginInventory, movement.Origin)
	require.Equal(t, missing.ID, movement.ItemID)
	require.Equal(t, int64(100), *movement.Source.LocationID)
	require.Equal(t, int64(900), *movement.Target.LocationID)
	require.Equal(t, inv.ID, *movement.InventoryID)

	require.Equal(t, 1, f.store.totals[100])
	require.Equal(t, 1, f.store.totals[900])

	variantQty := f.store.variants[10].Quantity
	require.Equal(t, 2, variantQty.Available)
	require.Equal(t, 1, variantQty.PendingInvestigation)
	require.Equal(t, before, variantQty.Total(), "bucket totals are conserved")
	require.Equal(t, variantQty, f.store.products[1])

	require.Equal(t, 1, f.notifier.calls)
	require.Equal(t, []int64{10}, f.notifier.variantIDs)
	require.Equal(t, []string{f.store.cases[0].Reference}, f.mailer.cases)
}

func TestValidateAdoptsSurplusUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)
	inv, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A", "B", "C"}}})
	require.NoError(t, err)

	states, err := f.store.ListStates(ctx, inv.ID)
	require.NoError(t, err)
	require.Contains(t, states[0].Items, ItemEntry{Barcode: "C", Classification: ClassInSurplus})

	before := f.store.variants[10].Quantity.Total()
	_, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.NoError(t, err)

	surplus := f.store.items["C"]
	require.Equal(t, int64(100), *surplus.LocationID)
	require.Equal(t, catalog.StateAvailable, surplus.State)
	require.Equal(t, catalog.StatusInStock, surplus.Status)

	require.Len(t, f.store.movements, 1)
	movement := f.store.movements[0]
	require.Equal(t, stock.MovementAdjustment, movement.Kind)
	require.Equal(t, surplus.ID, movement.ItemID)
	require.Equal(t, int64(200), *movement.Source.LocationID)
	require.Equal(t, int64(100), *movement.Target.LocationID)

	require.Equal(t, 3, f.store.totals[100])
	require.Equal(t, 0, f.store.totals[200])
	require.Empty(t, f.store.cases)
	require.Empty(t, f.mailer.cases)

	variantQty := f.store.variants[10].Quantity
	require.Equal(t, 3, variantQty.Available)
	require.Equal(t, before, variantQty.Total())
}

func TestValidateRechecksStatusUnderRowLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)
	inv, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A"}}})
	require.NoError(t, err)
	require.Equal(t, StatusPending, inv.Status)

	// A concurrent validate committed between the status read and the
	// row lock: the locked row comes back VALIDATED.
	f.store.lockInventory = func(locked Inventory) Inventory {
		locked.Status = StatusValidated
		return locked
	}

	_, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))

	require.Empty(t, f.store.movements)
	require.Empty(t, f.store.cases)
	require.Equal(t, int64(100), *f.store.items["B"].LocationID)
	require.Equal(t, catalog.StateAvailable, f.store.items["B"].State)
	require.Equal(t, 2, f.store.totals[100])
	require.Equal(t, 0, f.store.totals[900])
	require.Equal(t, catalog.Quantity{Available: 3}, f.store.variants[10].Quantity)
	require.Equal(t, catalog.Quantity{Available: 3}, f.store.products[1])
	require.Zero(t, f.notifier.calls)
	require.Empty(t, f.mailer.cases)
}

func TestValidateRequiresPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)

	_, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.Equal(t, shared.KindInvalidState, shared.KindOf(err))
}

func TestGetHydratesDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.actor, 100, "Count")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.actor, inv.ID, []CountInput{{VariantID: 10, Barcodes: []string{"A"}}})
	require.NoError(t, err)
	_, err = f.svc.Validate(ctx, f.actor, inv.ID)
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, detail.Inventory.Status)
	require.Len(t, detail.States, 1)
	require.Len(t, detail.Movements, 1)
	require.Len(t, detail.Investigations, 1)

	_, err = f.svc.Get(ctx, 424242)
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
