// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package equipment_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cinerent.io/cinerent/private/testcontext"
	"cinerent.io/cinerent/rental/barcode"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/equipment"
)

// fakeStore is an in-memory equipment.Store with a monotonic barcode sequence.
type fakeStore struct {
	equipment  map[int64]equipment.Equipment
	blocked    map[int64]bool
	sequence   int64
	lastFilter equipment.ListFilter
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		equipment: make(map[int64]equipment.Equipment),
		blocked:   make(map[int64]bool),
	}
}

func (f *fakeStore) Equipment() equipment.DB { return f }

func (f *fakeStore) Sequences() barcode.Sequences { return f }

func (f *fakeStore) BookingGuard() equipment.BookingGuard { return f }

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, equipment.Store) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) Next(ctx context.Context) (int64, error) {
	f.sequence++
	return f.sequence, nil
}

func (f *fakeStore) HasBlockingForEquipment(ctx context.Context, equipmentID int64) (bool, error) {
	return f.blocked[equipmentID], nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*equipment.Equipment, error) {
	found, ok := f.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	return &found, nil
}

func (f *fakeStore) GetByBarcode(ctx context.Context, code string) (*equipment.Equipment, error) {
	for _, found := range f.equipment {
		if found.DeletedAt == nil && found.Barcode == code {
			return &found, nil
		}
	}
	return nil, equipment.ErrNotFound.New("barcode %q", code)
}

func (f *fakeStore) List(ctx context.Context, filter equipment.ListFilter) (*equipment.Page, error) {
	f.lastFilter = filter
	page := &equipment.Page{Items: []equipment.Equipment{}, Offset: filter.Offset, Limit: filter.Limit}
	for _, item := range f.equipment {
		if item.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if len(filter.CategoryIDs) > 0 && !containsID(filter.CategoryIDs, item.CategoryID) {
			continue
		}
		page.Items = append(page.Items, item)
	}
	sort.Slice(page.Items, func(i, j int) bool { return page.Items[i].ID < page.Items[j].ID })
	page.Total = int64(len(page.Items))
	return page, nil
}

func (f *fakeStore) Create(ctx context.Context, req equipment.CreateRequest, code string) (*equipment.Equipment, error) {
	f.nextID++
	created := equipment.Equipment{
		ID:              f.nextID,
		Name:            req.Name,
		Description:     req.Description,
		SerialNumber:    req.SerialNumber,
		Barcode:         code,
		CategoryID:      req.CategoryID,
		Status:          equipment.StatusAvailable,
		ReplacementCost: req.ReplacementCost,
		Notes:           req.Notes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.equipment[created.ID] = created
	return &created, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, req equipment.UpdateRequest) (*equipment.Equipment, error) {
	found, ok := f.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	if req.Name != nil {
		found.Name = *req.Name
	}
	if req.CategoryID != nil {
		found.CategoryID = *req.CategoryID
	}
	if req.ReplacementCost != nil {
		found.ReplacementCost = *req.ReplacementCost
	}
	f.equipment[id] = found
	return &found, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, status equipment.Status) (*equipment.Equipment, error) {
	found, ok := f.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	found.Status = status
	f.equipment[id] = found
	return &found, nil
}

func (f *fakeStore) UpdateBarcode(ctx context.Context, id int64, code string) (*equipment.Equipment, error) {
	found, ok := f.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	found.Barcode = code
	f.equipment[id] = found
	return &found, nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id int64) error {
	found, ok := f.equipment[id]
	if !ok || found.DeletedAt != nil {
		return equipment.ErrNotFound.New("id %d", id)
	}
	now := time.Now()
	found.DeletedAt = &now
	f.equipment[id] = found
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// fakeCategories is a minimal in-memory category.Store backing the category
// service the equipment service depends on.
type fakeCategories struct {
	categories map[int64]category.Category
	nextID     int64
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{categories: make(map[int64]category.Category)}
}

func (f *fakeCategories) add(name string, parentID *int64) int64 {
	f.nextID++
	f.categories[f.nextID] = category.Category{ID: f.nextID, Name: name, ParentID: parentID}
	return f.nextID
}

func (f *fakeCategories) Categories() category.DB { return f }

func (f *fakeCategories) WithTx(ctx context.Context, fn func(context.Context, category.Store) error) error {
	return fn(ctx, f)
}

func (f *fakeCategories) Get(ctx context.Context, id int64) (*category.Category, error) {
	found, ok := f.categories[id]
	if !ok {
		return nil, category.ErrNotFound.New("id %d", id)
	}
	return &found, nil
}

func (f *fakeCategories) All(ctx context.Context) ([]category.Category, error) {
	var all []category.Category
	for _, c := range f.categories {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (f *fakeCategories) GetByName(ctx context.Context, name string) (*category.Category, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, category.ErrNotFound.New("name %q", name)
}

func (f *fakeCategories) Create(ctx context.Context, req category.CreateRequest) (*category.Category, error) {
	id := f.add(req.Name, req.ParentID)
	return f.Get(ctx, id)
}

func (f *fakeCategories) Update(ctx context.Context, id int64, req category.UpdateRequest) (*category.Category, error) {
	return f.Get(ctx, id)
}

func (f *fakeCategories) SoftDelete(ctx context.Context, id int64) error { return nil }

func (f *fakeCategories) CountEquipment(ctx context.Context) (map[int64]int64, error) {
	return map[int64]int64{}, nil
}

func (f *fakeCategories) HasEquipment(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (f *fakeCategories) HasSubcategories(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func newServices(t *testing.T) (*equipment.Service, *fakeStore, *fakeCategories) {
	store := newFakeStore()
	cats := newFakeCategories()
	log := zaptest.NewLogger(t)
	service := equipment.NewService(log.Named("equipment"), store, category.NewService(log.Named("category"), cats))
	return service, store, cats
}

func TestCreateGeneratedBarcode(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cats := newServices(t)
	categoryID := cats.add("Cameras", nil)

	first, err := service.Create(ctx, equipment.CreateRequest{
		Name:            "ARRI Alexa 35",
		CategoryID:      categoryID,
		ReplacementCost: decimal.NewFromInt(75000),
	})
	require.NoError(t, err)
	assert.Equal(t, "00000000101", first.Barcode)
	assert.Equal(t, equipment.StatusAvailable, first.Status)

	second, err := service.Create(ctx, equipment.CreateRequest{
		Name:            "ARRI Alexa Mini",
		CategoryID:      categoryID,
		ReplacementCost: decimal.NewFromInt(50000),
	})
	require.NoError(t, err)
	assert.Equal(t, "00000000202", second.Barcode)
}

func TestCreateCustomBarcode(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cats := newServices(t)
	categoryID := cats.add("Cameras", nil)

	// Without validation any string is accepted, legacy labels included.
	custom := "LEGACY-0042"
	created, err := service.Create(ctx, equipment.CreateRequest{
		Name:          "Old tripod",
		CategoryID:    categoryID,
		CustomBarcode: &custom,
	})
	require.NoError(t, err)
	assert.Equal(t, custom, created.Barcode)

	// The same barcode cannot be assigned twice.
	_, err = service.Create(ctx, equipment.CreateRequest{
		Name:          "Another tripod",
		CategoryID:    categoryID,
		CustomBarcode: &custom,
	})
	require.True(t, equipment.ErrBarcodeTaken.Has(err))

	// With validation the checksum must hold.
	bad := "00000000199"
	_, err = service.Create(ctx, equipment.CreateRequest{
		Name:            "Checked",
		CategoryID:      categoryID,
		CustomBarcode:   &bad,
		ValidateBarcode: true,
	})
	require.True(t, equipment.ErrValidation.Has(err))

	good, err := barcode.Compose(12345)
	require.NoError(t, err)
	created, err = service.Create(ctx, equipment.CreateRequest{
		Name:            "Checked",
		CategoryID:      categoryID,
		CustomBarcode:   &good,
		ValidateBarcode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, good, created.Barcode)
}

func TestCreateValidation(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cats := newServices(t)
	categoryID := cats.add("Cameras", nil)

	_, err := service.Create(ctx, equipment.CreateRequest{Name: "   ", CategoryID: categoryID})
	require.True(t, equipment.ErrValidation.Has(err))

	_, err = service.Create(ctx, equipment.CreateRequest{
		Name:            "Camera",
		CategoryID:      categoryID,
		ReplacementCost: decimal.NewFromInt(-1),
	})
	require.True(t, equipment.ErrValidation.Has(err))

	_, err = service.Create(ctx, equipment.CreateRequest{
		Name:            "Camera",
		CategoryID:      categoryID,
		ReplacementCost: decimal.New(1, 8),
	})
	require.True(t, equipment.ErrValidation.Has(err), "cost upper bound is exclusive")

	_, err = service.Create(ctx, equipment.CreateRequest{Name: "Camera", CategoryID: 9999})
	require.True(t, category.ErrNotFound.Has(err))
}

func TestSetStatus(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cats := newServices(t)
	categoryID := cats.add("Cameras", nil)

	created, err := service.Create(ctx, equipment.CreateRequest{Name: "Camera", CategoryID: categoryID})
	require.NoError(t, err)

	// RENTED is reserved for the booking engine.
	_, err = service.SetStatus(ctx, created.ID, equipment.StatusRented)
	require.True(t, equipment.ErrValidation.Has(err))

	updated, err := service.SetStatus(ctx, created.ID, equipment.StatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, equipment.StatusMaintenance, updated.Status)

	// Same status is a no-op.
	updated, err = service.SetStatus(ctx, created.ID, equipment.StatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, equipment.StatusMaintenance, updated.Status)

	_, err = service.SetStatus(ctx, created.ID, equipment.Status("LOST"))
	require.True(t, equipment.ErrValidation.Has(err))

	// RETIRED is terminal.
	_, err = service.SetStatus(ctx, created.ID, equipment.StatusRetired)
	require.NoError(t, err)
	_, err = service.SetStatus(ctx, created.ID, equipment.StatusAvailable)
	require.True(t, equipment.ErrStatusTransition.Has(err))
}

func TestDeleteGuard(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, store, cats := newServices(t)
	categoryID := cats.add("Cameras", nil)

	created, err := service.Create(ctx, equipment.CreateRequest{Name: "Camera", CategoryID: categoryID})
	require.NoError(t, err)

	store.blocked[created.ID] = true
	err = service.Delete(ctx, created.ID)
	require.True(t, equipment.ErrInUse.Has(err))

	store.blocked[created.ID] = false
	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.Get(ctx, created.ID)
	require.True(t, equipment.ErrNotFound.Has(err))
}

func TestRegenerateBarcode(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cats := newServices(t)
	categoryID := cats.add("Cameras", nil)

	created, err := service.Create(ctx, equipment.CreateRequest{Name: "Camera", CategoryID: categoryID})
	require.NoError(t, err)
	oldCode := created.Barcode

	updated, err := service.RegenerateBarcode(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldCode, updated.Barcode)

	_, err = barcode.Parse(updated.Barcode)
	require.NoError(t, err)

	// The old barcode stops resolving.
	_, err = service.GetByBarcode(ctx, oldCode)
	require.True(t, equipment.ErrNotFound.Has(err))

	found, err := service.GetByBarcode(ctx, updated.Barcode)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestListExpandsCategorySubtree(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, store, cats := newServices(t)
	root := cats.add("Cameras", nil)
	child := cats.add("Cinema", &root)
	grandchild := cats.add("Large Format", &child)
	unrelated := cats.add("Lighting", nil)

	for _, categoryID := range []int64{root, child, grandchild, unrelated} {
		_, err := service.Create(ctx, equipment.CreateRequest{Name: "unit", CategoryID: categoryID})
		require.NoError(t, err)
	}

	page, err := service.List(ctx, equipment.ListFilter{}, &root)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, []int64{root, child, grandchild}, store.lastFilter.CategoryIDs)

	// Without a category filter everything shows.
	page, err = service.List(ctx, equipment.ListFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
}
