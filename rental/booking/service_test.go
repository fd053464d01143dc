// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cinerent.io/cinerent/private/testcontext"
	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/equipment"
)

// fakeStore is an in-memory booking.Store. WithTx snapshots the maps and
// restores them when fn fails, mirroring a rollback.
type fakeStore struct {
	bookings  map[int64]booking.Booking
	equipment map[int64]equipment.Equipment
	clients   map[int64]client.Client
	rollups   map[int64]int
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings:  make(map[int64]booking.Booking),
		equipment: make(map[int64]equipment.Equipment),
		clients:   make(map[int64]client.Client),
		rollups:   make(map[int64]int),
	}
}

func (f *fakeStore) Bookings() booking.DB { return &fakeBookings{f} }

func (f *fakeStore) Equipment() equipment.DB { return &fakeEquipment{f} }

func (f *fakeStore) Clients() client.DB { return &fakeClients{f} }

func (f *fakeStore) ProjectRollup() booking.ProjectRollup { return &fakeRollup{f} }

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, booking.Store) error) error {
	snapshot := f.clone()
	if err := fn(ctx, f); err != nil {
		f.bookings = snapshot.bookings
		f.equipment = snapshot.equipment
		f.clients = snapshot.clients
		f.rollups = snapshot.rollups
		f.nextID = snapshot.nextID
		return err
	}
	return nil
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = f.nextID
	for k, v := range f.bookings {
		c.bookings[k] = v
	}
	for k, v := range f.equipment {
		c.equipment[k] = v
	}
	for k, v := range f.clients {
		c.clients[k] = v
	}
	for k, v := range f.rollups {
		c.rollups[k] = v
	}
	return c
}

func (f *fakeStore) addEquipment(status equipment.Status) int64 {
	f.nextID++
	f.equipment[f.nextID] = equipment.Equipment{ID: f.nextID, Name: "camera", Barcode: "00000000101", Status: status}
	return f.nextID
}

func (f *fakeStore) addClient() int64 {
	f.nextID++
	f.clients[f.nextID] = client.Client{ID: f.nextID, Name: "Ada", Status: client.StatusActive}
	return f.nextID
}

func (f *fakeStore) addBooking(b booking.Booking) int64 {
	f.nextID++
	b.ID = f.nextID
	if b.Status == "" {
		b.Status = booking.StatusActive
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = booking.PaymentPending
	}
	f.bookings[f.nextID] = b
	return f.nextID
}

type fakeBookings struct{ store *fakeStore }

func (b *fakeBookings) Get(ctx context.Context, id int64) (*booking.Booking, error) {
	found, ok := b.store.bookings[id]
	if !ok || found.DeletedAt != nil {
		return nil, booking.ErrNotFound.New("id %d", id)
	}
	if eq, ok := b.store.equipment[found.EquipmentID]; ok {
		found.Equipment = &eq
	}
	if cl, ok := b.store.clients[found.ClientID]; ok {
		found.Client = &cl
	}
	return &found, nil
}

func (b *fakeBookings) List(ctx context.Context, filter booking.ListFilter) (*booking.Page, error) {
	page := &booking.Page{Items: []booking.Booking{}}
	for _, item := range b.store.bookings {
		if item.DeletedAt != nil {
			continue
		}
		if filter.EquipmentID != nil && item.EquipmentID != *filter.EquipmentID {
			continue
		}
		if filter.ClientID != nil && item.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		page.Items = append(page.Items, item)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (b *fakeBookings) Create(ctx context.Context, req booking.CreateRequest, deposit decimal.Decimal) (*booking.Booking, error) {
	b.store.nextID++
	created := booking.Booking{
		ID:            b.store.nextID,
		ClientID:      req.ClientID,
		EquipmentID:   req.EquipmentID,
		ProjectID:     req.ProjectID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Quantity:      req.Quantity,
		TotalAmount:   req.TotalAmount,
		DepositAmount: deposit,
		Status:        booking.StatusActive,
		PaymentStatus: booking.PaymentPending,
		Notes:         req.Notes,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	b.store.bookings[created.ID] = created
	return b.Get(ctx, created.ID)
}

func (b *fakeBookings) Update(ctx context.Context, id int64, req booking.UpdateRequest) (*booking.Booking, error) {
	found, ok := b.store.bookings[id]
	if !ok || found.DeletedAt != nil {
		return nil, booking.ErrNotFound.New("id %d", id)
	}
	if req.StartDate != nil {
		found.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		found.EndDate = *req.EndDate
	}
	if req.Quantity != nil {
		found.Quantity = *req.Quantity
	}
	if req.TotalAmount != nil {
		found.TotalAmount = *req.TotalAmount
	}
	if req.DepositAmount != nil {
		found.DepositAmount = *req.DepositAmount
	}
	if req.Notes != nil {
		found.Notes = req.Notes
	}
	b.store.bookings[id] = found
	return b.Get(ctx, id)
}

func (b *fakeBookings) UpdateStatus(ctx context.Context, id int64, status booking.Status) (*booking.Booking, error) {
	found, ok := b.store.bookings[id]
	if !ok || found.DeletedAt != nil {
		return nil, booking.ErrNotFound.New("id %d", id)
	}
	found.Status = status
	b.store.bookings[id] = found
	return b.Get(ctx, id)
}

func (b *fakeBookings) UpdatePayment(ctx context.Context, id int64, status booking.PaymentStatus) (*booking.Booking, error) {
	found, ok := b.store.bookings[id]
	if !ok || found.DeletedAt != nil {
		return nil, booking.ErrNotFound.New("id %d", id)
	}
	found.PaymentStatus = status
	b.store.bookings[id] = found
	return b.Get(ctx, id)
}

func (b *fakeBookings) SetProject(ctx context.Context, id int64, projectID *int64) error {
	found, ok := b.store.bookings[id]
	if !ok || found.DeletedAt != nil {
		return booking.ErrNotFound.New("id %d", id)
	}
	found.ProjectID = projectID
	b.store.bookings[id] = found
	return nil
}

func (b *fakeBookings) SoftDelete(ctx context.Context, id int64) error {
	found, ok := b.store.bookings[id]
	if !ok || found.DeletedAt != nil {
		return booking.ErrNotFound.New("id %d", id)
	}
	now := time.Now()
	found.DeletedAt = &now
	b.store.bookings[id] = found
	return nil
}

func (b *fakeBookings) ListBlockingOverlaps(ctx context.Context, equipmentID int64, from, to time.Time, excludeID *int64) ([]booking.Booking, error) {
	var overlapping []booking.Booking
	for _, item := range b.store.bookings {
		if item.DeletedAt != nil || item.EquipmentID != equipmentID || !item.Status.Blocking() {
			continue
		}
		if excludeID != nil && item.ID == *excludeID {
			continue
		}
		if booking.Overlap(item.StartDate, item.EndDate, from, to) {
			overlapping = append(overlapping, item)
		}
	}
	return overlapping, nil
}

func (b *fakeBookings) ListForEquipment(ctx context.Context, equipmentID int64) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, item := range b.store.bookings {
		if item.DeletedAt == nil && item.EquipmentID == equipmentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (b *fakeBookings) ListForProject(ctx context.Context, projectID int64) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, item := range b.store.bookings {
		if item.DeletedAt == nil && item.ProjectID != nil && *item.ProjectID == projectID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (b *fakeBookings) HasBlockingForEquipment(ctx context.Context, equipmentID int64) (bool, error) {
	for _, item := range b.store.bookings {
		if item.DeletedAt == nil && item.EquipmentID == equipmentID && item.Status.Blocking() {
			return true, nil
		}
	}
	return false, nil
}

func (b *fakeBookings) HasActiveForClient(ctx context.Context, clientID int64) (bool, error) {
	for _, item := range b.store.bookings {
		if item.DeletedAt == nil && item.ClientID == clientID && item.Status.Blocking() {
			return true, nil
		}
	}
	return false, nil
}

type fakeEquipment struct{ store *fakeStore }

func (e *fakeEquipment) Get(ctx context.Context, id int64) (*equipment.Equipment, error) {
	found, ok := e.store.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	return &found, nil
}

func (e *fakeEquipment) GetByBarcode(ctx context.Context, code string) (*equipment.Equipment, error) {
	for _, found := range e.store.equipment {
		if found.DeletedAt == nil && found.Barcode == code {
			return &found, nil
		}
	}
	return nil, equipment.ErrNotFound.New("barcode %q", code)
}

func (e *fakeEquipment) List(ctx context.Context, filter equipment.ListFilter) (*equipment.Page, error) {
	return &equipment.Page{Items: []equipment.Equipment{}}, nil
}

func (e *fakeEquipment) Create(ctx context.Context, req equipment.CreateRequest, code string) (*equipment.Equipment, error) {
	e.store.nextID++
	created := equipment.Equipment{ID: e.store.nextID, Name: req.Name, Barcode: code, CategoryID: req.CategoryID, Status: equipment.StatusAvailable}
	e.store.equipment[created.ID] = created
	return &created, nil
}

func (e *fakeEquipment) Update(ctx context.Context, id int64, req equipment.UpdateRequest) (*equipment.Equipment, error) {
	return e.Get(ctx, id)
}

func (e *fakeEquipment) UpdateStatus(ctx context.Context, id int64, status equipment.Status) (*equipment.Equipment, error) {
	found, ok := e.store.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	found.Status = status
	e.store.equipment[id] = found
	return &found, nil
}

func (e *fakeEquipment) UpdateBarcode(ctx context.Context, id int64, code string) (*equipment.Equipment, error) {
	found, ok := e.store.equipment[id]
	if !ok || found.DeletedAt != nil {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	found.Barcode = code
	e.store.equipment[id] = found
	return &found, nil
}

func (e *fakeEquipment) SoftDelete(ctx context.Context, id int64) error {
	found, ok := e.store.equipment[id]
	if !ok || found.DeletedAt != nil {
		return equipment.ErrNotFound.New("id %d", id)
	}
	now := time.Now()
	found.DeletedAt = &now
	e.store.equipment[id] = found
	return nil
}

type fakeClients struct{ store *fakeStore }

func (c *fakeClients) Get(ctx context.Context, id int64) (*client.Client, error) {
	found, ok := c.store.clients[id]
	if !ok || found.DeletedAt != nil {
		return nil, client.ErrNotFound.New("id %d", id)
	}
	return &found, nil
}

func (c *fakeClients) List(ctx context.Context, filter client.ListFilter) (*client.Page, error) {
	return &client.Page{Items: []client.Client{}}, nil
}

func (c *fakeClients) Create(ctx context.Context, req client.CreateRequest) (*client.Client, error) {
	c.store.nextID++
	created := client.Client{ID: c.store.nextID, Name: req.Name, Status: client.StatusActive}
	c.store.clients[created.ID] = created
	return &created, nil
}

func (c *fakeClients) Update(ctx context.Context, id int64, req client.UpdateRequest) (*client.Client, error) {
	return c.Get(ctx, id)
}

func (c *fakeClients) SoftDelete(ctx context.Context, id int64) error {
	found, ok := c.store.clients[id]
	if !ok {
		return client.ErrNotFound.New("id %d", id)
	}
	now := time.Now()
	found.DeletedAt = &now
	c.store.clients[id] = found
	return nil
}

type fakeRollup struct{ store *fakeStore }

func (r *fakeRollup) RecomputePayment(ctx context.Context, projectID int64) error {
	r.store.rollups[projectID]++
	return nil
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func newBookingService(t *testing.T, store *fakeStore) *booking.Service {
	return booking.NewService(zaptest.NewLogger(t), store)
}

func TestCreateDefaults(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	created, err := service.Create(ctx, booking.CreateRequest{
		ClientID:    clientID,
		EquipmentID: equipmentID,
		StartDate:   day(1),
		EndDate:     day(5),
		TotalAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	assert.Equal(t, booking.StatusActive, created.Status)
	assert.Equal(t, booking.PaymentPending, created.PaymentStatus)
	assert.Equal(t, 1, created.Quantity)
	assert.True(t, created.DepositAmount.Equal(decimal.NewFromInt(200)), "deposit %s", created.DepositAmount)

	// Creation does not flip the equipment status.
	eq := store.equipment[equipmentID]
	assert.Equal(t, equipment.StatusAvailable, eq.Status)
}

func TestCreateExplicitDeposit(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	deposit := decimal.NewFromInt(50)
	created, err := service.Create(ctx, booking.CreateRequest{
		ClientID:      clientID,
		EquipmentID:   equipmentID,
		StartDate:     day(1),
		EndDate:       day(5),
		TotalAmount:   decimal.NewFromInt(1000),
		DepositAmount: &deposit,
	})
	require.NoError(t, err)
	assert.True(t, created.DepositAmount.Equal(deposit))
}

func TestCreateValidation(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	// start must be before end, a zero-length window included
	_, err := service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(5), EndDate: day(5),
		TotalAmount: decimal.NewFromInt(10),
	})
	require.True(t, booking.ErrValidation.Has(err))

	_, err = service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		TotalAmount: decimal.NewFromInt(-1),
	})
	require.True(t, booking.ErrValidation.Has(err))

	_, err = service.Create(ctx, booking.CreateRequest{
		ClientID: 9999, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		TotalAmount: decimal.NewFromInt(10),
	})
	require.True(t, client.ErrNotFound.Has(err))
}

func TestCreateConflictRejected(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	_, err := service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(10),
		TotalAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Sharing only the boundary day still conflicts, the interval is
	// closed-closed.
	_, err = service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(10), EndDate: day(15),
		TotalAmount: decimal.NewFromInt(100),
	})
	require.True(t, booking.ErrAvailability.Has(err))

	// A disjoint window is fine.
	_, err = service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(11), EndDate: day(15),
		TotalAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
}

func TestCreateEquipmentNotAvailable(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusMaintenance)

	_, err := service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		TotalAmount: decimal.NewFromInt(100),
	})
	require.True(t, booking.ErrAvailability.Has(err))
}

func TestCreateBatchPartialSuccess(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	first := store.addEquipment(equipment.StatusAvailable)
	second := store.addEquipment(equipment.StatusAvailable)
	broken := store.addEquipment(equipment.StatusBroken)

	result, err := service.CreateBatch(ctx, []booking.CreateRequest{
		{ClientID: clientID, EquipmentID: first, StartDate: day(1), EndDate: day(5), TotalAmount: decimal.NewFromInt(100)},
		{ClientID: clientID, EquipmentID: second, StartDate: day(1), EndDate: day(5), TotalAmount: decimal.NewFromInt(100)},
		{ClientID: clientID, EquipmentID: broken, StartDate: day(1), EndDate: day(5), TotalAmount: decimal.NewFromInt(100)},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, broken, result.Failed[0].EquipmentID)

	// The successes are committed.
	page, err := service.List(ctx, booking.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestCreateBatchAllFailRollsBack(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	broken := store.addEquipment(equipment.StatusBroken)

	_, err := service.CreateBatch(ctx, []booking.CreateRequest{
		{ClientID: clientID, EquipmentID: broken, StartDate: day(1), EndDate: day(5), TotalAmount: decimal.NewFromInt(100)},
		{ClientID: clientID, EquipmentID: broken, StartDate: day(6), EndDate: day(9), TotalAmount: decimal.NewFromInt(100)},
	}, nil)
	require.True(t, booking.ErrValidation.Has(err))

	page, err := service.List(ctx, booking.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCreateBatchSameEquipmentConflicts(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	// The second item sees the first insert of the same batch.
	result, err := service.CreateBatch(ctx, []booking.CreateRequest{
		{ClientID: clientID, EquipmentID: equipmentID, StartDate: day(1), EndDate: day(5), TotalAmount: decimal.NewFromInt(100)},
		{ClientID: clientID, EquipmentID: equipmentID, StartDate: day(3), EndDate: day(8), TotalAmount: decimal.NewFromInt(100)},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	assert.Len(t, result.Failed, 1)
}

func TestCreateBatchLimits(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service := newBookingService(t, newFakeStore())

	_, err := service.CreateBatch(ctx, nil, nil)
	require.True(t, booking.ErrValidation.Has(err))

	oversized := make([]booking.CreateRequest, 101)
	_, err = service.CreateBatch(ctx, oversized, nil)
	require.True(t, booking.ErrValidation.Has(err))
}

func TestUpdateWindowRecheck(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	first, err := service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		TotalAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	_, err = service.Create(ctx, booking.CreateRequest{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(10), EndDate: day(15),
		TotalAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Stretching the first window into the second is rejected.
	newEnd := day(12)
	_, err = service.Update(ctx, first.ID, booking.UpdateRequest{EndDate: &newEnd})
	require.True(t, booking.ErrAvailability.Has(err))

	// Shrinking its own window never conflicts with itself.
	newEnd = day(4)
	updated, err := service.Update(ctx, first.ID, booking.UpdateRequest{EndDate: &newEnd})
	require.NoError(t, err)
	assert.True(t, updated.EndDate.Equal(day(4)))
}

func TestSetStatusCascade(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	id := store.addBooking(booking.Booking{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		Status: booking.StatusConfirmed,
	})

	// Activation pushes the equipment into RENTED.
	updated, err := service.SetStatus(ctx, id, booking.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusActive, updated.Status)
	assert.Equal(t, equipment.StatusRented, store.equipment[equipmentID].Status)

	// Completion releases it once nothing else blocks.
	updated, err = service.SetStatus(ctx, id, booking.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, updated.Status)
	assert.Equal(t, equipment.StatusAvailable, store.equipment[equipmentID].Status)
}

func TestSetStatusKeepsRentedWhileBlocked(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusRented)

	id := store.addBooking(booking.Booking{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		Status: booking.StatusActive,
	})
	store.addBooking(booking.Booking{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(10), EndDate: day(15),
		Status: booking.StatusPending,
	})

	_, err := service.SetStatus(ctx, id, booking.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, equipment.StatusRented, store.equipment[equipmentID].Status)
}

func TestSetStatusIllegal(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	id := store.addBooking(booking.Booking{
		ClientID: clientID, EquipmentID: equipmentID,
		StartDate: day(1), EndDate: day(5),
		Status: booking.StatusPending,
	})

	_, err := service.SetStatus(ctx, id, booking.StatusCompleted)
	require.True(t, booking.ErrStatusTransition.Has(err))

	// Setting the current status is a no-op, not an error.
	updated, err := service.SetStatus(ctx, id, booking.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, updated.Status)

	_, err = service.SetStatus(ctx, id, booking.Status("BOGUS"))
	require.True(t, booking.ErrValidation.Has(err))
}

func TestSetPaymentStatusRollup(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusAvailable)

	projectID := int64(77)
	id := store.addBooking(booking.Booking{
		ClientID: clientID, EquipmentID: equipmentID,
		ProjectID: &projectID,
		StartDate: day(1), EndDate: day(5),
		Status: booking.StatusActive,
	})

	updated, err := service.SetPaymentStatus(ctx, id, booking.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, 1, store.rollups[projectID])

	_, err = service.SetPaymentStatus(ctx, id, booking.PaymentPending)
	require.True(t, booking.ErrStatusTransition.Has(err))
}

func TestDeleteReleasesEquipment(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newBookingService(t, store)
	clientID := store.addClient()
	equipmentID := store.addEquipment(equipment.StatusRented)

	projectID := int64(42)
	id := store.addBooking(booking.Booking{
		ClientID: clientID, EquipmentID: equipmentID,
		ProjectID: &projectID,
		StartDate: day(1), EndDate: day(5),
		Status: booking.StatusActive,
	})

	require.NoError(t, service.Delete(ctx, id))

	_, err := service.Get(ctx, id)
	require.True(t, booking.ErrNotFound.Has(err))
	assert.Equal(t, equipment.StatusAvailable, store.equipment[equipmentID].Status)
	assert.Equal(t, 1, store.rollups[projectID])
}
