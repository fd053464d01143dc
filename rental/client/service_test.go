// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package client_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cinerent.io/cinerent/private/testcontext"
	"cinerent.io/cinerent/rental/client"
)

// fakeStore is an in-memory client.Store.
type fakeStore struct {
	clients map[int64]client.Client
	blocked map[int64]bool
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{clients: make(map[int64]client.Client), blocked: make(map[int64]bool)}
}

func (f *fakeStore) Clients() client.DB { return f }

func (f *fakeStore) BookingGuard() client.BookingGuard { return f }

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, client.Store) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) HasActiveForClient(ctx context.Context, clientID int64) (bool, error) {
	return f.blocked[clientID], nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*client.Client, error) {
	found, ok := f.clients[id]
	if !ok || found.DeletedAt != nil {
		return nil, client.ErrNotFound.New("id %d", id)
	}
	return &found, nil
}

func (f *fakeStore) List(ctx context.Context, filter client.ListFilter) (*client.Page, error) {
	page := &client.Page{Items: []client.Client{}}
	for _, c := range f.clients {
		if c.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		page.Items = append(page.Items, c)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (f *fakeStore) Create(ctx context.Context, req client.CreateRequest) (*client.Client, error) {
	f.nextID++
	created := client.Client{
		ID:        f.nextID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Status:    client.StatusActive,
		Notes:     req.Notes,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.clients[created.ID] = created
	return &created, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, req client.UpdateRequest) (*client.Client, error) {
	found, ok := f.clients[id]
	if !ok || found.DeletedAt != nil {
		return nil, client.ErrNotFound.New("id %d", id)
	}
	if req.Name != nil {
		found.Name = *req.Name
	}
	if req.Status != nil {
		found.Status = *req.Status
	}
	f.clients[id] = found
	return &found, nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id int64) error {
	found, ok := f.clients[id]
	if !ok || found.DeletedAt != nil {
		return client.ErrNotFound.New("id %d", id)
	}
	now := time.Now()
	found.DeletedAt = &now
	f.clients[id] = found
	return nil
}

func newService(t *testing.T, store *fakeStore) *client.Service {
	return client.NewService(zaptest.NewLogger(t), store)
}

func TestClientCreate(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service := newService(t, newFakeStore())

	created, err := service.Create(ctx, client.CreateRequest{Name: "  Ada Lovelace  "})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", created.Name)
	assert.Equal(t, client.StatusActive, created.Status)

	_, err = service.Create(ctx, client.CreateRequest{Name: "   "})
	require.True(t, client.ErrValidation.Has(err))
}

func TestClientUpdate(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service := newService(t, newFakeStore())
	created, err := service.Create(ctx, client.CreateRequest{Name: "Ada"})
	require.NoError(t, err)

	empty := "  "
	_, err = service.Update(ctx, created.ID, client.UpdateRequest{Name: &empty})
	require.True(t, client.ErrValidation.Has(err))

	bogus := client.Status("SUSPENDED")
	_, err = service.Update(ctx, created.ID, client.UpdateRequest{Status: &bogus})
	require.True(t, client.ErrValidation.Has(err))

	blocked := client.StatusBlocked
	updated, err := service.Update(ctx, created.ID, client.UpdateRequest{Status: &blocked})
	require.NoError(t, err)
	assert.Equal(t, client.StatusBlocked, updated.Status)
}

func TestClientListValidation(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service := newService(t, newFakeStore())

	_, err := service.List(ctx, client.ListFilter{Query: strings.Repeat("x", 256)})
	require.True(t, client.ErrValidation.Has(err))

	bogus := client.Status("SUSPENDED")
	_, err = service.List(ctx, client.ListFilter{Status: &bogus})
	require.True(t, client.ErrValidation.Has(err))
}

func TestClientDeleteGuard(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	store := newFakeStore()
	service := newService(t, store)
	created, err := service.Create(ctx, client.CreateRequest{Name: "Ada"})
	require.NoError(t, err)

	store.blocked[created.ID] = true
	err = service.Delete(ctx, created.ID)
	require.True(t, client.ErrInUse.Has(err))

	store.blocked[created.ID] = false
	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.Get(ctx, created.ID)
	require.True(t, client.ErrNotFound.Has(err))
}
