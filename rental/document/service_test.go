// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cinerent.io/cinerent/private/testcontext"
	"cinerent.io/cinerent/rental/document"
)

// fakeStore is an in-memory document.Store.
type fakeStore struct {
	documents map[int64]document.Document
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{documents: make(map[int64]document.Document)}
}

func (f *fakeStore) Documents() document.DB { return f }

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, document.Store) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*document.Document, error) {
	found, ok := f.documents[id]
	if !ok || found.DeletedAt != nil {
		return nil, document.ErrNotFound.New("id %d", id)
	}
	return &found, nil
}

func (f *fakeStore) List(ctx context.Context, filter document.ListFilter) (*document.Page, error) {
	page := &document.Page{Items: []document.Document{}}
	for _, d := range f.documents {
		if d.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Type != nil && d.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		page.Items = append(page.Items, d)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (f *fakeStore) Create(ctx context.Context, req document.CreateRequest) (*document.Document, error) {
	f.nextID++
	created := document.Document{
		ID:        f.nextID,
		ClientID:  req.ClientID,
		BookingID: req.BookingID,
		Type:      req.Type,
		Title:     req.Title,
		FilePath:  req.FilePath,
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
		Status:    document.StatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.documents[created.ID] = created
	return &created, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, status document.Status) (*document.Document, error) {
	found, ok := f.documents[id]
	if !ok || found.DeletedAt != nil {
		return nil, document.ErrNotFound.New("id %d", id)
	}
	found.Status = status
	f.documents[id] = found
	return &found, nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id int64) error {
	found, ok := f.documents[id]
	if !ok || found.DeletedAt != nil {
		return document.ErrNotFound.New("id %d", id)
	}
	now := time.Now()
	found.DeletedAt = &now
	f.documents[id] = found
	return nil
}

func newService(t *testing.T) (*document.Service, *fakeStore) {
	store := newFakeStore()
	return document.NewService(zaptest.NewLogger(t), store), store
}

func TestDocumentCreate(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _ := newService(t)

	created, err := service.Create(ctx, document.CreateRequest{
		ClientID: 1,
		Type:     document.TypeContract,
		Title:    "  Rental agreement  ",
		FileName: "agreement.pdf",
		FileSize: 1024,
		MimeType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rental agreement", created.Title)
	assert.Equal(t, document.StatusDraft, created.Status)

	_, err = service.Create(ctx, document.CreateRequest{ClientID: 1, Type: document.TypeContract, Title: " "})
	require.True(t, document.ErrValidation.Has(err))

	_, err = service.Create(ctx, document.CreateRequest{ClientID: 1, Type: document.Type("SELFIE"), Title: "x"})
	require.True(t, document.ErrValidation.Has(err))

	_, err = service.Create(ctx, document.CreateRequest{ClientID: 1, Type: document.TypeContract, Title: "x", FileSize: -1})
	require.True(t, document.ErrValidation.Has(err))
}

func TestDocumentStatusWorkflow(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _ := newService(t)
	created, err := service.Create(ctx, document.CreateRequest{
		ClientID: 1, Type: document.TypeContract, Title: "Rental agreement",
	})
	require.NoError(t, err)

	// DRAFT cannot jump straight to APPROVED.
	_, err = service.SetStatus(ctx, created.ID, document.StatusApproved)
	require.True(t, document.ErrStatusTransition.Has(err))

	// The happy path walks the review chain.
	for _, next := range []document.Status{
		document.StatusPending,
		document.StatusUnderReview,
		document.StatusApproved,
	} {
		updated, err := service.SetStatus(ctx, created.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	// Setting the current status is a no-op.
	updated, err := service.SetStatus(ctx, created.ID, document.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, document.StatusApproved, updated.Status)

	_, err = service.SetStatus(ctx, created.ID, document.Status("SHREDDED"))
	require.True(t, document.ErrValidation.Has(err))
}

func TestDocumentRejectionLoop(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _ := newService(t)
	created, err := service.Create(ctx, document.CreateRequest{
		ClientID: 1, Type: document.TypePassport, Title: "ID scan",
	})
	require.NoError(t, err)

	for _, next := range []document.Status{
		document.StatusPending,
		document.StatusUnderReview,
		document.StatusRejected,
		document.StatusPending, // rejected documents can be resubmitted
	} {
		_, err := service.SetStatus(ctx, created.ID, next)
		require.NoError(t, err)
	}
}

func TestDocumentDelete(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _ := newService(t)
	created, err := service.Create(ctx, document.CreateRequest{
		ClientID: 1, Type: document.TypeInvoice, Title: "Invoice 42",
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.Get(ctx, created.ID)
	require.True(t, document.ErrNotFound.Has(err))

	err = service.Delete(ctx, created.ID)
	require.True(t, document.ErrNotFound.Has(err))
}

func TestDocumentListValidation(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _ := newService(t)

	bogusType := document.Type("SELFIE")
	_, err := service.List(ctx, document.ListFilter{Type: &bogusType})
	require.True(t, document.ErrValidation.Has(err))

	bogusStatus := document.Status("SHREDDED")
	_, err = service.List(ctx, document.ListFilter{Status: &bogusStatus})
	require.True(t, document.ErrValidation.Has(err))
}
