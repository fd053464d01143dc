// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package scansession

import (
	"context"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
)

var mon = monkit.Package()

// Service implements the scan session store.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	db    DB
	live  Live
	nowFn func() time.Time
}

// NewService creates a new scan session service. live may be nil.
func NewService(log *zap.Logger, db DB, live Live) *Service {
	return &Service{log: log, db: db, live: live, nowFn: time.Now}
}

// TestSetNow overrides the clock, for tests.
func (s *Service) TestSetNow(nowFn func() time.Time) { s.nowFn = nowFn }

// Get returns a live session by id.
func (s *Service) Get(ctx context.Context, id int64) (_ *Session, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.db.Get(ctx, id)
}

// List returns the live sessions of one user. Requests without a user id
// return an empty list.
func (s *Service) List(ctx context.Context, userID *int64) (_ []Session, err error) {
	defer mon.Task()(&ctx)(&err)

	if userID == nil {
		return []Session{}, nil
	}
	return s.db.ListForUser(ctx, userID)
}

// Create opens a session expiring DefaultTTL from now.
func (s *Service) Create(ctx context.Context, req CreateRequest) (created *Session, err error) {
	defer mon.Task()(&ctx)(&err)

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrValidation.New("name is required")
	}
	if req.Items == nil {
		req.Items = []Item{}
	}

	created, err = s.db.Create(ctx, req, s.nowFn().Add(DefaultTTL))
	if err != nil {
		return nil, err
	}
	s.touchLive(ctx, created)
	return created, nil
}

// ReplaceItems swaps the session's items wholesale. There are no diff
// semantics.
func (s *Service) ReplaceItems(ctx context.Context, id int64, items []Item) (updated *Session, err error) {
	defer mon.Task()(&ctx)(&err)

	if items == nil {
		items = []Item{}
	}
	updated, err = s.db.ReplaceItems(ctx, id, items)
	if err != nil {
		return nil, err
	}
	s.touchLive(ctx, updated)
	return updated, nil
}

// Rename changes the session name.
func (s *Service) Rename(ctx context.Context, id int64, name string) (_ *Session, err error) {
	defer mon.Task()(&ctx)(&err)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation.New("name is required")
	}
	return s.db.Rename(ctx, id, name)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := s.db.Delete(ctx, id); err != nil {
		return err
	}
	if s.live != nil {
		if err := s.live.Forget(ctx, id); err != nil {
			s.log.Debug("live cache forget failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) touchLive(ctx context.Context, session *Session) {
	if s.live == nil {
		return
	}
	if err := s.live.Touch(ctx, session.ID, session.ExpiresAt); err != nil {
		s.log.Debug("live cache touch failed", zap.Error(err))
	}
}
