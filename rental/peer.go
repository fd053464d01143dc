// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package rental is the cinema equipment rental system.
//
// The system is composed of domain engines (category, equipment, client,
// booking, project, document, scansession) sharing one postgres database
// through transactional stores, exposed over the rentalweb HTTP api.
package rental

import (
	"context"
	"net"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/document"
	"cinerent.io/cinerent/rental/equipment"
	"cinerent.io/cinerent/rental/project"
	"cinerent.io/cinerent/rental/rentalweb"
	"cinerent.io/cinerent/rental/scansession"
	"cinerent.io/cinerent/rental/scansession/live"
)

// Error is the default rental peer errs class.
var Error = errs.Class("rental peer")

// DB is the master database of the rental system.
//
// architecture: Master Database
type DB interface {
	// CategoryStore returns the transactional scope for the category service.
	CategoryStore() category.Store
	// EquipmentStore returns the transactional scope for the equipment service.
	EquipmentStore() equipment.Store
	// ClientStore returns the transactional scope for the client service.
	ClientStore() client.Store
	// BookingStore returns the transactional scope for the booking service.
	BookingStore() booking.Store
	// ProjectStore returns the transactional scope for the project service.
	ProjectStore() project.Store
	// DocumentStore returns the transactional scope for the document service.
	DocumentStore() document.Store
	// ScanSessions returns the scan session repository.
	ScanSessions() scansession.DB

	// MigrateToLatest applies all pending schema migrations.
	MigrateToLatest(ctx context.Context) error
	// Ping checks the database connection.
	Ping(ctx context.Context) error
	// Close closes the database.
	Close() error
}

// Config is the configuration of the rental peer.
type Config struct {
	Web       rentalweb.Config
	Sweeper   scansession.SweeperConfig
	LiveCache live.Config
}

// Peer is the rental process. It glues the domain services, the background
// chores and the HTTP api together.
//
// architecture: Peer
type Peer struct {
	Log *zap.Logger
	DB  DB

	Servers struct {
		Web      *rentalweb.Server
		Listener net.Listener
	}

	Category  *category.Service
	Equipment *equipment.Service
	Client    *client.Service
	Booking   *booking.Service
	Project   *project.Service
	Document  *document.Service

	ScanSession struct {
		Service *scansession.Service
		Sweeper *scansession.Sweeper
		Live    scansession.Live
	}

	config Config
}

// New creates a new rental peer.
func New(ctx context.Context, log *zap.Logger, db DB, config Config) (*Peer, error) {
	peer := &Peer{
		Log:    log,
		DB:     db,
		config: config,
	}

	{ // setup domain services
		peer.Category = category.NewService(log.Named("category"), db.CategoryStore())
		peer.Equipment = equipment.NewService(log.Named("equipment"), db.EquipmentStore(), peer.Category)
		peer.Client = client.NewService(log.Named("client"), db.ClientStore())
		peer.Booking = booking.NewService(log.Named("booking"), db.BookingStore())
		peer.Project = project.NewService(log.Named("project"), db.ProjectStore(), peer.Client, peer.Category)
		peer.Document = document.NewService(log.Named("document"), db.DocumentStore())
	}

	{ // setup scan sessions
		cache, err := live.OpenCache(ctx, log.Named("live"), config.LiveCache)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		peer.ScanSession.Live = cache
		peer.ScanSession.Service = scansession.NewService(log.Named("scansession"), db.ScanSessions(), cache)
		if config.Sweeper.Enabled {
			peer.ScanSession.Sweeper = scansession.NewSweeper(log.Named("scansession:sweeper"), db.ScanSessions(), config.Sweeper)
		}
	}

	{ // setup the http api
		listener, err := net.Listen("tcp", config.Web.Address)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		peer.Servers.Listener = listener
		peer.Servers.Web = rentalweb.NewServer(log.Named("web"), listener, db, rentalweb.Services{
			Categories:   peer.Category,
			Equipment:    peer.Equipment,
			Clients:      peer.Client,
			Bookings:     peer.Booking,
			Projects:     peer.Project,
			Documents:    peer.Document,
			ScanSessions: peer.ScanSession.Service,
		}, config.Web)
	}

	return peer, nil
}

// Run runs the rental peer until ctx is canceled.
func (peer *Peer) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return peer.Servers.Web.Run(ctx)
	})
	if peer.ScanSession.Sweeper != nil {
		group.Go(func() error {
			return peer.ScanSession.Sweeper.Run(ctx)
		})
	}

	return group.Wait()
}

// Close closes all the resources.
func (peer *Peer) Close() error {
	var group errs.Group

	if peer.ScanSession.Sweeper != nil {
		group.Add(peer.ScanSession.Sweeper.Close())
	}
	if peer.Servers.Web != nil {
		group.Add(peer.Servers.Web.Close())
	}
	if closer, ok := peer.ScanSession.Live.(interface{ Close() error }); ok {
		group.Add(closer.Close())
	}

	return Error.Wrap(group.Err())
}
