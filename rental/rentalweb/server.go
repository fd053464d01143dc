// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package rentalweb implements the HTTP server exposing the rental api.
package rentalweb

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/document"
	"cinerent.io/cinerent/rental/equipment"
	"cinerent.io/cinerent/rental/project"
	"cinerent.io/cinerent/rental/rentalweb/rentalapi"
	"cinerent.io/cinerent/rental/scansession"
)

// Error is the default rentalweb errs class.
var Error = errs.Class("rentalweb")

// Config defines configuration for the rental HTTP server.
type Config struct {
	Address     string   `help:"rental api http listening address" default:":8080"`
	CORSOrigins []string `help:"origins allowed to call the api from a browser"`
}

// Services bundles everything the api surfaces.
type Services struct {
	Categories   *category.Service
	Equipment    *equipment.Service
	Clients      *client.Service
	Bookings     *booking.Service
	Projects     *project.Service
	Documents    *document.Service
	ScanSessions *scansession.Service
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the rental api over HTTP.
type Server struct {
	log *zap.Logger

	listener net.Listener
	server   http.Server

	db     Pinger
	config Config
}

// NewServer creates a new rental api server.
func NewServer(log *zap.Logger, listener net.Listener, db Pinger, services Services, config Config) *Server {
	server := &Server{
		log:      log,
		listener: listener,
		db:       db,
		config:   config,
	}

	categories := rentalapi.NewCategories(log.Named("api:categories"), services.Categories)
	equipmentAPI := rentalapi.NewEquipment(log.Named("api:equipment"), services.Equipment, services.Bookings)
	clients := rentalapi.NewClients(log.Named("api:clients"), services.Clients)
	bookings := rentalapi.NewBookings(log.Named("api:bookings"), services.Bookings)
	projects := rentalapi.NewProjects(log.Named("api:projects"), services.Projects)
	documents := rentalapi.NewDocuments(log.Named("api:documents"), services.Documents)
	sessions := rentalapi.NewScanSessions(log.Named("api:scan-sessions"), services.ScanSessions)

	root := mux.NewRouter()
	root.Use(server.withCORS)
	root.HandleFunc("/health", server.health).Methods(http.MethodGet)

	api := root.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/categories", categories.List).Methods(http.MethodGet)
	api.HandleFunc("/categories", categories.Create).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", categories.Get).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", categories.Update).Methods(http.MethodPatch)
	api.HandleFunc("/categories/{id}", categories.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/categories/{id}/children", categories.Children).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}/path", categories.Path).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}/print-hierarchy", categories.PrintHierarchy).Methods(http.MethodGet)

	api.HandleFunc("/equipment", equipmentAPI.List).Methods(http.MethodGet)
	api.HandleFunc("/equipment", equipmentAPI.Create).Methods(http.MethodPost)
	api.HandleFunc("/equipment/barcode/{barcode}", equipmentAPI.GetByBarcode).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}", equipmentAPI.Get).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}", equipmentAPI.Update).Methods(http.MethodPatch)
	api.HandleFunc("/equipment/{id}", equipmentAPI.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/equipment/{id}/status", equipmentAPI.SetStatus).Methods(http.MethodPut)
	api.HandleFunc("/equipment/{id}/regenerate-barcode", equipmentAPI.RegenerateBarcode).Methods(http.MethodPost)
	api.HandleFunc("/equipment/{id}/availability", equipmentAPI.Availability).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/bookings", equipmentAPI.Bookings).Methods(http.MethodGet)

	api.HandleFunc("/clients", clients.List).Methods(http.MethodGet)
	api.HandleFunc("/clients", clients.Create).Methods(http.MethodPost)
	api.HandleFunc("/clients/{id}", clients.Get).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", clients.Update).Methods(http.MethodPatch)
	api.HandleFunc("/clients/{id}", clients.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/bookings", bookings.List).Methods(http.MethodGet)
	api.HandleFunc("/bookings", bookings.Create).Methods(http.MethodPost)
	api.HandleFunc("/bookings/batch", bookings.CreateBatch).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", bookings.Get).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", bookings.Update).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{id}", bookings.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/bookings/{id}/status", bookings.SetStatus).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{id}/payment", bookings.SetPaymentStatus).Methods(http.MethodPatch)

	api.HandleFunc("/projects", projects.List).Methods(http.MethodGet)
	api.HandleFunc("/projects", projects.Create).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", projects.Get).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", projects.Update).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}", projects.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/bookings", projects.Bookings).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/bookings/{bookingID}", projects.AddBooking).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/bookings/{bookingID}", projects.RemoveBooking).Methods(http.MethodDelete)

	api.HandleFunc("/documents", documents.List).Methods(http.MethodGet)
	api.HandleFunc("/documents", documents.Create).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", documents.Get).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", documents.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/status", documents.SetStatus).Methods(http.MethodPut)

	api.HandleFunc("/scan-sessions", sessions.List).Methods(http.MethodGet)
	api.HandleFunc("/scan-sessions", sessions.Create).Methods(http.MethodPost)
	api.HandleFunc("/scan-sessions/{id}", sessions.Get).Methods(http.MethodGet)
	api.HandleFunc("/scan-sessions/{id}", sessions.Rename).Methods(http.MethodPatch)
	api.HandleFunc("/scan-sessions/{id}", sessions.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/scan-sessions/{id}/items", sessions.ReplaceItems).Methods(http.MethodPut)

	server.server.Handler = root
	return server
}

// Run starts the rental api endpoint and blocks until ctx is canceled.
func (server *Server) Run(ctx context.Context) error {
	if server.listener == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	var group errgroup.Group
	group.Go(func() error {
		<-ctx.Done()
		return Error.Wrap(server.server.Shutdown(context.Background()))
	})
	group.Go(func() error {
		defer cancel()
		err := server.server.Serve(server.listener)
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
			err = nil
		}
		return Error.Wrap(err)
	})
	return group.Wait()
}

// Close closes the server and the underlying listener.
func (server *Server) Close() error {
	return Error.Wrap(server.server.Close())
}

// TestHandler exposes the router, for tests.
func (server *Server) TestHandler() http.Handler {
	return server.server.Handler
}

func (server *Server) health(w http.ResponseWriter, r *http.Request) {
	if server.db != nil {
		if err := server.db.Ping(r.Context()); err != nil {
			server.log.Error("health check failed", zap.Error(err))
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// withCORS answers preflight requests and stamps the allowed origin headers
// on responses to configured origins.
func (server *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && server.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (server *Server) originAllowed(origin string) bool {
	for _, allowed := range server.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
