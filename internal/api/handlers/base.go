// Package handlers implements the REST API endpoint handlers for TrieDNS.
//
// REST API Endpoints:
//
// System Health:
//   - GET /api/v1/health - Health check status
//   - GET /api/v1/stats - Server statistics (uptime, memory, process, DNS counters)
//   - GET /api/v1/config - Current configuration (sensitive values redacted)
//
// Zone (Authoritative Store):
//   - GET /api/v1/zone - All records held by the store
//   - GET /api/v1/zone/tree - The store rendered as a label tree
//   - GET /api/v1/zone/lookup?name=&type= - One store lookup, as the resolver performs it
//
// Authentication:
//
// All /api/v1 endpoints support optional API key authentication via the
// X-API-Key header. /metrics and /swagger are served without it.
//
// Security Considerations:
//
// - API is bound to localhost:8080 by default (not exposed to network)
// - The API is read-only; the zone is changed with `triedns zone import`
//
// @title TrieDNS Management API
// @version 1.0
// @description Read-only REST API for inspecting a running TrieDNS server.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"time"

	"github.com/jroosing/triedns/internal/config"
	"github.com/jroosing/triedns/internal/database"
	"github.com/jroosing/triedns/internal/helpers"
	"github.com/jroosing/triedns/internal/server"
	"github.com/jroosing/triedns/internal/zone"
)

// Deps are the runtime components the handlers read from. Any may be nil.
type Deps struct {
	Store *zone.Store
	Stats *server.Stats
	DB    *database.DB
}

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	deps      Deps
	logger    *slog.Logger
	startTime time.Time
}

// New creates a new Handler.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		startTime: time.Now(),
	}
}

// zoneTTL is the TTL the resolver puts on records from the store.
func (h *Handler) zoneTTL() int32 {
	if h.cfg == nil {
		return 0
	}
	return helpers.ClampIntToInt32(h.cfg.Zone.TTL)
}
