// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/tianji/internal/adapters/oracle"
	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/internal/domain/materials"
	"github.com/okian/tianji/pkg/logger"
)

// ReadingDependencies computes readings for validated birth input.
type ReadingDependencies interface {
	Reading(ctx context.Context, in bazi.BirthInput) (bazi.Reading, error)
}

// MaterialsDependencies looks up recommended materials.
type MaterialsDependencies interface {
	Materials(ctx context.Context, e bazi.Element) ([]materials.Material, error)
}

// ChatDependencies forwards chat messages to the oracle, remembering turns
// per conversation id.
type ChatDependencies interface {
	Converse(ctx context.Context, conversationID, message string, history []oracle.Message) (string, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ReadingDependencies
	MaterialsDependencies
	ChatDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	baziHandler      *BaziHandler
	materialsHandler *MaterialsHandler
	chatHandler      *ChatHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	log := logger.Named("api")
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		baziHandler:      NewBaziHandler(deps, log),
		materialsHandler: NewMaterialsHandler(deps),
		chatHandler:      NewChatHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /api/bazi", MetricsMiddleware(s.baziHandler.HandlePostBazi, "bazi"))
	mux.HandleFunc("GET /api/bazi", MetricsMiddleware(s.baziHandler.HandleGetBazi, "bazi"))
	mux.HandleFunc("GET /api/materials/{element}", MetricsMiddleware(s.materialsHandler.HandleGetMaterials, "materials"))
	mux.HandleFunc("POST /api/chat", MetricsMiddleware(s.chatHandler.HandlePostChat, "chat"))
	mux.HandleFunc("GET /api/chat", MetricsMiddleware(s.chatHandler.HandleChatStatus, "chat"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = publicMessage(err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// publicMessage drops the operation prefix so clients see only the cause.
func publicMessage(err error) string {
	var oe *opError
	if errors.As(err, &oe) {
		if oe.err != nil {
			return oe.err.Error()
		}
		if oe.kind != nil {
			return oe.kind.Error()
		}
	}
	return err.Error()
}
