package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/scoring"
	"github.com/ecotraq/be-waste-dashboard/internal/service"
)

// Roles treated as privileged for row restriction.
var privilegedRoles = map[string]bool{
	"admin":      true,
	"supervisor": true,
}

// HTTPHandler exposes the dashboard core over HTTP.
type HTTPHandler struct {
	dashboard  *service.DashboardService
	compliance *service.ComplianceService
	weighings  *service.WeighingService
	log        zerolog.Logger
}

// NewHTTPHandler creates the HTTP handler.
func NewHTTPHandler(
	dashboard *service.DashboardService,
	compliance *service.ComplianceService,
	weighings *service.WeighingService,
	log zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		dashboard:  dashboard,
		compliance: compliance,
		weighings:  weighings,
		log:        log.With().Str("handler", "http").Logger(),
	}
}

// Routes builds the router.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/screens/{screenID}", h.LoadScreen)
		r.Get("/compliance/score", h.ComplianceScore)
		r.Get("/variance/classify", h.ClassifyVariance)
		r.Post("/weighings", h.RecordWeighing)
	})
	return r
}

// screenResponse is the wire shape of a screen load.
type screenResponse struct {
	Rows  []record.Row `json:"rows"`
	Tier  int          `json:"tier"`
	Error string       `json:"error,omitempty"`
}

// LoadScreen handles GET /api/v1/screens/{screenID}.
func (h *HTTPHandler) LoadScreen(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "screenID")
	role := roleFromRequest(r)

	result := h.dashboard.LoadScreen(r.Context(), screenID, role)

	resp := screenResponse{Rows: result.Rows, Tier: result.Tier}
	status := http.StatusOK
	if result.Err != nil {
		// Total tier exhaustion is the only user-facing error state: empty
		// rows plus a message the client turns into a retry affordance.
		resp.Error = result.Err.Error()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// ComplianceScore handles GET /api/v1/compliance/score.
func (h *HTTPHandler) ComplianceScore(w http.ResponseWriter, r *http.Request) {
	card := h.compliance.Scorecard(r.Context(), roleFromRequest(r))
	writeJSON(w, http.StatusOK, card)
}

// ClassifyVariance handles GET /api/v1/variance/classify.
func (h *HTTPHandler) ClassifyVariance(w http.ResponseWriter, r *http.Request) {
	estimated, err := strconv.ParseFloat(r.URL.Query().Get("estimated"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "estimated must be a number")
		return
	}
	measured, err := strconv.ParseFloat(r.URL.Query().Get("measured"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "measured must be a number")
		return
	}
	writeJSON(w, http.StatusOK, scoring.ClassifyVariance(estimated, measured))
}

// RecordWeighing handles POST /api/v1/weighings.
func (h *HTTPHandler) RecordWeighing(w http.ResponseWriter, r *http.Request) {
	var req service.RecordWeighingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecordedBy == "" {
		req.RecordedBy = r.Header.Get("X-User-ID")
	}

	result, err := h.weighings.RecordWeighing(r.Context(), req)
	if err != nil {
		h.log.Warn().Err(err).Msg("Weighing capture rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// roleFromRequest builds the caller's role context from the identity
// headers set by the gateway.
func roleFromRequest(r *http.Request) record.RoleContext {
	role := r.Header.Get("X-User-Role")
	return record.RoleContext{
		UserID:     r.Header.Get("X-User-ID"),
		Role:       role,
		Privileged: privilegedRoles[role],
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
