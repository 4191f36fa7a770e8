package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/goldlink/internal/goldrate/usecase/command"
	"github.com/tair/goldlink/internal/goldrate/usecase/query"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/logger"
	"github.com/tair/goldlink/pkg/metrics"
)

// GoldRateHandler serves quotes and the scheduled refresh hook
type GoldRateHandler struct {
	refreshHandler *command.RefreshRatesHandler
	latestHandler  *query.LatestRatesHandler
	metrics        *metrics.HTTPMetrics
	cronSecret     string
}

// Options carries environment-specific settings
type Options struct {
	CronSecret string
}

// NewGoldRateHandler creates a new gold rate handler
func NewGoldRateHandler(refreshHandler *command.RefreshRatesHandler, latestHandler *query.LatestRatesHandler, httpMetrics *metrics.HTTPMetrics, opts Options) *GoldRateHandler {
	return &GoldRateHandler{
		refreshHandler: refreshHandler,
		latestHandler:  latestHandler,
		metrics:        httpMetrics,
		cronSecret:     opts.CronSecret,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Latest handles GET /gold-rates
func (h *GoldRateHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rates, err := h.latestHandler.Handle(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{"rates": rates}})
}

// Refresh handles GET|POST /cron/gold-rates
func (h *GoldRateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.cronAuthorized(r) {
		h.respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Unauthorized"})
		return
	}

	rates, err := h.refreshHandler.Handle(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{"rates": rates}})
}

// cronAuthorized requires the configured secret as a Bearer token; an unset secret locks the hook
func (h *GoldRateHandler) cronAuthorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	token := auth.BearerToken(r)
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) == 1
}

func (h *GoldRateHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *GoldRateHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	h.respondJSON(w, status, Response{Success: false, Error: apperror.PublicMessage(err)})
}

// RegisterRoutes registers the gold rate routes
func (h *GoldRateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/gold-rates", h.metrics.Middleware("gold_rates", h.Latest)).Methods("GET")
	router.HandleFunc("/cron/gold-rates", h.metrics.Middleware("refresh_gold_rates", h.Refresh)).Methods("GET", "POST")
}
