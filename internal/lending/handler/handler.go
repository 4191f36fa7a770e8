package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/internal/lending/usecase/command"
	"github.com/tair/goldlink/internal/lending/usecase/query"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/logger"
	"github.com/tair/goldlink/pkg/metrics"
)

// LendingHandler handles HTTP requests for applications, settlements and payments
type LendingHandler struct {
	// Command handlers
	submitHandler  *command.SubmitApplicationHandler
	approveHandler *command.ApproveApplicationHandler
	rejectHandler  *command.RejectApplicationHandler
	payHandler     *command.InitiatePaymentHandler
	confirmHandler *command.ConfirmPaymentHandler
	closeHandler   *command.CloseSettlementHandler

	// Query handlers
	listApplicationsHandler *query.ListApplicationsHandler
	listSettlementsHandler  *query.ListSettlementsHandler
	getSettlementHandler    *query.GetSettlementHandler

	sessions      *auth.SessionManager
	httpMetrics   *metrics.HTTPMetrics
	metrics       *LendingMetrics
	webhookSecret string
}

// Options carries environment-specific settings
type Options struct {
	WebhookSecret string
}

// NewLendingHandler creates a new lending handler
func NewLendingHandler(
	submitHandler *command.SubmitApplicationHandler,
	approveHandler *command.ApproveApplicationHandler,
	rejectHandler *command.RejectApplicationHandler,
	payHandler *command.InitiatePaymentHandler,
	confirmHandler *command.ConfirmPaymentHandler,
	closeHandler *command.CloseSettlementHandler,
	listApplicationsHandler *query.ListApplicationsHandler,
	listSettlementsHandler *query.ListSettlementsHandler,
	getSettlementHandler *query.GetSettlementHandler,
	sessions *auth.SessionManager,
	httpMetrics *metrics.HTTPMetrics,
	lendingMetrics *LendingMetrics,
	opts Options,
) *LendingHandler {
	return &LendingHandler{
		submitHandler:           submitHandler,
		approveHandler:          approveHandler,
		rejectHandler:           rejectHandler,
		payHandler:              payHandler,
		confirmHandler:          confirmHandler,
		closeHandler:            closeHandler,
		listApplicationsHandler: listApplicationsHandler,
		listSettlementsHandler:  listSettlementsHandler,
		getSettlementHandler:    getSettlementHandler,
		sessions:                sessions,
		httpMetrics:             httpMetrics,
		metrics:                 lendingMetrics,
		webhookSecret:           opts.WebhookSecret,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitApplication handles POST /applications
func (h *LendingHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		OwnerID     string   `json:"ownerId"`
		Grade       string   `json:"grade"`
		WeightGrams float64  `json:"weightGrams"`
		Photos      []string `json:"photos"`
		Notes       string   `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	app, err := h.submitHandler.Handle(r.Context(), command.SubmitApplicationCommand{
		CustomerID:  claims.UserID,
		OwnerID:     req.OwnerID,
		Karat:       domain.Karat(req.Grade),
		WeightGrams: req.WeightGrams,
		Photos:      req.Photos,
		Notes:       req.Notes,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Application submitted",
		Data:    map[string]interface{}{"application": app},
	})
}

// ListApplications handles GET /applications
func (h *LendingHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	apps, err := h.listApplicationsHandler.Handle(r.Context(), query.ListApplicationsQuery{
		UserID: claims.UserID,
		Role:   userdomain.Role(claims.Role),
		Status: domain.ApplicationStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"applications": apps,
			"total":        len(apps),
		},
	})
}

// ApproveApplication handles POST /applications/{id}/approve
func (h *LendingHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		PrincipalAmount decimal.Decimal `json:"principalAmount"`
		MonthlyRatePct  decimal.Decimal `json:"monthlyRatePct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	result, err := h.approveHandler.Handle(r.Context(), command.ApproveApplicationCommand{
		ApplicationID:   mux.Vars(r)["id"],
		ActingOwnerID:   claims.UserID,
		PrincipalAmount: req.PrincipalAmount,
		MonthlyRatePct:  req.MonthlyRatePct,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.metrics.decided("approved")
	h.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Application approved", Data: result})
}

// RejectApplication handles POST /applications/{id}/reject
func (h *LendingHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Reason string `json:"reason"`
	}
	// the body is optional
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
			return
		}
	}

	app, err := h.rejectHandler.Handle(r.Context(), command.RejectApplicationCommand{
		ApplicationID: mux.Vars(r)["id"],
		ActingOwnerID: claims.UserID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.metrics.decided("rejected")
	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Application rejected",
		Data:    map[string]interface{}{"application": app},
	})
}

// ListSettlements handles GET /settlements
func (h *LendingHandler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	views, err := h.listSettlementsHandler.Handle(r.Context(), query.ListSettlementsQuery{
		UserID: claims.UserID,
		Role:   userdomain.Role(claims.Role),
		Status: domain.SettlementStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"settlements": views,
			"total":       len(views),
		},
	})
}

// GetSettlement handles GET /settlements/{id}
func (h *LendingHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	view, err := h.getSettlementHandler.Handle(r.Context(), query.GetSettlementQuery{
		SettlementID: mux.Vars(r)["id"],
		UserID:       claims.UserID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, Response{Success: true, Data: view})
}

// PaySettlement handles POST /settlements/{id}/pay
func (h *LendingHandler) PaySettlement(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	gatewayLabel := string(domain.GatewayRazorpay)
	if h.payHandler.MockMode() {
		gatewayLabel = string(domain.GatewayMock)
	}

	intent, err := h.payHandler.Handle(r.Context(), command.InitiatePaymentCommand{
		SettlementID:     mux.Vars(r)["id"],
		ActingCustomerID: claims.UserID,
	})
	if err != nil {
		h.metrics.payment(gatewayLabel, string(apperror.KindOf(err)))
		h.respondError(w, r, err)
		return
	}

	outcome := "order_created"
	message := "Payment order created"
	if intent.Mode == command.ModeMock {
		outcome = "succeeded"
		message = "Payment recorded"
	}
	h.metrics.payment(gatewayLabel, outcome)
	h.respondJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: intent})
}

// CloseSettlement handles POST /settlements/{id}/close
func (h *LendingHandler) CloseSettlement(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	settlement, err := h.closeHandler.Handle(r.Context(), command.CloseSettlementCommand{
		SettlementID:  mux.Vars(r)["id"],
		ActingOwnerID: claims.UserID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Settlement closed", Data: settlement})
}

func (h *LendingHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *LendingHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	h.respondJSON(w, status, Response{Success: false, Error: apperror.PublicMessage(err)})
}

// RegisterRoutes registers all lending routes
func (h *LendingHandler) RegisterRoutes(router *mux.Router) {
	customer := h.sessions.RequireRole(string(userdomain.RoleCustomer))
	owner := h.sessions.RequireRole(string(userdomain.RoleOwner))
	anyone := h.sessions.Middleware

	// Gateway callback, authenticated by signature only
	router.HandleFunc("/payments/webhook", h.httpMetrics.Middleware("payment_webhook", h.Webhook)).Methods("POST")

	// Applications
	router.HandleFunc("/applications", h.httpMetrics.Middleware("submit_application", customer(h.SubmitApplication))).Methods("POST")
	router.HandleFunc("/applications", h.httpMetrics.Middleware("list_applications", anyone(h.ListApplications))).Methods("GET")
	router.HandleFunc("/applications/{id}/approve", h.httpMetrics.Middleware("approve_application", owner(h.ApproveApplication))).Methods("POST")
	router.HandleFunc("/applications/{id}/reject", h.httpMetrics.Middleware("reject_application", owner(h.RejectApplication))).Methods("POST")

	// Settlements
	router.HandleFunc("/settlements", h.httpMetrics.Middleware("list_settlements", anyone(h.ListSettlements))).Methods("GET")
	router.HandleFunc("/settlements/{id}", h.httpMetrics.Middleware("get_settlement", anyone(h.GetSettlement))).Methods("GET")
	router.HandleFunc("/settlements/{id}/pay", h.httpMetrics.Middleware("pay_settlement", customer(h.PaySettlement))).Methods("POST")
	router.HandleFunc("/settlements/{id}/close", h.httpMetrics.Middleware("close_settlement", owner(h.CloseSettlement))).Methods("POST")
}
