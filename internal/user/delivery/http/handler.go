package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/internal/user/usecase/command"
	"github.com/tair/goldlink/internal/user/usecase/query"
	"github.com/tair/goldlink/pkg/apperror"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/logger"
	"github.com/tair/goldlink/pkg/metrics"
)

// UserHandler handles HTTP requests for accounts and owner profiles
type UserHandler struct {
	// Command handlers
	registerHandler       *command.RegisterUserHandler
	loginHandler          *command.LoginUserHandler
	changePasswordHandler *command.ChangePasswordHandler
	updateProfileHandler  *command.UpdateProfileHandler

	// Query handlers
	profileHandler    *query.GetProfileHandler
	listOwnersHandler *query.ListOwnersHandler

	sessions     *auth.SessionManager
	metrics      *metrics.HTTPMetrics
	secureCookie bool
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	registerHandler *command.RegisterUserHandler,
	loginHandler *command.LoginUserHandler,
	changePasswordHandler *command.ChangePasswordHandler,
	updateProfileHandler *command.UpdateProfileHandler,
	profileHandler *query.GetProfileHandler,
	listOwnersHandler *query.ListOwnersHandler,
	sessions *auth.SessionManager,
	httpMetrics *metrics.HTTPMetrics,
	opts Options,
) *UserHandler {
	return &UserHandler{
		registerHandler:       registerHandler,
		loginHandler:          loginHandler,
		changePasswordHandler: changePasswordHandler,
		updateProfileHandler:  updateProfileHandler,
		profileHandler:        profileHandler,
		listOwnersHandler:     listOwnersHandler,
		sessions:              sessions,
		metrics:               httpMetrics,
		secureCookie:          opts.SecureCookie,
	}
}

// Options tunes cookie behaviour per environment
type Options struct {
	SecureCookie bool
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Register handles POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	user, err := h.registerHandler.Handle(r.Context(), command.RegisterUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Registered successfully",
		Data:    user,
	})
}

// Login handles POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	resp, err := h.loginHandler.Handle(r.Context(), command.LoginUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.sessions.SetSessionCookie(w, resp.Token, h.secureCookie)
	h.respondJSON(w, http.StatusOK, Response{Success: true, Data: resp})
}

// Logout handles POST /auth/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	h.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out"})
}

// ChangePassword handles POST /auth/change-password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	err := h.changePasswordHandler.Handle(r.Context(), command.ChangePasswordCommand{
		UserID:          claims.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Password updated"})
}

// ListOwners handles GET /users/owners
func (h *UserHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.listOwnersHandler.Handle(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"owners": owners,
			"total":  len(owners),
		},
	})
}

// GetProfile handles GET /owner/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	user, err := h.profileHandler.Handle(r.Context(), query.GetProfileQuery{UserID: claims.UserID})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, Response{Success: true, Data: user})
}

// UpdateProfile handles PUT /owner/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Name           string `json:"name"`
		Phone          string `json:"phone"`
		CompanyName    string `json:"companyName"`
		CompanyAddress string `json:"companyAddress"`
		CompanyRanks   string `json:"companyRanks"`
		Quality        string `json:"quality"`
		Achievements   string `json:"achievements"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	user, err := h.updateProfileHandler.Handle(r.Context(), command.UpdateProfileCommand{
		UserID:         claims.UserID,
		Name:           req.Name,
		Phone:          req.Phone,
		CompanyName:    req.CompanyName,
		CompanyAddress: req.CompanyAddress,
		CompanyRanks:   req.CompanyRanks,
		Quality:        req.Quality,
		Achievements:   req.Achievements,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Profile updated", Data: user})
}

func (h *UserHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *UserHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	h.respondJSON(w, status, Response{Success: false, Error: apperror.PublicMessage(err)})
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	customer := h.sessions.RequireRole(string(domain.RoleCustomer))
	owner := h.sessions.RequireRole(string(domain.RoleOwner))

	// Public routes
	router.HandleFunc("/auth/register", h.metrics.Middleware("register", h.Register)).Methods("POST")
	router.HandleFunc("/auth/login", h.metrics.Middleware("login", h.Login)).Methods("POST")
	router.HandleFunc("/auth/logout", h.metrics.Middleware("logout", h.Logout)).Methods("POST")

	// Authenticated routes
	router.HandleFunc("/auth/change-password", h.metrics.Middleware("change_password", h.sessions.Middleware(h.ChangePassword))).Methods("POST")
	router.HandleFunc("/users/owners", h.metrics.Middleware("list_owners", customer(h.ListOwners))).Methods("GET")
	router.HandleFunc("/owner/profile", h.metrics.Middleware("get_profile", owner(h.GetProfile))).Methods("GET")
	router.HandleFunc("/owner/profile", h.metrics.Middleware("update_profile", owner(h.UpdateProfile))).Methods("PUT")
}
