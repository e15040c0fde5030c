package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airtrack/airtrack/internal/platform/httpx"
	"github.com/airtrack/airtrack/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	middleware Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, middleware Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, middleware: middleware}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.With(h.middleware.RequireBearer).Get("/me", h.me)
}

// MountProfileRoutes registers profile routes. The router must already
// require a bearer token.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Put("/profile", h.updateProfile)
}

type signupRequest struct {
	FullName string `json:"fullName" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	CityName string `json:"cityName" validate:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type profileRequest struct {
	FullName string `json:"fullName" validate:"max=200"`
	Password string `json:"password" validate:"max=72"`
	CityName string `json:"cityName" validate:"max=120"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err, httpx.ErrorMessage(err))
		return
	}
	user, err := h.service.Signup(r.Context(), SignupInput(req))
	switch {
	case err == nil:
		h.logger.Info("user signed up", slog.String("user_id", user.ID.String()))
		httpx.Message(w, http.StatusCreated, "User created successfully")
	case errors.Is(err, shared.ErrConflict):
		httpx.RespondError(w, err, "Email already registered")
	case errors.Is(err, shared.ErrInvalidInput):
		httpx.RespondError(w, err, httpx.ErrorMessage(err))
	default:
		h.logger.Error("signup", slog.Any("error", err))
		httpx.RespondError(w, err, "Signup failed. Please check all fields.")
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Bind(r, &req); err != nil {
		// Malformed credentials get the same answer as wrong ones.
		httpx.RespondError(w, shared.ErrUnauthorized, "Invalid email or password")
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, result)
	case errors.Is(err, shared.ErrUnauthorized):
		httpx.RespondError(w, err, "Invalid email or password")
	default:
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err, "Login failed")
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized")
		return
	}
	user, err := h.service.Me(r.Context(), identity.UserID)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, user)
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, err, "User not found")
	default:
		h.logger.Error("load current user", slog.String("user_id", identity.UserID.String()), slog.Any("error", err))
		httpx.RespondError(w, err, "")
	}
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized")
		return
	}
	var req profileRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err, httpx.ErrorMessage(err))
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), identity.UserID, ProfileInput(req))
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, user)
	case errors.Is(err, shared.ErrInvalidInput):
		httpx.RespondError(w, err, httpx.ErrorMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, err, "User not found")
	default:
		h.logger.Error("update profile", slog.String("user_id", identity.UserID.String()), slog.Any("error", err))
		httpx.RespondError(w, err, "Update failed")
	}
}
