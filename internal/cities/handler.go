package cities

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/airtrack/airtrack/internal/platform/httpx"
	"github.com/airtrack/airtrack/internal/shared"
)

// Handler exposes saved-city endpoints. Routes must be mounted behind the
// bearer middleware.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers saved-city routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type cityRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized")
		return
	}
	list, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch cities")
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized")
		return
	}
	var req cityRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err, "City name is required")
		return
	}
	city, err := h.service.Add(r.Context(), identity.UserID, req.Name)
	if err != nil {
		h.fail(w, r, err, "Failed to add city")
		return
	}
	httpx.JSON(w, http.StatusCreated, city)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized")
		return
	}
	cityID, ok := parseCityID(w, r)
	if !ok {
		return
	}
	var req cityRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err, "City name is required")
		return
	}
	city, err := h.service.Update(r.Context(), identity.UserID, cityID, req.Name)
	if err != nil {
		h.fail(w, r, err, "Failed to update city")
		return
	}
	httpx.JSON(w, http.StatusOK, city)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized, "Unauthorized")
		return
	}
	cityID, ok := parseCityID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), identity.UserID, cityID); err != nil {
		h.fail(w, r, err, "Failed to remove city")
		return
	}
	httpx.Message(w, http.StatusOK, "City removed successfully")
}

// parseCityID answers 404 for ids that cannot name any saved city.
func parseCityID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound, "City not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, shared.ErrQuotaExceeded):
		httpx.RespondError(w, err, fmt.Sprintf("Limit reached: You can only monitor up to %d cities.", h.service.MaxCities()))
	case errors.Is(err, ErrUnknownUser):
		httpx.RespondError(w, err, "User not found")
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, err, "City not found")
	case errors.Is(err, shared.ErrInvalidInput):
		httpx.RespondError(w, err, httpx.ErrorMessage(err))
	case errors.Is(err, shared.ErrProviderUnavailable):
		h.logger.Warn("air quality provider", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err, fallback)
	default:
		h.logger.Error("saved cities", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err, fallback)
	}
}
