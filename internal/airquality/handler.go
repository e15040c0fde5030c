package airquality

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/airtrack/airtrack/internal/platform/httpx"
	"github.com/airtrack/airtrack/internal/shared"
)

// Handler serves the public AQI endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers AQI routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.byCoordinates)
	r.Get("/by-city", h.byCity)
}

type coordinatesQuery struct {
	Lat string `json:"lat" validate:"required,latitude"`
	Lon string `json:"lon" validate:"required,longitude"`
}

type cityQuery struct {
	City string `json:"city" validate:"required,max=120"`
}

func (h *Handler) byCoordinates(w http.ResponseWriter, r *http.Request) {
	q := coordinatesQuery{Lat: r.URL.Query().Get("lat"), Lon: r.URL.Query().Get("lon")}
	if err := httpx.Validate(q); err != nil {
		httpx.RespondError(w, err, "Missing coords")
		return
	}
	lat, _ := strconv.ParseFloat(q.Lat, 64)
	lon, _ := strconv.ParseFloat(q.Lon, 64)

	aqi, err := h.service.AQIAt(r.Context(), lat, lon)
	if err != nil {
		h.logger.Error("aqi by coordinates", slog.Float64("lat", lat), slog.Float64("lon", lon), slog.Any("error", err))
		httpx.RespondError(w, err, "AQI Service Down")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"aqi": aqi})
}

func (h *Handler) byCity(w http.ResponseWriter, r *http.Request) {
	q := cityQuery{City: r.URL.Query().Get("city")}
	if err := httpx.Validate(q); err != nil {
		httpx.RespondError(w, err, httpx.ErrorMessage(err))
		return
	}
	result, err := h.service.AQIForCity(r.Context(), q.City)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, result)
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, err, "City not found")
	default:
		h.logger.Error("aqi by city", slog.String("city", q.City), slog.Any("error", err))
		httpx.RespondError(w, err, "Search failed")
	}
}
