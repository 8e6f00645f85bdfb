// Package api exposes the forecast engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"agriprice-lab/internal/domain"
	"agriprice-lab/internal/engine"
	"agriprice-lab/internal/feature"
	"agriprice-lab/internal/forecast"
	"agriprice-lab/internal/history"
	"agriprice-lab/internal/scorer"
	"agriprice-lab/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	products storage.ProductStore
	prices   storage.MarketPriceStore
	spec     *feature.Spec
}

// NewHandler creates a new Handler.
func NewHandler(eng *engine.Engine, products storage.ProductStore, prices storage.MarketPriceStore, spec *feature.Spec) *Handler {
	return &Handler{
		engine:   eng,
		products: products,
		prices:   prices,
		spec:     spec,
	}
}

// maxForecastDays caps the horizon a single request may ask for.
const maxForecastDays = 30

type predictRequest struct {
	Product string `json:"product"`
	City    string `json:"city"`
	Days    int    `json:"days"`
}

type predictResponse struct {
	Success      bool            `json:"success"`
	Product      string          `json:"product"`
	City         string          `json:"city"`
	ModelVersion string          `json:"model_version"`
	Predictions  []forecastPoint `json:"predictions"`
}

type forecastPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Predict handles POST /api/predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Product == "" || req.City == "" {
		respondError(w, http.StatusBadRequest, "product and city are required")
		return
	}
	if req.Days < 0 || req.Days > maxForecastDays {
		respondError(w, http.StatusBadRequest, "days must be between 1 and 30")
		return
	}
	if req.Days == 0 {
		req.Days = forecast.DefaultDays
	}

	result, err := h.engine.Predict(r.Context(), req.Product, req.City, req.Days)
	if err != nil && !errors.Is(err, engine.ErrPersistence) {
		status, msg := mapForecastError(err)
		respondError(w, status, msg)
		return
	}
	if err != nil {
		// Persistence failed but the forecast itself is good. Serve it.
		log.Printf("[api] %v", err)
	}

	points := make([]forecastPoint, 0, len(result.Points))
	for _, p := range result.Points {
		points = append(points, forecastPoint{
			Date:  p.Date.Format(domain.DateLayout),
			Price: p.Price,
		})
	}

	respondJSON(w, http.StatusOK, predictResponse{
		Success:      true,
		Product:      result.ProductName,
		City:         result.City,
		ModelVersion: result.ModelVersion,
		Predictions:  points,
	})
}

// GetProducts handles GET /api/products.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "products": names})
}

// GetCities handles GET /api/cities.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.prices.Cities(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load cities")
		return
	}
	if cities == nil {
		cities = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "cities": cities})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Status handles GET /status: the active feature layout and model version.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"model_version": h.spec.ModelVersion,
		"feature_dim":   h.spec.Dim(),
		"products":      len(h.spec.ProductCategories),
		"cities":        len(h.spec.CityCategories),
	})
}

// mapForecastError translates engine errors to HTTP status codes.
func mapForecastError(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "unknown product"
	case errors.Is(err, history.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity, "not enough price history for this product and city"
	case errors.Is(err, forecast.ErrInvalidDays):
		return http.StatusBadRequest, "invalid forecast horizon"
	case errors.Is(err, feature.ErrSchemaMismatch):
		return http.StatusInternalServerError, "feature layout does not match the model"
	case errors.Is(err, scorer.ErrScorerFailure):
		return http.StatusBadGateway, "scoring failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Success: false, Error: msg})
}
