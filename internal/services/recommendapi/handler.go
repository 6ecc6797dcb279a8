package recommendapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"group-order-bot/internal/catalog"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/metrics"
	"group-order-bot/internal/models"
	"group-order-bot/internal/recommend"
)

// Pinger reports backing-store health. Satisfied by database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles HTTP requests for the recommend API.
type Handler struct {
	service *Service
	db      Pinger
	metrics *metrics.Registry
	logger  *logger.Logger
}

// NewHandler creates a new recommend API handler.
func NewHandler(service *Service, db Pinger, m *metrics.Registry, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		db:      db,
		metrics: m,
		logger:  log,
	}
}

type recommendRequest struct {
	UserID         string `json:"user_id"`
	RestaurantName string `json:"restaurant_name"`
}

type recommendResponse struct {
	UserID          string             `json:"user_id"`
	Restaurant      string             `json:"restaurant"`
	Recommendations []models.ItemCount `json:"recommendations"`
	Message         string             `json:"message,omitempty"`
}

// Recommend handles POST /api/recommend requests.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	var req recommendRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	if req.UserID == "" || req.RestaurantName == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "user_id and restaurant_name are required", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	response := recommendResponse{
		UserID:     req.UserID,
		Restaurant: req.RestaurantName,
	}

	items, err := h.service.Recommend(ctx, req.UserID, req.RestaurantName)
	switch {
	case errors.Is(err, catalog.ErrRestaurantNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, "restaurant not found", requestID)
		return
	case errors.Is(err, recommend.ErrEmptyMenu):
		response.Recommendations = []models.ItemCount{}
		response.Message = fmt.Sprintf("restaurant %q has no menu", req.RestaurantName)
	case errors.Is(err, recommend.ErrNoMatchingHistory):
		response.Recommendations = []models.ItemCount{}
		response.Message = fmt.Sprintf("no order history at %q", req.RestaurantName)
	case err != nil:
		h.logger.Error("recommend_failed", "Failed to compute recommendations", requestID, err, map[string]interface{}{
			"user_id":    req.UserID,
			"restaurant": req.RestaurantName,
		})
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	default:
		response.Recommendations = items
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.db.Ping(ctx) == nil

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "recommend-api",
		"healthy":   healthy,
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response["status"] = "unhealthy"
	}

	json.NewEncoder(w).Encode(response)
}

func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

// SetupRoutes sets up the HTTP routes.
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/recommend", h.withLogging(h.Recommend))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))
	mux.Handle("/metrics", h.metrics.Handler())

	return mux
}

// withLogging adds request logging middleware.
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
