package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"group-order-bot/internal/logger"
	"group-order-bot/internal/metrics"
	"group-order-bot/internal/models"
)

// Replier delivers a reply back to the chat surface. Satisfied by
// platform.Client.
type Replier interface {
	ReplyMessage(ctx context.Context, replyToken string, reply models.Reply) error
}

// Pinger reports backing-store health. Satisfied by database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles the chat platform webhook.
type Handler struct {
	service *Service
	replier Replier
	db      Pinger
	metrics *metrics.Registry
	logger  *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(service *Service, replier Replier, db Pinger, m *metrics.Registry, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		replier: replier,
		db:      db,
		metrics: m,
		logger:  log,
	}
}

// webhookEnvelope is the platform's webhook payload: a batch of events.
type webhookEnvelope struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		Type    string `json:"type"`
		GroupID string `json:"groupId"`
		UserID  string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// Callback handles POST /callback requests from the chat platform.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.Error("webhook_parse_failed", "Failed to parse webhook body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	for _, event := range envelope.Events {
		if event.Type != "message" || event.Message.Type != "text" {
			continue
		}
		h.handleEvent(r.Context(), requestID, event)
	}

	// The platform only needs acknowledgment; per-event failures have
	// already been logged and swallowed.
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (h *Handler) handleEvent(ctx context.Context, requestID string, event webhookEvent) {
	isGroup := event.Source.Type == "group"
	groupKey := event.Source.UserID
	if isGroup {
		groupKey = event.Source.GroupID
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reply := h.service.HandleCommand(ctx, groupKey, event.Source.UserID, event.Message.Text, isGroup)

	if event.ReplyToken == "" {
		return
	}
	if err := h.replier.ReplyMessage(ctx, event.ReplyToken, reply); err != nil {
		// The missing reply is the only visible symptom; acceptable
		// degraded behavior for a chat surface.
		h.metrics.ReplyFailures.Inc()
		h.logger.Error("reply_delivery_failed", "Failed to deliver reply", requestID, err, map[string]interface{}{
			"group_key": groupKey,
		})
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
		"service":   "bot-service",
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

// writeErrorResponse writes an error response in JSON format.
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

	mux.HandleFunc("/callback", h.withLogging(h.Callback))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))
	mux.Handle("/metrics", h.metrics.Handler())

	return mux
}

// withLogging adds request logging middleware.
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

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

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
