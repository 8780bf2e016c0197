package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/pagination"
)

const defaultSSEHeartbeat = 15 * time.Second

// OrderHandler serves a user's orders and their live status stream.
type OrderHandler struct {
	service   *service.OrderService
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, heartbeat time.Duration, logger *slog.Logger) *OrderHandler {
	if heartbeat <= 0 {
		heartbeat = defaultSSEHeartbeat
	}
	return &OrderHandler{service: svc, heartbeat: heartbeat, logger: logger}
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// Cancel handles POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	order, err := h.service.Cancel(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// Events handles GET /api/v1/orders/{id}/events as a Server-Sent Events
// stream. The first event is the current status; each later status change
// follows as it happens. The stream ends once the order reaches a terminal
// status or the client goes away.
func (h *OrderHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	ctx := r.Context()
	order, changes, cancel, err := h.service.Subscribe(ctx, middleware.UserIDFromContext(ctx), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer cancel()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := logger.FromContext(ctx)
	send := func(name string, v any) bool {
		data, err := json.Marshal(v)
		if err != nil {
			log.ErrorContext(ctx, "encode order event", slog.String("error", err.Error()))
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	current := domain.OrderStatusChange{
		OrderID:        order.ID,
		UserID:         order.UserID,
		To:             order.Status,
		TrackingNumber: order.TrackingNumber,
		ChangedAt:      order.UpdatedAt,
	}
	if !send("status", current) || order.Status.Terminal() {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil || rc.Flush() != nil {
				return
			}
		case change, ok := <-changes:
			if !ok {
				return
			}
			if !send("status", change) || change.To.Terminal() {
				return
			}
		}
	}
}
