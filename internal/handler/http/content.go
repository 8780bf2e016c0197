package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/pagination"
)

// ContentHandler serves the blog, the contact form and custom order
// requests.
type ContentHandler struct {
	service *service.ContentService
	logger  *slog.Logger
}

func NewContentHandler(svc *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{service: svc, logger: logger}
}

// ListPosts handles GET /api/v1/blog
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListPosts(r.Context(), r.URL.Query().Get("tag"), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// GetPost handles GET /api/v1/blog/{slug}
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, post)
}

// CreateSupportMessage handles POST /api/v1/support/messages
func (h *ContentHandler) CreateSupportMessage(w http.ResponseWriter, r *http.Request) {
	var req service.SupportMessageInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	msg, err := h.service.CreateSupportMessage(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, msg)
}

// CreateCustomOrder handles POST /api/v1/custom-orders
func (h *ContentHandler) CreateCustomOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CustomOrderInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	co, err := h.service.RequestCustomOrder(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, co)
}

// ListCustomOrders handles GET /api/v1/custom-orders
func (h *ContentHandler) ListCustomOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListCustomOrders(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if orders == nil {
		orders = []domain.CustomOrder{}
	}
	httputil.WriteData(w, http.StatusOK, orders)
}
