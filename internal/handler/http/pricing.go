package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/service"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/httputil"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/middleware"
)

// PricingHandler serves coupon checks and currency display.
type PricingHandler struct {
	coupons  *service.CouponService
	currency *service.CurrencyService
	logger   *slog.Logger
}

func NewPricingHandler(coupons *service.CouponService, currency *service.CurrencyService, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{coupons: coupons, currency: currency, logger: logger}
}

// CurrenciesResponse lists the display currencies and the store base.
type CurrenciesResponse struct {
	Base  string                `json:"base"`
	Rates []domain.CurrencyRate `json:"rates"`
}

// ValidateCoupon handles POST /api/v1/coupons/validate
func (h *PricingHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req service.ValidateCouponInput
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	result, err := h.coupons.Validate(r.Context(), req.Code, req.OrderAmount, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// ListCurrencies handles GET /api/v1/currencies
func (h *PricingHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	rates, err := h.currency.Rates(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if rates == nil {
		rates = []domain.CurrencyRate{}
	}
	httputil.WriteData(w, http.StatusOK, CurrenciesResponse{Base: h.currency.Base(), Rates: rates})
}

// Convert handles GET /api/v1/currencies/convert?amount=&to=
func (h *PricingHandler) Convert(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("amount must be an integer in minor units"), h.logger)
		return
	}
	conv, err := h.currency.Convert(r.Context(), amount, r.URL.Query().Get("to"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, conv)
}
