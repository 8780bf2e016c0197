package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
)

// CurrencyService converts store-currency amounts for display.
type CurrencyService struct {
	rates  repository.CurrencyRepository
	cache  repository.RateCache
	base   string
	logger *slog.Logger
}

// NewCurrencyService creates a currency service. cache may be nil.
func NewCurrencyService(rates repository.CurrencyRepository, cache repository.RateCache, base string, logger *slog.Logger) *CurrencyService {
	return &CurrencyService{rates: rates, cache: cache, base: strings.ToUpper(base), logger: logger}
}

// Base is the store currency every price is stored in.
func (s *CurrencyService) Base() string { return s.base }

// Rates returns the active rate table, from cache when possible. Cache
// failures fall through to the database.
func (s *CurrencyService) Rates(ctx context.Context) ([]domain.CurrencyRate, error) {
	log := logger.WithContext(ctx, s.logger)
	if s.cache != nil {
		rates, err := s.cache.Get(ctx)
		if err == nil {
			return rates, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.WarnContext(ctx, "rate cache read failed", slog.String("error", err.Error()))
		}
	}

	rates, err := s.rates.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currency rates: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rates); err != nil {
			log.WarnContext(ctx, "rate cache write failed", slog.String("error", err.Error()))
		}
	}
	return rates, nil
}

// Convert prices amount, in base-currency minor units, in another currency.
func (s *CurrencyService) Convert(ctx context.Context, amount int64, to string) (*domain.Conversion, error) {
	to = strings.ToUpper(strings.TrimSpace(to))
	if to == "" {
		to = s.base
	}
	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}

	var rate *domain.CurrencyRate
	for i := range rates {
		if rates[i].Code == to {
			rate = &rates[i]
			break
		}
	}
	if rate == nil {
		if to != s.base {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported currency %q", to))
		}
		rate = &domain.CurrencyRate{Code: s.base, Rate: 1}
	}

	converted, err := ConvertAmount(amount, s.base, *rate)
	if err != nil {
		return nil, err
	}
	formatted, err := FormatAmount(converted, *rate)
	if err != nil {
		return nil, err
	}
	return &domain.Conversion{
		From:      s.base,
		To:        rate.Code,
		Amount:    amount,
		Converted: converted,
		Formatted: formatted,
	}, nil
}

// ConvertAmount multiplies a base minor-unit amount by rate and returns
// minor units of the target currency, rounded half away from zero.
func ConvertAmount(amount int64, base string, rate domain.CurrencyRate) (int64, error) {
	if rate.Rate <= 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("currency %s has no usable rate", rate.Code))
	}
	fromScale, err := minorDigits(base)
	if err != nil {
		return 0, err
	}
	toScale, err := minorDigits(rate.Code)
	if err != nil {
		return 0, err
	}
	major := float64(amount) / math.Pow10(fromScale) * rate.Rate
	return int64(math.Round(major * math.Pow10(toScale))), nil
}

// FormatAmount renders minor units with the currency symbol using the
// rate's locale for grouping and decimal separators.
func FormatAmount(minor int64, rate domain.CurrencyRate) (string, error) {
	scale, err := minorDigits(rate.Code)
	if err != nil {
		return "", err
	}
	tag := language.English
	if rate.Locale != "" {
		if t, err := language.Parse(rate.Locale); err == nil {
			tag = t
		}
	}
	symbol := rate.Symbol
	if symbol == "" {
		symbol = rate.Code + " "
	}

	p := message.NewPrinter(tag)
	value := float64(minor) / math.Pow10(scale)
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return sign + symbol + p.Sprint(number.Decimal(value, number.Scale(scale))), nil
}

func minorDigits(code string) (int, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("unknown currency %q", code))
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale, nil
}
