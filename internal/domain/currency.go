package domain

import "time"

// CurrencyRate is how many units of Code one unit of the base currency buys.
type CurrencyRate struct {
	Code      string    `json:"code"`
	Rate      float64   `json:"rate"`
	Symbol    string    `json:"symbol"`
	Locale    string    `json:"locale"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversion is a priced amount rendered for display.
type Conversion struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Converted int64  `json:"converted"`
	Formatted string `json:"formatted"`
}
