package inventory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"partflow/internal/util"
)

// exchangeData is the server's exchange-rate table.
type exchangeData struct {
	BaseCurrency  string                     `json:"base_currency"`
	ExchangeRates map[string]decimal.Decimal `json:"exchange_rates"`
}

// BaseCurrency reports the store's configured base currency.
func (c *Client) BaseCurrency(ctx context.Context) (string, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.BaseCurrency")
	defer span.End()

	var data exchangeData
	if err := c.do(ctx, http.MethodGet, "/api/currency/exchange/", nil, nil, &data); err != nil {
		return "", fmt.Errorf("failed to read exchange data: %w", err)
	}
	return data.BaseCurrency, nil
}

// ConvertCurrency converts an amount into the store's base currency using
// the server's exchange table. Amounts already in the base currency pass
// through unchanged.
func (c *Client) ConvertCurrency(ctx context.Context, amount decimal.Decimal, from string) (decimal.Decimal, string, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.ConvertCurrency")
	defer span.End()

	var data exchangeData
	if err := c.do(ctx, http.MethodGet, "/api/currency/exchange/", nil, nil, &data); err != nil {
		return decimal.Zero, "", fmt.Errorf("failed to read exchange data: %w", err)
	}
	if from == data.BaseCurrency {
		return amount, data.BaseCurrency, nil
	}
	rate, ok := data.ExchangeRates[from]
	if !ok || rate.IsZero() {
		return decimal.Zero, "", fmt.Errorf("no exchange rate for currency %q", from)
	}
	// Rates are expressed as units of the foreign currency per base unit.
	return amount.Div(rate), data.BaseCurrency, nil
}
