package inventory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"partflow/internal/util"
)

// PriceBreak is one quantity/price step on a supplier part.
type PriceBreak struct {
	PK           int             `json:"pk"`
	SupplierPart int             `json:"part"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"price_currency"`
}

// PriceBreaks lists the price breaks of a supplier part.
func (c *Client) PriceBreaks(ctx context.Context, supplierPartPK int) ([]PriceBreak, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.PriceBreaks")
	defer span.End()

	q := url.Values{}
	q.Set("part", strconv.Itoa(supplierPartPK))
	var breaks []PriceBreak
	if err := c.do(ctx, http.MethodGet, "/api/company/price-break/", q, nil, &breaks); err != nil {
		return nil, fmt.Errorf("failed to list price breaks of supplier part %d: %w", supplierPartPK, err)
	}
	return breaks, nil
}

// CreatePriceBreak adds a price break.
func (c *Client) CreatePriceBreak(ctx context.Context, supplierPartPK, quantity int, price decimal.Decimal, currency string) (PriceBreak, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreatePriceBreak")
	defer span.End()

	body := map[string]any{
		"part":           supplierPartPK,
		"quantity":       quantity,
		"price":          price.String(),
		"price_currency": currency,
	}
	var created PriceBreak
	if err := c.do(ctx, http.MethodPost, "/api/company/price-break/", nil, body, &created); err != nil {
		return PriceBreak{}, fmt.Errorf("failed to create price break q=%d: %w", quantity, err)
	}
	return created, nil
}

// UpdatePriceBreak overwrites the price of an existing break.
func (c *Client) UpdatePriceBreak(ctx context.Context, breakPK int, price decimal.Decimal, currency string) error {
	ctx, span := util.StartSpan(ctx, "Inventory.UpdatePriceBreak")
	defer span.End()

	body := map[string]any{"price": price.String(), "price_currency": currency}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/company/price-break/%d/", breakPK), nil, body, nil); err != nil {
		return fmt.Errorf("failed to update price break %d: %w", breakPK, err)
	}
	return nil
}

// DeletePriceBreak removes a price break.
func (c *Client) DeletePriceBreak(ctx context.Context, breakPK int) error {
	ctx, span := util.StartSpan(ctx, "Inventory.DeletePriceBreak")
	defer span.End()

	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/company/price-break/%d/", breakPK), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete price break %d: %w", breakPK, err)
	}
	return nil
}
