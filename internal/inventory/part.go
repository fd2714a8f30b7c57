package inventory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"partflow/internal/util"
)

// Part is the inventory-store part record.
type Part struct {
	PK          int    `json:"pk"`
	Name        string `json:"name"`
	IPN         string `json:"IPN"`
	Description string `json:"description"`
	Revision    string `json:"revision"`
	Keywords    string `json:"keywords"`
	Category    int    `json:"category"`
	Image       string `json:"image"`
	Active      bool   `json:"active"`
	Virtual     bool   `json:"virtual"`
}

// Part fetches one part by primary key.
func (c *Client) Part(ctx context.Context, pk int) (Part, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.Part")
	defer span.End()

	var part Part
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/part/%d/", pk), nil, nil, &part); err != nil {
		return Part{}, fmt.Errorf("failed to get part %d: %w", pk, err)
	}
	return part, nil
}

// PartsByCategory lists parts in the category and, when cascade is set, all
// of its subcategories.
func (c *Client) PartsByCategory(ctx context.Context, categoryPK int, cascade bool) ([]Part, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.PartsByCategory")
	defer span.End()

	q := url.Values{}
	q.Set("category", strconv.Itoa(categoryPK))
	q.Set("cascade", strconv.FormatBool(cascade))

	var parts []Part
	if err := c.do(ctx, http.MethodGet, "/api/part/", q, nil, &parts); err != nil {
		return nil, fmt.Errorf("failed to list parts in category %d: %w", categoryPK, err)
	}
	return parts, nil
}

// NewPart carries the fields of a shell-part creation.
type NewPart struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Revision    string `json:"revision,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	Category    int    `json:"category"`
	Virtual     bool   `json:"virtual"`
}

// CreatePart creates a shell part and returns the stored record including
// its primary key.
func (c *Client) CreatePart(ctx context.Context, part NewPart) (Part, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreatePart")
	defer span.End()

	var created Part
	if err := c.do(ctx, http.MethodPost, "/api/part/", nil, part, &created); err != nil {
		return Part{}, fmt.Errorf("failed to create part %q: %w", part.Name, err)
	}
	c.logger.Info("Created inventory part",
		zap.String("name", part.Name),
		zap.Int("pk", created.PK))
	return created, nil
}

// UpdatePart patches the given fields on a part.
func (c *Client) UpdatePart(ctx context.Context, pk int, fields map[string]any) error {
	ctx, span := util.StartSpan(ctx, "Inventory.UpdatePart")
	defer span.End()

	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/part/%d/", pk), nil, fields, nil); err != nil {
		return fmt.Errorf("failed to update part %d: %w", pk, err)
	}
	return nil
}

// SetIPN stamps the internal part number on an existing part.
func (c *Client) SetIPN(ctx context.Context, pk int, ipn string) error {
	return c.UpdatePart(ctx, pk, map[string]any{"IPN": ipn})
}

// DeletePart removes a part. InvenTree refuses to delete active parts, so
// the part is deactivated first.
func (c *Client) DeletePart(ctx context.Context, pk int) error {
	ctx, span := util.StartSpan(ctx, "Inventory.DeletePart")
	defer span.End()

	if err := c.UpdatePart(ctx, pk, map[string]any{"active": false}); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/part/%d/", pk), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete part %d: %w", pk, err)
	}
	c.logger.Info("Deleted inventory part", zap.Int("pk", pk))
	return nil
}
