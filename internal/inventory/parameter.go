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

// ParameterTemplate is a store-wide parameter definition.
type ParameterTemplate struct {
	PK    int    `json:"pk"`
	Name  string `json:"name"`
	Units string `json:"units"`
}

// ParameterTemplates lists all parameter templates.
func (c *Client) ParameterTemplates(ctx context.Context) ([]ParameterTemplate, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.ParameterTemplates")
	defer span.End()

	var templates []ParameterTemplate
	if err := c.do(ctx, http.MethodGet, "/api/part/parameter/template/", nil, nil, &templates); err != nil {
		return nil, fmt.Errorf("failed to list parameter templates: %w", err)
	}
	return templates, nil
}

// CreateParameterTemplate creates a template. Template names are unique in
// the store; creation of an existing name fails server-side.
func (c *Client) CreateParameterTemplate(ctx context.Context, name, units string) (ParameterTemplate, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreateParameterTemplate")
	defer span.End()

	body := map[string]any{"name": name, "units": units}
	var created ParameterTemplate
	if err := c.do(ctx, http.MethodPost, "/api/part/parameter/template/", nil, body, &created); err != nil {
		return ParameterTemplate{}, fmt.Errorf("failed to create parameter template %q: %w", name, err)
	}
	c.logger.Info("Created parameter template",
		zap.String("name", name),
		zap.Int("pk", created.PK))
	return created, nil
}

// PartParameter is one stored parameter value on a part.
type PartParameter struct {
	PK       int    `json:"pk"`
	Part     int    `json:"part"`
	Template int    `json:"template"`
	Data     string `json:"data"`
}

// PartParameters lists the stored parameters of a part.
func (c *Client) PartParameters(ctx context.Context, partPK int) ([]PartParameter, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.PartParameters")
	defer span.End()

	q := url.Values{}
	q.Set("part", strconv.Itoa(partPK))
	var parameters []PartParameter
	if err := c.do(ctx, http.MethodGet, "/api/part/parameter/", q, nil, &parameters); err != nil {
		return nil, fmt.Errorf("failed to list parameters of part %d: %w", partPK, err)
	}
	return parameters, nil
}

// CreatePartParameter stores a value for a template on a part.
func (c *Client) CreatePartParameter(ctx context.Context, partPK, templatePK int, value string) (PartParameter, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreatePartParameter")
	defer span.End()

	body := map[string]any{"part": partPK, "template": templatePK, "data": value}
	var created PartParameter
	if err := c.do(ctx, http.MethodPost, "/api/part/parameter/", nil, body, &created); err != nil {
		return PartParameter{}, fmt.Errorf("failed to create parameter on part %d: %w", partPK, err)
	}
	return created, nil
}

// UpdatePartParameter overwrites the stored value of a parameter.
func (c *Client) UpdatePartParameter(ctx context.Context, parameterPK int, value string) error {
	ctx, span := util.StartSpan(ctx, "Inventory.UpdatePartParameter")
	defer span.End()

	body := map[string]any{"data": value}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/part/parameter/%d/", parameterPK), nil, body, nil); err != nil {
		return fmt.Errorf("failed to update parameter %d: %w", parameterPK, err)
	}
	return nil
}
