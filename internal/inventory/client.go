// Package inventory is the REST client for the InvenTree inventory store.
// It exposes the minimum capability set the reconciliation pipeline needs:
// categories, parts, companies, manufacturer and supplier links, parameter
// templates and values, price breaks, attachments and currency conversion.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"partflow/internal/models"
	"partflow/internal/util"
)

// DefaultConnectTimeout bounds the initial handshake with the store.
const DefaultConnectTimeout = 5 * time.Second

// Client talks to one InvenTree server with token authentication.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	connectTimeout time.Duration
	logger         *zap.Logger
}

// Options tunes a Client beyond the required URL and token.
type Options struct {
	// ConnectTimeout bounds Connect; zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, token string, opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		httpClient:     opts.HTTPClient,
		connectTimeout: opts.ConnectTimeout,
		logger:         util.GetLogger(),
	}
}

// serverInfo is the payload of the API root.
type serverInfo struct {
	Server     string `json:"server"`
	Version    string `json:"version"`
	APIVersion int    `json:"apiVersion"`
}

// Connect verifies the server is reachable and the token is accepted.
// It is bounded by the connect timeout independent of the caller's context.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Inventory.Connect")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	var info serverInfo
	if err := c.do(ctx, http.MethodGet, "/api/", nil, nil, &info); err != nil {
		return &models.InventoryError{Step: models.StepConnectFailed, Err: err}
	}
	c.logger.Info("Connected to inventory store",
		zap.String("server", info.Server),
		zap.String("version", info.Version),
		zap.Int("api_version", info.APIVersion))
	return nil
}

// apiError is InvenTree's error envelope; fields vary per endpoint so the
// raw body is kept for the message.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("inventory store returned status %d: %s", e.Status, e.Body)
}

// do performs one JSON round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	defer func() {
		util.InventoryRequestLatency.WithLabelValues(method + " " + path).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read inventory response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode inventory response: %w", err)
	}
	return nil
}

// upload performs one multipart round trip with the given form fields and a
// single file part.
func (c *Client) upload(ctx context.Context, method, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error {
	start := time.Now()
	defer func() {
		util.InventoryRequestLatency.WithLabelValues(method + " " + path).Observe(time.Since(start).Seconds())
	}()

	var buf bytes.Buffer
	form, err := buildMultipart(&buf, fields, fileField, fileName, file)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", form)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory upload failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read inventory response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode inventory response: %w", err)
	}
	return nil
}
