// Package download fetches part artifacts (images, datasheets) from
// supplier CDNs. Several CDNs reject unadorned requests, so a fetch walks a
// chain of increasingly browser-like attempts before giving up.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"partflow/internal/util"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"
	scraperUserAgent = "curl/8.0.1"
)

// Fetcher downloads artifacts to local files.
type Fetcher struct {
	client    *http.Client
	altClient *http.Client
	logger    *zap.Logger
}

// NewFetcher creates a fetcher with the default client pair.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		altClient: &http.Client{
			Timeout: 90 * time.Second,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
		logger: util.GetLogger(),
	}
}

// attempt describes one rung of the retry chain.
type attempt struct {
	name    string
	client  *http.Client
	headers map[string]string
}

func (f *Fetcher) attempts() []attempt {
	browserHeaders := map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.9",
	}
	return []attempt{
		{name: "bare", client: f.client},
		{name: "browser_headers", client: f.client, headers: browserHeaders},
		{name: "alternate_client", client: f.altClient, headers: browserHeaders},
		{name: "scraper", client: f.altClient, headers: map[string]string{"User-Agent": scraperUserAgent}},
	}
}

// Fetch downloads url into dest, validating that the response Content-Type
// belongs to the wantType family ("image", "application", ...). When dest
// already exists the download is skipped; datasheets rarely change.
func (f *Fetcher) Fetch(ctx context.Context, url, dest, wantType string) error {
	ctx, span := util.StartSpan(ctx, "Download.Fetch")
	defer span.End()

	if _, err := os.Stat(dest); err == nil {
		f.logger.Debug("Artifact already downloaded, skipping",
			zap.String("dest", dest))
		return nil
	}
	if url == "" {
		return fmt.Errorf("no url to download")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	var lastErr error
	for _, att := range f.attempts() {
		if err := f.tryFetch(ctx, att, url, dest, wantType); err != nil {
			lastErr = err
			f.logger.Debug("Download attempt failed",
				zap.String("attempt", att.name),
				zap.String("url", url),
				zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("all download attempts failed for %s: %w", url, lastErr)
}

func (f *Fetcher) tryFetch(ctx context.Context, att attempt, url, dest, wantType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for key, value := range att.headers {
		req.Header.Set(key, value)
	}

	resp, err := att.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if wantType != "" {
		contentType := resp.Header.Get("Content-Type")
		if !matchesFamily(contentType, wantType) {
			return fmt.Errorf("unexpected content type %q, want %s/*", contentType, wantType)
		}
	}

	// Write via a temp file so a partial body never masquerades as a
	// finished download.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// matchesFamily checks the major type of a Content-Type header, ignoring
// parameters like charset.
func matchesFamily(contentType, family string) bool {
	contentType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	major := strings.SplitN(contentType, "/", 2)[0]
	return strings.EqualFold(major, family)
}
