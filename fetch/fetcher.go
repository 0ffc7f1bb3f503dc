// Package fetch downloads web pages the way a desktop browser would ask for them
// and turns markup into plain text.
package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
)

const (
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/78.0.3904.87 Safari/537.36"
	Accept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9"
)

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "fetcher"),
	}
}

// Open sends a GET with the fixed browser headers. The caller owns the response
// body. Any status is returned as is.
func (f *Fetcher) Open(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", Accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	f.logger.Debug("Opened URL", "url", url, "status", resp.StatusCode)
	return resp, nil
}

// HTML returns the page markup decoded to UTF-8, with line breaks dropped.
func (f *Fetcher) HTML(ctx context.Context, url string) (string, error) {
	resp, err := f.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := decodeBody(resp.Header.Get("Content-Type"), resp.Body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		sb.WriteString(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return sb.String(), nil
}

// decodeBody converts the body to UTF-8 when the content type names a charset.
func decodeBody(contentType string, body io.Reader) (io.Reader, error) {
	if contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	label := strings.ToLower(params["charset"])
	if label == "" || label == "utf-8" || label == "utf8" || label == "us-ascii" {
		return body, nil
	}
	r, err := charset.Reader(label, body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode charset %q: %w", label, err)
	}
	return r, nil
}
