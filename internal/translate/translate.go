// Package translate provides the description translator used by the
// augmenter: a passthrough and an HTTP client for LibreTranslate-compatible
// services.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/slexa/internal/config"
	"github.com/JonMunkholm/slexa/internal/core"
	"github.com/JonMunkholm/slexa/internal/logging"
)

// maxResponseSize caps how much of a translation response is read.
const maxResponseSize = 1 << 20

// Passthrough returns every text unchanged.
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, text string) string { return text }

// Client calls POST {url}/translate. Failures are logged and degrade to the
// input text. Results are cached per input for the client's lifetime.
type Client struct {
	url    string
	source string
	target string
	http   *http.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL, source, target string, timeout time.Duration) *Client {
	return &Client{
		url:    strings.TrimRight(baseURL, "/") + "/translate",
		source: source,
		target: target,
		http:   &http.Client{Timeout: timeout},
		cache:  make(map[string]string),
	}
}

// New returns the translator configured by cfg: a Client when a URL is set,
// Passthrough otherwise.
func New(cfg config.TranslateConfig) core.Translator {
	if cfg.URL == "" {
		return Passthrough{}
	}
	return NewClient(cfg.URL, cfg.Source, cfg.Target, cfg.Timeout)
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate implements core.Translator.
func (c *Client) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	c.mu.Lock()
	cached, ok := c.cache[text]
	c.mu.Unlock()
	if ok {
		return cached
	}

	out, err := c.do(ctx, text)
	if err != nil {
		logging.FromContext(ctx).Warn("translation failed, keeping original text",
			"service", c.url,
			"error", err,
		)
		return text
	}

	c.mu.Lock()
	c.cache[text] = out
	c.mu.Unlock()
	return out
}

func (c *Client) do(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(request{Q: text, Source: c.source, Target: c.target, Format: "text"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("HTTP %d: decode response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, out.Error)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out.TranslatedText, nil
}
