// Package mymemory translates text with the free MyMemory HTTP API.
//
// The public endpoint caps each query at 500 bytes, so the client advertises
// that budget through MaxBytes and lets the translation engine chunk longer
// units. Supplying an email raises the daily quota.
package mymemory

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gnurante/internal/language"
	"gnurante/internal/services"
)

const (
	// Name identifies the backend in logs, metrics and cache keys.
	Name = "mymemory"

	// MaxBytes is the per-query cap in UTF-8 bytes.
	MaxBytes = 500

	defaultBaseURL = "https://api.mymemory.translated.net/get"
	defaultTimeout = 30 * time.Second
)

// Config holds the settings for the MyMemory backend.
type Config struct {
	BaseURL        string
	Email          string
	TimeoutSeconds int
}

// Client calls the MyMemory /get endpoint.
type Client struct {
	baseURL    string
	email      string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		email:      strings.TrimSpace(cfg.Email),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c
}

// Name implements translate.Backend.
func (c *Client) Name() string {
	return Name
}

// MaxBytes implements translate.ByteLimited.
func (c *Client) MaxBytes() int {
	return MaxBytes
}

// status tolerates responseStatus arriving as a number or a quoted string.
type status int

func (s *status) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("mymemory: invalid responseStatus %q", raw)
	}
	*s = status(value)
	return nil
}

type response struct {
	ResponseData struct {
		TranslatedText string  `json:"translatedText"`
		Match          float64 `json:"match"`
	} `json:"responseData"`
	ResponseStatus  status `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
	QuotaFinished   bool   `json:"quotaFinished"`
}

// Translate issues one GET request for text.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	pair, err := langPair(source, target)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", pair)
	if c.email != "" {
		query.Set("de", c.email)
	}
	endpoint := c.baseURL + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("mymemory request: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("mymemory request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.NewHTTPStatusError(Name, resp, body)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("mymemory request: decode response: %w", err)
	}
	// The API reports quota and validation failures in-band with HTTP 200.
	if parsed.QuotaFinished {
		return "", &services.HTTPStatusError{Service: Name, StatusCode: http.StatusTooManyRequests, Body: parsed.ResponseDetails}
	}
	if code := int(parsed.ResponseStatus); code != 0 && code != http.StatusOK {
		detail := parsed.ResponseDetails
		if detail == "" {
			detail = parsed.ResponseData.TranslatedText
		}
		return "", &services.HTTPStatusError{Service: Name, StatusCode: code, Body: detail}
	}
	return strings.TrimSpace(html.UnescapeString(parsed.ResponseData.TranslatedText)), nil
}

// HealthCheck translates a single word to confirm the endpoint and quota.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Translate(ctx, "hello", "en", "it"); err != nil {
		return fmt.Errorf("mymemory health: %w", err)
	}
	return nil
}

func langPair(source, target string) (string, error) {
	src := language.ToISO2(source)
	dst := language.ToISO2(target)
	if src == "" || dst == "" {
		return "", services.Wrap(services.ErrValidation, "translate", Name,
			fmt.Sprintf("unsupported language pair %q -> %q", source, target), nil)
	}
	return src + "|" + dst, nil
}
