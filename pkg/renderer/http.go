package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"md2rt/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DataURLPrefix marks a response body that carries base64-encoded HTML.
const DataURLPrefix = "data:application/octet-stream;base64,"

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

type request struct {
	MarkdownText string `json:"markdownText"`
}

// HTTP renders Markdown through a remote endpoint that accepts
// {"markdownText": ...} and answers with HTML or a base64 data URL.
type HTTP struct {
	endpoint  string
	client    *http.Client
	userAgent string
	referer   string
	log       zerolog.Logger
}

type HTTPOption func(*HTTP)

// WithHTTPClient replaces the HTTP client. Its Timeout bounds every request.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

func WithReferer(ref string) HTTPOption {
	return func(h *HTTP) {
		h.referer = ref
	}
}

func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: logger.ForComponent("renderer"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Name() string {
	return "remote"
}

func (h *HTTP) Endpoint() string {
	return h.endpoint
}

func (h *HTTP) Render(ctx context.Context, markdown string) (string, error) {
	payload, err := json.Marshal(request{MarkdownText: markdown})
	if err != nil {
		return "", &RenderError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &RenderError{Op: "request", Err: err}
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if h.referer != "" {
		req.Header.Set("Referer", h.referer)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return "", &RenderError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &RenderError{Op: "read", Err: err}
	}

	h.log.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Renderer responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RenderError{Op: "post", StatusCode: resp.StatusCode}
	}

	return DecodeBody(string(body))
}

// DecodeBody unwraps a renderer response: a data URL is base64-decoded, any
// other body is taken as HTML. Both are trimmed.
func DecodeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, DataURLPrefix) {
		return body, nil
	}

	encoded := strings.TrimSpace(strings.TrimPrefix(body, DataURLPrefix))
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &RenderError{Op: "decode", Err: fmt.Errorf("invalid base64 data url: %w", err)}
	}
	return strings.TrimSpace(string(decoded)), nil
}
