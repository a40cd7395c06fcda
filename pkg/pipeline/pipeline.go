// Package pipeline converts Markdown text into clipboard-ready styled HTML.
//
// Convert never fails: when the renderer errors, times out or panics the text
// is rendered by the fallback instead, and the result always carries the
// original text unchanged so it can be written back as the plain-text flavor.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"md2rt/pkg/config"
	"md2rt/pkg/logger"
	"md2rt/pkg/renderer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Result is the outcome of one conversion.
type Result struct {
	ID       string        `json:"id" yaml:"id"`
	HTML     string        `json:"html" yaml:"html"`
	RawHTML  string        `json:"raw_html" yaml:"raw_html"`
	Original string        `json:"original" yaml:"original"`
	Fallback bool          `json:"fallback" yaml:"fallback"`
	Source   string        `json:"source" yaml:"source"`
	Err      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// SourceParagraph names the escaped-paragraph fallback in Result.Source.
const SourceParagraph = "paragraph"

type Pipeline struct {
	renderer renderer.Renderer
	fallback renderer.Renderer
	timeout  time.Duration
	log      zerolog.Logger
}

type Option func(*Pipeline)

// WithFallback renders through r when the primary renderer fails. The escaped
// paragraph remains the last resort.
func WithFallback(r renderer.Renderer) Option {
	return func(p *Pipeline) {
		p.fallback = r
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

func New(r renderer.Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: r,
		timeout:  config.DefaultRendererTimeout,
		log:      logger.ForComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert renders text and styles it for the clipboard.
func (p *Pipeline) Convert(ctx context.Context, text string) Result {
	start := time.Now()
	res := Result{
		ID:       uuid.New().String(),
		Original: text,
		Source:   p.renderer.Name(),
	}

	raw, err := p.render(ctx, p.renderer, text)
	if err != nil {
		res.Err = err.Error()
		res.Fallback = true
		p.log.Warn().Err(err).Str("id", res.ID).Str("renderer", res.Source).Msg("Render failed, using fallback")

		raw, res.Source = p.fallbackHTML(ctx, text)
	}

	res.RawHTML = raw
	res.HTML = Style(raw)
	res.Duration = time.Since(start)

	p.log.Debug().
		Str("id", res.ID).
		Str("source", res.Source).
		Bool("fallback", res.Fallback).
		Int("html_len", len(res.HTML)).
		Dur("duration", res.Duration).
		Msg("Conversion finished")

	return res
}

func (p *Pipeline) fallbackHTML(ctx context.Context, text string) (string, string) {
	if p.fallback != nil {
		raw, err := p.render(ctx, p.fallback, text)
		if err == nil {
			return raw, p.fallback.Name()
		}
		p.log.Warn().Err(err).Str("renderer", p.fallback.Name()).Msg("Fallback renderer failed")
	}
	return Paragraph(text), SourceParagraph
}

// render calls r under the pipeline timeout and turns a panic into an error.
func (p *Pipeline) render(ctx context.Context, r renderer.Renderer, text string) (out string, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = fmt.Errorf("renderer %s panicked: %v", r.Name(), rec)
		}
	}()

	return r.Render(ctx, text)
}

// Paragraph wraps the HTML-escaped text in a single paragraph.
func Paragraph(text string) string {
	return "<p>" + html.EscapeString(text) + "</p>"
}
