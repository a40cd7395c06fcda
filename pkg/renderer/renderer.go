// Package renderer turns Markdown into raw (unstyled) HTML.
//
// The primary implementation posts the Markdown to a remote conversion
// endpoint. Local is a regex renderer for offline use and as a fallback, and
// Cached memoises any renderer in the SQLite render cache.
package renderer

import (
	"context"
	"fmt"
)

// Renderer converts Markdown source to HTML.
type Renderer interface {
	Render(ctx context.Context, markdown string) (string, error)
	Name() string
}

// RenderError describes a failed render. StatusCode is set for non-2xx HTTP
// responses and zero otherwise.
type RenderError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RenderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("render %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("render %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("render %s: %v", e.Op, e.Err)
	default:
		return "render " + e.Op + ": failed"
	}
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Func adapts a plain function to the Renderer interface.
type Func func(ctx context.Context, markdown string) (string, error)

func (f Func) Render(ctx context.Context, markdown string) (string, error) {
	return f(ctx, markdown)
}

func (f Func) Name() string {
	return "func"
}
