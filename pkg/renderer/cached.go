package renderer

import (
	"context"

	"md2rt/pkg/cache"
	"md2rt/pkg/logger"

	"github.com/rs/zerolog"
)

// Store is the subset of the render cache used by Cached.
type Store interface {
	Get(hash string) (*cache.Entry, error)
	Put(hash, html, renderer string) error
}

// Cached memoises successful renders of the wrapped renderer. Cache failures
// are logged and never fail a render.
type Cached struct {
	next  Renderer
	store Store
	scope string
	log   zerolog.Logger
}

func NewCached(next Renderer, store Store) *Cached {
	return &Cached{
		next:  next,
		store: store,
		scope: scopeOf(next),
		log:   logger.ForComponent("render-cache"),
	}
}

// scopeOf identifies the output a renderer produces: its name, plus the
// endpoint for remote renderers.
func scopeOf(r Renderer) string {
	if e, ok := r.(interface{ Endpoint() string }); ok {
		return r.Name() + " " + e.Endpoint()
	}
	return r.Name()
}

func (c *Cached) Name() string {
	return c.next.Name()
}

func (c *Cached) Render(ctx context.Context, markdown string) (string, error) {
	key := cache.ScopedKey(c.scope, markdown)

	entry, err := c.store.Get(key)
	if err != nil {
		c.log.Warn().Err(err).Msg("Cache lookup failed")
	} else if entry != nil {
		c.log.Debug().Str("hash", key[:12]).Msg("Cache hit")
		return entry.HTML, nil
	}

	html, err := c.next.Render(ctx, markdown)
	if err != nil {
		return "", err
	}

	if err := c.store.Put(key, html, c.next.Name()); err != nil {
		c.log.Warn().Err(err).Msg("Cache store failed")
	}
	return html, nil
}
