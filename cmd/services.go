package cmd

import (
	"md2rt/pkg/cache"
	"md2rt/pkg/config"
	"md2rt/pkg/logger"
	"md2rt/pkg/pipeline"
	"md2rt/pkg/renderer"
)

// Services is the conversion stack shared by watch, convert and inspect.
type Services struct {
	Config   *config.Config
	Cache    *cache.Manager
	Pipeline *pipeline.Pipeline
}

// NewServices wires renderer, cache and fallback according to cfg. A cache
// that cannot be opened is logged and skipped; conversions still work
// without it.
func NewServices(cfg *config.Config, noCache bool) (*Services, error) {
	svc := &Services{Config: cfg}

	primary := newRenderer(cfg)
	if cfg.Cache.Enabled && !noCache {
		cm, err := cache.NewManager(cfg.CachePath(), cfg.Cache.TTL)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.CachePath()).Msg("Render cache unavailable, continuing without it")
		} else {
			svc.Cache = cm
			primary = renderer.NewCached(primary, cm)
		}
	}

	opts := []pipeline.Option{
		pipeline.WithTimeout(cfg.Renderer.Timeout),
		pipeline.WithLogger(logger.ForComponent("pipeline")),
	}
	if cfg.Renderer.Fallback == config.FallbackLocal {
		opts = append(opts, pipeline.WithFallback(renderer.NewLocal()))
	}
	svc.Pipeline = pipeline.New(primary, opts...)

	logger.Debug().
		Str("renderer", cfg.Renderer.Kind).
		Str("fallback", cfg.Renderer.Fallback).
		Bool("cache", svc.Cache != nil).
		Msg("Conversion services ready")

	return svc, nil
}

func newRenderer(cfg *config.Config) renderer.Renderer {
	if cfg.Renderer.Kind == config.RendererLocal {
		return renderer.NewLocal()
	}
	return renderer.NewHTTP(cfg.Renderer.Endpoint,
		renderer.WithTimeout(cfg.Renderer.Timeout),
		renderer.WithUserAgent(cfg.Renderer.UserAgent),
		renderer.WithReferer(cfg.Renderer.Referer),
	)
}

func (s *Services) Close() {
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			logger.Debug().Err(err).Msg("Closing render cache")
		}
	}
}
