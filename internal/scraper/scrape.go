package scraper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jimezsa/wdjobs/internal/models"
	"github.com/jimezsa/wdjobs/internal/network"
)

// Strategy names the extraction path that produced a result.
type Strategy string

const (
	StrategyEndpoint Strategy = "endpoint"
	StrategyMarkup   Strategy = "markup"
	StrategyNone     Strategy = "none"
)

// Options is the configuration surface consumed by one scrape run.
type Options struct {
	Delay          time.Duration // courtesy throttle between page fetches
	MaxPages       int           // page cap for endpoint pagination, 0 = unbounded
	MarkupMaxPages int           // total distinct pages for the markup strategy
	RenderScripts  bool          // allow the markup strategy to execute page scripts
}

// Result is a completed run. Zero jobs is "complete with zero results",
// never a failure.
type Result struct {
	Jobs     []models.Job
	Strategy Strategy
}

// Scraper orchestrates the two extraction strategies: the endpoint
// strategy is always attempted first, markup only on its total failure.
// Neither is retried; the run terminates after one pass through each.
type Scraper struct {
	client *network.Client
	site   models.Site
	opts   Options
	logger zerolog.Logger

	// newRenderer is swappable so tests can avoid a real browser.
	newRenderer func() Renderer
}

func New(client *network.Client, site models.Site, opts Options, logger zerolog.Logger) *Scraper {
	s := &Scraper{client: client, site: site, opts: opts, logger: logger}
	s.newRenderer = func() Renderer { return NewPlaywrightRenderer(logger) }
	return s
}

// Run executes one scrape pass. On cancellation the jobs accumulated so
// far are still returned in the Result for best-effort persistence.
func (s *Scraper) Run(ctx context.Context) (Result, error) {
	limiter := newLimiter(s.opts.Delay)

	jobs, err := s.tryEndpoint(ctx, limiter)
	if len(jobs) > 0 {
		s.logger.Info().Int("jobs", len(jobs)).Msg("endpoint strategy succeeded")
		return Result{Jobs: jobs, Strategy: StrategyEndpoint}, err
	}
	if err != nil {
		return Result{Strategy: StrategyNone}, err
	}

	s.logger.Info().Msg("endpoint strategy yielded nothing, trying markup strategy")
	jobs, err = s.tryMarkup(ctx, limiter)
	if len(jobs) > 0 {
		s.logger.Info().Int("jobs", len(jobs)).Msg("markup strategy succeeded")
		return Result{Jobs: jobs, Strategy: StrategyMarkup}, err
	}
	if err != nil {
		return Result{Strategy: StrategyNone}, err
	}

	s.logger.Warn().Msg("all strategies exhausted, run complete with zero results")
	return Result{Strategy: StrategyNone}, nil
}

func (s *Scraper) tryEndpoint(ctx context.Context, limiter *rate.Limiter) ([]models.Job, error) {
	discoverer := NewDiscoverer(s.client, s.site, s.logger)
	norm := NewNormalizer(s.site)
	paginator := NewPaginator(s.client, s.site, norm, s.logger, limiter, s.opts.MaxPages)

	for _, endpoint := range discoverer.Endpoints(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.logger.Debug().Str("endpoint", endpoint).Msg("probing endpoint")
		shape, _, ok := discoverer.Probe(ctx, endpoint)
		if !ok {
			continue
		}
		return paginator.Run(ctx, endpoint, shape)
	}

	s.logger.Warn().Msg("no working endpoints found")
	return nil, nil
}

func (s *Scraper) tryMarkup(ctx context.Context, limiter *rate.Limiter) ([]models.Job, error) {
	var renderer Renderer
	if s.opts.RenderScripts {
		renderer = s.newRenderer()
	}
	markup := NewMarkup(s.client, s.site, renderer, s.logger, limiter, s.opts.MarkupMaxPages)
	return markup.Run(ctx)
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
