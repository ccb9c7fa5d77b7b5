package scraper

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jimezsa/wdjobs/internal/models"
	"github.com/jimezsa/wdjobs/internal/network"
)

// DefaultPageSize is the request page size used for probing and paging.
const DefaultPageSize = 20

// Paginator walks a discovered endpoint with an advancing cursor and
// accumulates normalized records. Termination: a page yielding zero
// normalized records, or fewer raw records than the page size. The latter
// is a heuristic; a backend that short-pages mid-set will under-collect.
type Paginator struct {
	client   *network.Client
	site     models.Site
	norm     *Normalizer
	logger   zerolog.Logger
	limiter  *rate.Limiter
	pageSize int
	maxPages int
}

func NewPaginator(client *network.Client, site models.Site, norm *Normalizer, logger zerolog.Logger, limiter *rate.Limiter, maxPages int) *Paginator {
	return &Paginator{
		client:   client,
		site:     site,
		norm:     norm,
		logger:   logger,
		limiter:  limiter,
		pageSize: DefaultPageSize,
		maxPages: maxPages,
	}
}

// Run pages through endpoint starting from offset zero. The shape that
// succeeded during probing is preferred, but every page fetch falls back
// through the remaining shapes when the preferred one returns nothing,
// since a site may accept one shape for discovery and another for paging.
// On cancellation the records accumulated so far are returned along with
// the context error so the caller can still persist them.
func (p *Paginator) Run(ctx context.Context, endpoint string, preferred Shape) ([]models.Job, error) {
	headers := network.APIHeaders(p.site.Origin(), p.site.BaseURL)
	shapes := orderShapes(preferred)

	var jobs []models.Job
	offset := 0
	page := 1

	for {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}
		if p.maxPages > 0 && page > p.maxPages {
			p.logger.Info().Int("max_pages", p.maxPages).Msg("page cap reached")
			return jobs, nil
		}

		rawCount, pageJobs := p.fetchPage(ctx, endpoint, headers, shapes, offset, page)
		if len(pageJobs) == 0 {
			p.logger.Info().Int("total", len(jobs)).Msg("no more jobs, pagination complete")
			return jobs, nil
		}

		jobs = append(jobs, pageJobs...)
		p.logger.Info().
			Int("page", page).
			Int("found", len(pageJobs)).
			Int("total", len(jobs)).
			Msg("page fetched")

		if rawCount < p.pageSize {
			p.logger.Info().Msg("received fewer records than page size, assuming last page")
			return jobs, nil
		}

		offset += p.pageSize
		page++

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return jobs, err
			}
		}
	}
}

// fetchPage tries each shape until one yields records. Returns the raw
// record count (for the short-page check) and the normalized jobs.
func (p *Paginator) fetchPage(ctx context.Context, endpoint string, headers map[string]string, shapes []Shape, offset, page int) (int, []models.Job) {
	for _, shape := range shapes {
		body, _, err := p.client.Get(ctx, endpoint, shape.Params(offset, p.pageSize, page), headers)
		if err != nil {
			continue
		}

		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			p.logger.Debug().Str("shape", shape.Name).Msg("non-JSON page body, trying next shape")
			continue
		}

		records := recordList(data)
		if len(records) == 0 {
			continue
		}

		jobs := make([]models.Job, 0, len(records))
		for _, record := range records {
			job, ok := p.norm.Normalize(record)
			if !ok {
				p.logger.Debug().Msg("dropping record with no extractable title")
				continue
			}
			jobs = append(jobs, job)
		}
		return len(records), jobs
	}
	return 0, nil
}

func orderShapes(preferred Shape) []Shape {
	all := PageShapes()
	if preferred.Name == "" || preferred.Name == "none" {
		return all
	}
	ordered := make([]Shape, 0, len(all))
	ordered = append(ordered, preferred)
	for _, shape := range all {
		if shape.Name != preferred.Name {
			ordered = append(ordered, shape)
		}
	}
	return ordered
}
