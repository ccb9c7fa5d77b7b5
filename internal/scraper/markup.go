package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jimezsa/wdjobs/internal/models"
	"github.com/jimezsa/wdjobs/internal/network"
)

// Selector candidates tried in order when locating job elements; the first
// selector with matches wins. Workday's data-automation-id attributes come
// first, generic card classes after.
var jobElementSelectors = []string{
	"[data-automation-id='jobPostingItem']",
	"[data-automation-id='job-posting']",
	".job-posting",
	".job-item",
	"[role='listitem']",
}

var jobLinkSelectors = []string{
	"a[data-automation-id*='job']",
	"[data-automation-id='jobPostingTitle'] a",
	".job-title a",
	"a[href*='job']",
}

var titleSelectors = []string{
	"[data-automation-id='jobPostingTitle']",
	"[data-automation-id='job-title']",
	".job-title",
	"h3",
	"h2",
	".title",
}

var locationSelectors = []string{
	"[data-automation-id='jobPostingLocation']",
	"[data-automation-id='location']",
	".job-location",
	".location",
}

var dateSelectors = []string{
	"[data-automation-id='jobPostingDate']",
	"[data-automation-id='date']",
	".job-date",
	".posting-date",
	".date",
}

var paginationSelectors = []string{
	"a[href*='page']",
	"a[href*='offset']",
	"a[aria-label*='Next']",
	"a[title*='Next']",
	".pagination a",
	".pager a",
}

const (
	// Cap on discovered pagination links followed beyond the landing page.
	maxFollowedLinks = 5
	// Cap on total distinct pages visited, bounding an unbounded link graph.
	defaultMarkupMaxPages = 10
)

// Markup extracts jobs from rendered or raw page markup when no structured
// endpoint is available. Records are deduplicated on the (title, url) pair
// since DOM traversal can revisit the same element via different matches.
type Markup struct {
	client   *network.Client
	site     models.Site
	renderer Renderer
	logger   zerolog.Logger
	limiter  *rate.Limiter
	now      func() time.Time
	maxPages int
}

func NewMarkup(client *network.Client, site models.Site, renderer Renderer, logger zerolog.Logger, limiter *rate.Limiter, maxPages int) *Markup {
	if maxPages <= 0 {
		maxPages = defaultMarkupMaxPages
	}
	return &Markup{
		client:   client,
		site:     site,
		renderer: renderer,
		logger:   logger,
		limiter:  limiter,
		now:      time.Now,
		maxPages: maxPages,
	}
}

// Run fetches the board's pages and extracts whatever job elements the
// candidate selector lists can locate. The render resource, when present,
// is released on every exit path.
func (m *Markup) Run(ctx context.Context) ([]models.Job, error) {
	if m.renderer != nil {
		defer func() {
			if err := m.renderer.Close(); err != nil {
				m.logger.Warn().Err(err).Msg("closing renderer")
			}
		}()
	}

	type dedupKey struct{ title, url string }
	seen := map[dedupKey]struct{}{}
	visited := map[string]struct{}{}

	var jobs []models.Job
	queue := []string{m.site.BaseURL}
	followed := 0

	for len(queue) > 0 && len(visited) < m.maxPages {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		target := queue[0]
		queue = queue[1:]
		if _, ok := visited[target]; ok {
			continue
		}
		visited[target] = struct{}{}

		if len(visited) > 1 && m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return jobs, err
			}
		}

		doc, err := m.fetchDocument(ctx, target)
		if err != nil {
			m.logger.Warn().Str("url", target).Err(err).Msg("markup page fetch failed")
			continue
		}

		pageJobs := m.extractJobs(doc)
		m.logger.Info().Str("url", target).Int("found", len(pageJobs)).Msg("markup page parsed")
		for _, job := range pageJobs {
			key := dedupKey{title: job.Title, url: job.URL}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			jobs = append(jobs, job)
		}

		if len(pageJobs) == 0 {
			continue
		}
		for _, link := range m.paginationLinks(doc) {
			if followed >= maxFollowedLinks {
				break
			}
			if _, ok := visited[link]; ok {
				continue
			}
			queue = append(queue, link)
			followed++
		}
	}

	return jobs, nil
}

// fetchDocument renders the page when a renderer is available, degrading
// to a raw HTML fetch if rendering fails or was never enabled.
func (m *Markup) fetchDocument(ctx context.Context, target string) (*goquery.Document, error) {
	if m.renderer != nil {
		content, err := m.renderer.Render(ctx, target)
		if err == nil {
			return goquery.NewDocumentFromReader(strings.NewReader(content))
		}
		m.logger.Warn().Err(err).Msg("render failed, falling back to raw fetch")
	}

	body, _, err := m.client.Get(ctx, target, nil, nil)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(body)))
}

func (m *Markup) extractJobs(doc *goquery.Document) []models.Job {
	elements := findFirst(doc, jobElementSelectors)
	if elements == nil || elements.Length() == 0 {
		elements = findFirst(doc, jobLinkSelectors)
	}
	if elements == nil || elements.Length() == 0 {
		return nil
	}

	var jobs []models.Job
	elements.Each(func(_ int, s *goquery.Selection) {
		if job, ok := m.extractJob(s); ok {
			jobs = append(jobs, job)
		}
	})
	return jobs
}

// extractJob mirrors the normalizer's priority design against a DOM node:
// candidate selector lists replace candidate key lists, and a node with no
// extractable title is skipped.
func (m *Markup) extractJob(s *goquery.Selection) (models.Job, bool) {
	title := selectFirstText(s, titleSelectors)
	if title == "" && goquery.NodeName(s) == "a" {
		title = cleanText(s.Text())
	}
	if title == "" {
		title = cleanText(s.Find("a").First().Text())
	}
	if title == "" {
		return models.Job{}, false
	}

	job := models.Job{
		Title:       title,
		Location:    selectFirstText(s, locationSelectors),
		PostingDate: selectFirstText(s, dateSelectors),
		Company:     m.site.CompanyName(),
		ScrapedAt:   m.now().Format(time.RFC3339),
	}

	href := s.AttrOr("href", "")
	if href == "" {
		href = s.Find("a[href]").First().AttrOr("href", "")
	}
	if href != "" {
		job.URL = absoluteURL(m.site.BaseURL, href)
	}

	job.JobID = idFromPath(job.URL)
	if job.JobID == "" {
		for _, attr := range []string{"data-job-id", "id", "data-automation-id"} {
			if value := strings.TrimSpace(s.AttrOr(attr, "")); value != "" {
				job.JobID = value
				break
			}
		}
	}

	return job, true
}

func (m *Markup) paginationLinks(doc *goquery.Document) []string {
	var links []string
	seen := map[string]struct{}{}
	for _, selector := range paginationSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href := strings.TrimSpace(s.AttrOr("href", ""))
			if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
				return
			}
			link := absoluteURL(m.site.BaseURL, href)
			if !strings.Contains(link, m.site.Domain) {
				return
			}
			if _, ok := seen[link]; ok {
				return
			}
			seen[link] = struct{}{}
			links = append(links, link)
		})
	}
	return links
}

func findFirst(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func selectFirstText(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := cleanText(s.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
