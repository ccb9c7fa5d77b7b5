package scraper

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/jimezsa/wdjobs/internal/models"
	"github.com/jimezsa/wdjobs/internal/network"
)

// containerKeys are the field names backends nest their record list under.
var containerKeys = []string{"jobPostings", "jobs", "data", "results", "items"}

// jobKeys identify an object as a job record during classification.
var jobKeys = []string{"title", "location", "id", "jobTitle", "position"}

var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)["']([^"']*(?:jobs|search)[^"']*)["']`),
	regexp.MustCompile(`(?i)endpoint["']?\s*:\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)url["']?\s*:\s*["']([^"']*jobs[^"']*)["']`),
}

// Discoverer locates a queryable data source for one job board. Discovery
// is best-effort: an empty candidate set is not an error.
type Discoverer struct {
	client *network.Client
	site   models.Site
	logger zerolog.Logger
}

func NewDiscoverer(client *network.Client, site models.Site, logger zerolog.Logger) *Discoverer {
	return &Discoverer{client: client, site: site, logger: logger}
}

// Endpoints returns candidate endpoint URLs: the platform's conventional
// shapes first, then anything harvested from the landing page's script
// text, deduplicated in that order.
func (d *Discoverer) Endpoints(ctx context.Context) []string {
	// Both cxs forms are seeded: some tenants serve the query endpoint
	// under the site path, others only at the domain root.
	seeds := []string{
		d.site.APIURL(),
		d.site.BaseURL + "/jobs",
		d.site.BaseURL + "/jobSearch",
		d.site.BaseURL + "/wday/cxs/" + d.site.Company + "/" + d.site.SiteID + "/jobs",
	}

	harvested := d.harvestLandingPage(ctx)

	seen := make(map[string]struct{}, len(seeds)+len(harvested))
	out := make([]string, 0, len(seeds)+len(harvested))
	for _, endpoint := range append(seeds, harvested...) {
		if _, ok := seen[endpoint]; ok {
			continue
		}
		seen[endpoint] = struct{}{}
		out = append(out, endpoint)
	}
	return out
}

func (d *Discoverer) harvestLandingPage(ctx context.Context) []string {
	body, _, err := d.client.Get(ctx, d.site.BaseURL, nil, nil)
	if err != nil {
		d.logger.Warn().Err(err).Msg("landing page fetch failed, using seed endpoints only")
		return nil
	}

	content := string(body)
	if doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(content)); docErr == nil {
		var scripts strings.Builder
		doc.Find("script").Each(func(_ int, s *goquery.Selection) {
			scripts.WriteString(s.Text())
			scripts.WriteByte('\n')
		})
		content += scripts.String()
	}

	var endpoints []string
	for _, pattern := range endpointPatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			candidate := strings.TrimSpace(match[1])
			switch {
			case strings.HasPrefix(candidate, "/"):
				endpoints = append(endpoints, absoluteURL(d.site.BaseURL, candidate))
			case strings.HasPrefix(candidate, "http://"), strings.HasPrefix(candidate, "https://"):
				endpoints = append(endpoints, candidate)
			}
		}
	}

	d.logger.Debug().Int("count", len(endpoints)).Msg("harvested endpoint candidates from landing page")
	return endpoints
}

// Probe issues a GET per conventional parameter shape until one returns a
// JSON body that classifies as job data. It reports the winning shape and
// sample payload; probing stops at the first positive classification.
func (d *Discoverer) Probe(ctx context.Context, endpoint string) (Shape, any, bool) {
	headers := network.APIHeaders(d.site.Origin(), d.site.BaseURL)

	for _, shape := range ProbeShapes() {
		if ctx.Err() != nil {
			return Shape{}, nil, false
		}

		body, _, err := d.client.Get(ctx, endpoint, shape.Params(0, DefaultPageSize, 1), headers)
		if err != nil {
			continue
		}

		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			continue
		}
		if classifyPayload(data) {
			d.logger.Info().Str("endpoint", endpoint).Str("shape", shape.Name).Msg("working endpoint found")
			return shape, data, true
		}
	}
	return Shape{}, nil, false
}

// classifyPayload reports whether a decoded JSON body looks like job data:
// a list of job-like objects, an object nesting such a list under a known
// container key, or an object that is itself job-shaped.
func classifyPayload(data any) bool {
	switch value := data.(type) {
	case []any:
		if len(value) == 0 {
			return false
		}
		first, ok := value[0].(map[string]any)
		if !ok {
			return false
		}
		return hasAnyKey(first, jobKeys)
	case map[string]any:
		for _, container := range containerKeys {
			if _, ok := value[container].([]any); ok {
				return true
			}
		}
		return hasAnyKey(value, jobKeys)
	}
	return false
}

func hasAnyKey(m map[string]any, keys []string) bool {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// recordList extracts the raw record objects from a decoded response body
// using the same container-key search classification uses.
func recordList(data any) []map[string]any {
	var items []any
	switch value := data.(type) {
	case []any:
		items = value
	case map[string]any:
		for _, container := range containerKeys {
			if list, ok := value[container].([]any); ok {
				items = list
				break
			}
		}
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}
