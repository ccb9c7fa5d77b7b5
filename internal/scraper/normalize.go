package scraper

import (
	"strings"
	"time"

	"github.com/jimezsa/wdjobs/internal/models"
)

var idKeys = []string{"id", "jobId", "postingId", "requisitionId", "externalJobId"}
var titleKeys = []string{"title", "jobTitle", "positionTitle", "name", "jobName"}
var dateKeys = []string{"postedOn", "postingDate", "datePosted", "createdDate", "publishedDate"}

// Normalizer maps arbitrarily-shaped source records onto the canonical job
// schema. For each field an ordered candidate list is tried and the first
// non-empty value wins; a record with no extractable title is rejected.
type Normalizer struct {
	site models.Site
	now  func() time.Time
}

func NewNormalizer(site models.Site) *Normalizer {
	return &Normalizer{site: site, now: time.Now}
}

// Normalize builds a canonical job from a raw API record. The second
// return is false when the record has no title and must be discarded.
func (n *Normalizer) Normalize(raw map[string]any) (models.Job, bool) {
	title := firstString(raw, titleKeys)
	if title == "" {
		return models.Job{}, false
	}

	job := models.Job{
		Title:     title,
		Company:   n.site.CompanyName(),
		ScrapedAt: n.now().Format(time.RFC3339),
	}

	job.Location = n.extractLocation(raw)
	job.PostingDate = firstString(raw, dateKeys)
	job.JobID = n.extractID(raw)
	job.URL = n.buildURL(raw, job.JobID)
	if job.JobID == "" {
		job.JobID = idFromPath(job.URL)
	}

	return job, true
}

func (n *Normalizer) extractID(raw map[string]any) string {
	if id := firstString(raw, idKeys); id != "" {
		return id
	}
	if path := stringValue(raw["externalPath"]); path != "" {
		return idFromPath(path)
	}
	return ""
}

// idFromPath derives an identifier from a path like
// "/job/Dallas-TX/Site-Engineer_JR4032": the suffix after the last
// underscore, else the trailing path segment.
func idFromPath(path string) string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		return ""
	}
	if idx := strings.LastIndex(path, "_"); idx >= 0 && idx < len(path)-1 {
		return path[idx+1:]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	tail := segments[len(segments)-1]
	if strings.HasPrefix(tail, "http") {
		return ""
	}
	return tail
}

func (n *Normalizer) extractLocation(raw map[string]any) string {
	if text := stringValue(raw["locationsText"]); text != "" {
		return text
	}
	if loc := stringValue(raw["location"]); loc != "" {
		return loc
	}
	if loc := stringValue(raw["primaryLocation"]); loc != "" {
		return loc
	}

	// Some tenants only carry location in the bullet-field list.
	bullets, ok := raw["bulletFields"].([]any)
	if !ok {
		return ""
	}
	for _, bullet := range bullets {
		entry, ok := bullet.(map[string]any)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(stringValue(entry["type"])), "location") {
			return stringValue(entry["value"])
		}
	}
	return ""
}

func (n *Normalizer) buildURL(raw map[string]any, jobID string) string {
	if path := stringValue(raw["externalPath"]); path != "" {
		return absoluteURL(n.site.BaseURL, path)
	}
	if link := stringValue(raw["url"]); link != "" {
		return link
	}
	if jobID != "" {
		return n.site.BaseURL + "/job/" + jobID
	}
	return ""
}

func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if value := stringValue(raw[key]); value != "" {
			return value
		}
	}
	return ""
}
