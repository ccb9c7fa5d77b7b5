package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/jimezsa/wdjobs/internal/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

func testMarkup(site models.Site) *Markup {
	m := NewMarkup(nil, site, nil, zerolog.Nop(), nil, 0)
	m.now = fixedNow()
	return m
}

func TestExtractJobs_AutomationIDSelectors(t *testing.T) {
	html := `
<ul>
  <li data-automation-id="jobPostingItem">
    <a data-automation-id="jobPostingTitle" href="/job/Dallas-TX/Site-Engineer_JR4032">Site Engineer</a>
    <div data-automation-id="jobPostingLocation">Dallas, TX</div>
    <div data-automation-id="jobPostingDate">Posted Today</div>
  </li>
  <li data-automation-id="jobPostingItem">
    <a data-automation-id="jobPostingTitle" href="/job/Tempe-AZ/Analyst_JR5001">Analyst</a>
    <div data-automation-id="jobPostingLocation">Tempe, AZ</div>
  </li>
</ul>`

	m := testMarkup(testSite())
	jobs := m.extractJobs(mustDoc(t, html))
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	first := jobs[0]
	if first.Title != "Site Engineer" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.Location != "Dallas, TX" {
		t.Fatalf("location = %q", first.Location)
	}
	if first.PostingDate != "Posted Today" {
		t.Fatalf("posting date = %q", first.PostingDate)
	}
	if first.URL != "https://pultegroup.wd1.myworkdayjobs.com/job/Dallas-TX/Site-Engineer_JR4032" {
		t.Fatalf("url = %q", first.URL)
	}
	if first.JobID != "JR4032" {
		t.Fatalf("job id = %q", first.JobID)
	}
}

func TestExtractJobs_AnchorFallback(t *testing.T) {
	html := `
<div>
  <a href="/job/Austin/Dev_JR1">Developer</a>
  <a href="/about">About us</a>
</div>`

	m := testMarkup(testSite())
	jobs := m.extractJobs(mustDoc(t, html))
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Title != "Developer" {
		t.Fatalf("title = %q", jobs[0].Title)
	}
}

func TestExtractJobs_SkipsTitlelessElements(t *testing.T) {
	html := `
<div>
  <div data-automation-id="jobPostingItem"><span class="decoration"></span></div>
  <div data-automation-id="jobPostingItem"><h3>Real Job</h3></div>
</div>`

	m := testMarkup(testSite())
	jobs := m.extractJobs(mustDoc(t, html))
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Title != "Real Job" {
		t.Fatalf("title = %q", jobs[0].Title)
	}
}

func TestExtractJobs_NoMatches(t *testing.T) {
	m := testMarkup(testSite())
	if jobs := m.extractJobs(mustDoc(t, "<div><p>Nothing here</p></div>")); len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestMarkupRun_DedupsOnTitleAndURL(t *testing.T) {
	// The same posting reachable twice through the anchor fallback must
	// collapse to one record.
	page := `<html><body>
  <a href="/job/Dallas/Engineer_JR9">Engineer</a>
  <a href="/job/Dallas/Engineer_JR9">Engineer</a>
  <a href="/job/Plano/Analyst_JR10">Analyst</a>
</body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	site := siteForServer(ts)
	m := NewMarkup(testClient(t), site, nil, zerolog.Nop(), nil, 0)
	m.now = fixedNow()

	jobs, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after dedup, got %d", len(jobs))
	}
}

func TestMarkupRun_FollowsBoundedPaginationLinks(t *testing.T) {
	var paths []string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `<html><body>
  <a href="/job/X/Job-%s_JR%s">Job %s</a>
  <a class="next" href="/?page=%s1">Next</a>
</body></html>`, page, page, page, page)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	site := siteForServer(ts)
	m := NewMarkup(testClient(t), site, nil, zerolog.Nop(), nil, 10)
	m.now = fixedNow()

	jobs, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Landing page plus at most maxFollowedLinks discovered pages.
	if len(paths) > 1+maxFollowedLinks {
		t.Fatalf("visited %d pages, want at most %d", len(paths), 1+maxFollowedLinks)
	}
	if len(jobs) == 0 {
		t.Fatal("expected jobs from followed pages")
	}
}

func TestMarkupRun_TotalPageCap(t *testing.T) {
	var visits int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		visits++
		n := r.URL.Query().Get("n")
		fmt.Fprintf(w, `<html><body>
  <a href="/job/X/Role_JR%s">Role %s</a>
  <a href="/?page=1&n=%sa">1</a>
  <a href="/?page=2&n=%sb">2</a>
  <a href="/?page=3&n=%sc">3</a>
</body></html>`, n, n, n, n, n)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	site := siteForServer(ts)
	m := NewMarkup(testClient(t), site, nil, zerolog.Nop(), nil, 3)
	m.now = fixedNow()

	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if visits > 3 {
		t.Fatalf("visited %d pages, want at most 3", visits)
	}
}

type failingRenderer struct {
	closed bool
}

func (f *failingRenderer) Render(ctx context.Context, target string) (string, error) {
	return "", errors.New("browser unavailable")
}

func (f *failingRenderer) Close() error {
	f.closed = true
	return nil
}

func TestMarkupRun_RenderFailureFallsBackToRawFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/job/X/Dev_JR2">Dev</a></body></html>`)
	}))
	defer ts.Close()

	renderer := &failingRenderer{}
	site := siteForServer(ts)
	m := NewMarkup(testClient(t), site, renderer, zerolog.Nop(), nil, 0)
	m.now = fixedNow()

	jobs, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job via raw fetch fallback, got %d", len(jobs))
	}
	if !renderer.closed {
		t.Fatal("renderer must be released on every exit path")
	}
}

type staticRenderer struct {
	html   string
	closed bool
}

func (s *staticRenderer) Render(ctx context.Context, target string) (string, error) {
	return s.html, nil
}

func (s *staticRenderer) Close() error {
	s.closed = true
	return nil
}

func TestMarkupRun_UsesRenderedContent(t *testing.T) {
	renderer := &staticRenderer{html: `<html><body>
  <div data-automation-id="jobPostingItem">
    <h3>Rendered Role</h3>
    <a href="/job/Y/Rendered-Role_JR3">Open</a>
  </div>
</body></html>`}

	m := NewMarkup(nil, testSite(), renderer, zerolog.Nop(), nil, 0)
	m.now = fixedNow()

	jobs, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Title != "Rendered Role" {
		t.Fatalf("title = %q", jobs[0].Title)
	}
	if !renderer.closed {
		t.Fatal("renderer must be released after the run")
	}
}
