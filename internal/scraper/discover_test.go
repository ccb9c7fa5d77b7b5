package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimezsa/wdjobs/internal/models"
	"github.com/jimezsa/wdjobs/internal/network"
)

func testClient(t *testing.T) *network.Client {
	t.Helper()
	client, err := network.NewClient(zerolog.Nop(), 1, time.Millisecond)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func siteForServer(ts *httptest.Server) models.Site {
	host := strings.TrimPrefix(ts.URL, "http://")
	return models.Site{
		Company:   "acme",
		WDVersion: "1",
		SiteID:    "careers",
		Domain:    host,
		BaseURL:   ts.URL,
	}
}

func TestClassifyPayload(t *testing.T) {
	cases := []struct {
		name string
		data any
		want bool
	}{
		{
			"list of job objects",
			[]any{map[string]any{"title": "Dev", "location": "TX"}},
			true,
		},
		{
			"list of non-job objects",
			[]any{map[string]any{"status": "ok"}},
			false,
		},
		{"empty list", []any{}, false},
		{"list of scalars", []any{"a", "b"}, false},
		{
			"container key",
			map[string]any{"jobPostings": []any{map[string]any{"title": "Dev"}}},
			true,
		},
		{
			"alternate container key",
			map[string]any{"results": []any{}},
			true,
		},
		{
			"dict that is itself a job",
			map[string]any{"jobTitle": "Dev", "department": "Eng"},
			true,
		},
		{"status dict", map[string]any{"status": "ok"}, false},
		{"scalar", "jobs", false},
	}

	for _, tc := range cases {
		if got := classifyPayload(tc.data); got != tc.want {
			t.Fatalf("%s: classifyPayload = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRecordList(t *testing.T) {
	data := map[string]any{
		"jobPostings": []any{
			map[string]any{"title": "A"},
			"not a record",
			map[string]any{"title": "B"},
		},
	}

	records := recordList(data)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	bare := recordList([]any{map[string]any{"title": "C"}})
	if len(bare) != 1 {
		t.Fatalf("expected 1 record from bare list, got %d", len(bare))
	}

	if got := recordList(map[string]any{"status": "ok"}); len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestEndpoints_SeedsAndLandingPageHarvest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
<script>var api = {endpoint: "/api/jobSearch", other: "ignore me"};</script>
</head><body></body></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	site := siteForServer(ts)
	d := NewDiscoverer(testClient(t), site, zerolog.Nop())

	endpoints := d.Endpoints(context.Background())
	if len(endpoints) == 0 {
		t.Fatal("expected candidate endpoints")
	}

	want := map[string]bool{
		site.BaseURL + "/jobs":      false,
		site.BaseURL + "/jobSearch": false,
		ts.URL + "/api/jobSearch":   false,
	}
	for _, endpoint := range endpoints {
		if _, ok := want[endpoint]; ok {
			want[endpoint] = true
		}
	}
	for endpoint, found := range want {
		if !found {
			t.Fatalf("expected %s in candidates %v", endpoint, endpoints)
		}
	}

	// Seeds come before harvested candidates and contain no duplicates.
	seen := map[string]int{}
	for _, endpoint := range endpoints {
		seen[endpoint]++
	}
	for endpoint, count := range seen {
		if count > 1 {
			t.Fatalf("duplicate candidate %s", endpoint)
		}
	}
}

func TestEndpoints_LandingPageFailureStillSeeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	d := NewDiscoverer(testClient(t), siteForServer(ts), zerolog.Nop())
	endpoints := d.Endpoints(context.Background())
	if len(endpoints) < 3 {
		t.Fatalf("expected conventional seeds despite landing failure, got %v", endpoints)
	}
}

func TestProbe_ClassifiesJobEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"jobPostings":[{"title":"Site Engineer"}],"total":1}`)
	}))
	defer ts.Close()

	d := NewDiscoverer(testClient(t), siteForServer(ts), zerolog.Nop())
	shape, sample, ok := d.Probe(context.Background(), ts.URL)
	if !ok {
		t.Fatal("expected probe to classify endpoint as a job source")
	}
	if shape.Name != "offset/limit" {
		t.Fatalf("shape = %q, want offset/limit", shape.Name)
	}
	if sample == nil {
		t.Fatal("expected sample payload")
	}
}

func TestProbe_RejectsNonJobEndpointForEveryShape(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	d := NewDiscoverer(testClient(t), siteForServer(ts), zerolog.Nop())
	if _, _, ok := d.Probe(context.Background(), ts.URL); ok {
		t.Fatal("expected negative classification")
	}
	if requests != len(ProbeShapes()) {
		t.Fatalf("expected %d probe requests, got %d", len(ProbeShapes()), requests)
	}
}

func TestProbe_SkipsNonJSONBodies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer ts.Close()

	d := NewDiscoverer(testClient(t), siteForServer(ts), zerolog.Nop())
	if _, _, ok := d.Probe(context.Background(), ts.URL); ok {
		t.Fatal("expected negative classification for non-JSON body")
	}
}
