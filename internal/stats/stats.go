// Package stats computes post-hoc summaries over scraped job records,
// either fresh from a run or re-read from a previously written CSV.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jimezsa/wdjobs/internal/models"
)

type Count struct {
	Value string
	Total int
}

// Report summarizes one record set.
type Report struct {
	Total           int
	WithID          int
	WithURL         int
	WithPostingDate int
	Companies       []string
	Locations       []Count
	TitleWords      []Count
}

// Analyze builds a report over jobs.
func Analyze(jobs []models.Job) Report {
	report := Report{Total: len(jobs)}

	companies := map[string]struct{}{}
	locations := map[string]int{}
	words := map[string]int{}

	for _, job := range jobs {
		if strings.TrimSpace(job.JobID) != "" {
			report.WithID++
		}
		if strings.TrimSpace(job.URL) != "" {
			report.WithURL++
		}
		if strings.TrimSpace(job.PostingDate) != "" {
			report.WithPostingDate++
		}
		if company := strings.TrimSpace(job.Company); company != "" {
			companies[company] = struct{}{}
		}
		if location := strings.TrimSpace(job.Location); location != "" {
			locations[location]++
		}
		for _, word := range strings.Fields(strings.ToLower(job.Title)) {
			word = strings.Trim(word, ".,()-/&")
			if len(word) < 4 {
				continue
			}
			words[word]++
		}
	}

	for company := range companies {
		report.Companies = append(report.Companies, company)
	}
	sort.Strings(report.Companies)
	report.Locations = sortedCounts(locations)
	report.TitleWords = sortedCounts(words)

	return report
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for value, total := range m {
		counts = append(counts, Count{Value: value, Total: total})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Total != counts[j].Total {
			return counts[i].Total > counts[j].Total
		}
		return counts[i].Value < counts[j].Value
	})
	return counts
}

// Write renders the text summary.
func (r Report) Write(w io.Writer) error {
	fmt.Fprintf(w, "Total jobs: %d\n", r.Total)
	if r.Total == 0 {
		return nil
	}

	fmt.Fprintf(w, "Jobs with job_id: %d/%d (%.1f%%)\n", r.WithID, r.Total, percent(r.WithID, r.Total))
	fmt.Fprintf(w, "Jobs with URL: %d/%d (%.1f%%)\n", r.WithURL, r.Total, percent(r.WithURL, r.Total))
	fmt.Fprintf(w, "Jobs with posting date: %d/%d (%.1f%%)\n", r.WithPostingDate, r.Total, percent(r.WithPostingDate, r.Total))
	if len(r.Companies) > 0 {
		fmt.Fprintf(w, "Companies: %s\n", strings.Join(r.Companies, ", "))
	}

	fmt.Fprintf(w, "Unique locations: %d\n", len(r.Locations))
	for i, count := range r.Locations {
		if i >= 10 {
			break
		}
		fmt.Fprintf(w, "  %s: %d\n", count.Value, count.Total)
	}

	if len(r.TitleWords) > 0 {
		fmt.Fprintln(w, "Top title words:")
		for i, count := range r.TitleWords {
			if i >= 10 {
				break
			}
			fmt.Fprintf(w, "  %s: %d\n", count.Value, count.Total)
		}
	}
	return nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ReadCSV loads jobs from a CSV written by the export package. Column
// order is resolved from the header so older files stay readable.
func ReadCSV(path string) ([]models.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var jobs []models.Job
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, models.Job{
			JobID:       field(row, "job_id"),
			Title:       field(row, "title"),
			Location:    field(row, "location"),
			PostingDate: field(row, "posting_date"),
			URL:         field(row, "url"),
			Company:     field(row, "company"),
			ScrapedAt:   field(row, "scraped_at"),
		})
	}
	return jobs, nil
}

// LatestCSV returns the newest .csv file under dir.
func LatestCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latest string
	var latestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest = filepath.Join(dir, entry.Name())
			latestMod = mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no CSV files in %s", dir)
	}
	return latest, nil
}
