package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/muesli/termenv"

	"github.com/jimezsa/wdjobs/internal/models"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTSV   Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
}

// WriteJobs persists the record set in the requested format. All string
// values are sanitized here: trimmed, embedded newlines and carriage
// returns collapsed to a single space, absent values as empty strings.
func WriteJobs(w io.Writer, jobs []models.Job, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, jobs)
	case FormatCSV:
		return writeCSV(w, jobs, ',')
	case FormatTSV:
		return writeCSV(w, jobs, '\t')
	default:
		return writeTable(w, jobs, opts)
	}
}

func writeJSON(w io.Writer, jobs []models.Job) error {
	cleaned := make([]models.Job, len(jobs))
	for i, job := range jobs {
		cleaned[i] = sanitizeJob(job)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cleaned)
}

func writeCSV(w io.Writer, jobs []models.Job, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(models.Fields()); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write(sanitizeJob(job).Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, jobs []models.Job, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "job_id\ttitle\tlocation\turl")
	output := termenv.NewOutput(w)
	for _, job := range jobs {
		job = sanitizeJob(job)
		fmt.Fprintln(tw, strings.Join([]string{
			job.JobID,
			job.Title,
			job.Location,
			displayURL(job.URL, output, opts),
		}, "\t"))
	}
	return tw.Flush()
}

func displayURL(raw string, output *termenv.Output, opts WriteOptions) string {
	if raw == "" {
		return "-"
	}
	display := raw
	if opts.ColorEnabled {
		display = output.String(display).Foreground(output.Color("#87CEEB")).String()
	}
	if opts.Hyperlinks {
		display = hyperlink(raw, display)
	}
	return display
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func sanitizeJob(job models.Job) models.Job {
	job.JobID = sanitize(job.JobID)
	job.Title = sanitize(job.Title)
	job.Location = sanitize(job.Location)
	job.PostingDate = sanitize(job.PostingDate)
	job.URL = sanitize(job.URL)
	job.Company = sanitize(job.Company)
	job.ScrapedAt = sanitize(job.ScrapedAt)
	return job
}

// sanitize trims and collapses embedded newlines/carriage returns so the
// tabular output stays one record per row.
func sanitize(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.Join(strings.Fields(value), " ")
	return strings.TrimSpace(value)
}
