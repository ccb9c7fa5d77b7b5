package models

// Job is the canonical posting record every strategy must produce.
// Title is the only required field; everything else defaults to "".
type Job struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	PostingDate string `json:"posting_date"`
	URL         string `json:"url"`
	Company     string `json:"company"`
	ScrapedAt   string `json:"scraped_at"`
}

// Fields returns the canonical column order shared by every sink.
func Fields() []string {
	return []string{"job_id", "title", "location", "posting_date", "url", "company", "scraped_at"}
}

// Row returns the job's values in canonical column order.
func (j Job) Row() []string {
	return []string{j.JobID, j.Title, j.Location, j.PostingDate, j.URL, j.Company, j.ScrapedAt}
}
