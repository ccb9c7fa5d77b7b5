package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"github.com/jimezsa/wdjobs/internal/export"
	"github.com/jimezsa/wdjobs/internal/models"
	"github.com/jimezsa/wdjobs/internal/network"
	"github.com/jimezsa/wdjobs/internal/scraper"
)

type ScrapeCmd struct {
	URL        string  `arg:"" optional:"" help:"Job board URL (default from config)."`
	Output     string  `short:"o" help:"Write output to a file."`
	Format     string  `help:"Output format: csv, json, tsv, table." enum:",csv,json,tsv,table" default:""`
	Delay      float64 `help:"Seconds between page requests (default from config)."`
	MaxRetries int     `help:"Maximum retries for failed requests (default from config)."`
	MaxPages   int     `help:"Maximum pages to traverse, 0 = unbounded (API)."`
	Render     bool    `help:"Allow the markup fallback to execute page scripts."`
	Limit      int     `help:"Keep at most N records in the output."`
}

func (c *ScrapeCmd) Run(ctx *Context) error {
	cfg := ctx.Config

	rawURL := firstNonEmpty(c.URL, cfg.DefaultURL)
	if rawURL == "" {
		return fmt.Errorf("a job board URL is required (argument or default_url in config)")
	}

	site, err := models.ParseSiteURL(rawURL)
	if err != nil {
		return err
	}

	delay := c.Delay
	if delay <= 0 {
		delay = cfg.Delay
	}
	retries := defaultInt(c.MaxRetries, cfg.MaxRetries)
	maxPages := defaultInt(c.MaxPages, cfg.MaxPages)
	render := c.Render || cfg.Render

	client, err := network.NewClient(ctx.Logger, retries, secondsToDuration(delay))
	if err != nil {
		return err
	}

	opts := scraper.Options{
		Delay:          secondsToDuration(delay),
		MaxPages:       maxPages,
		MarkupMaxPages: maxPages,
		RenderScripts:  render,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Logger.Info().
		Str("url", site.BaseURL).
		Str("company", site.Company).
		Str("site_id", site.SiteID).
		Msg("starting scrape")

	stopIndicator := startScrapeIndicator(ctx)
	result, runErr := scraper.New(client, site, opts, ctx.Logger).Run(runCtx)
	if stopIndicator != nil {
		stopIndicator()
	}

	jobs := result.Jobs
	if c.Limit > 0 && len(jobs) > c.Limit {
		jobs = jobs[:c.Limit]
	}

	interrupted := runErr != nil && errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted && len(jobs) == 0 {
		return runErr
	}

	if err := c.writeJobs(ctx, jobs); err != nil {
		return err
	}

	if interrupted {
		ctx.UI.Warnf("interrupted: %d records salvaged", len(jobs))
		return nil
	}

	fmt.Fprintf(ctx.Err, "summary: jobs=%d strategy=%s\n", len(jobs), result.Strategy)
	return nil
}

func (c *ScrapeCmd) writeJobs(ctx *Context, jobs []models.Job) error {
	writer := ctx.Out
	var file *os.File
	if c.Output != "" {
		var err error
		file, err = os.Create(c.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	format, err := resolveFormat(ctx, c.Format, c.Output)
	if err != nil {
		return err
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled && file == nil
	return export.WriteJobs(writer, jobs, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(writer),
	})
}

func resolveFormat(ctx *Context, flagFormat string, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if flagFormat != "" {
		return parseFormat(flagFormat)
	}
	if outputPath != "" {
		return export.FormatCSV, nil
	}
	if isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func parseFormat(value string) (export.Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return export.FormatCSV, nil
	case "json":
		return export.FormatJSON, nil
	case "tsv":
		return export.FormatTSV, nil
	case "table", "":
		return export.FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", value)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startScrapeIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2KScraping... %ds %s", seconds, frame)
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
