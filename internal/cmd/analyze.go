package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jimezsa/wdjobs/internal/stats"
)

type AnalyzeCmd struct {
	Path string `arg:"" optional:"" help:"CSV file to analyze (default: newest in --dir)."`
	Dir  string `help:"Directory searched for the newest CSV when no path is given."`
}

func (c *AnalyzeCmd) Run(ctx *Context) error {
	path := c.Path
	if path == "" {
		dir := firstNonEmpty(c.Dir, ctx.Config.OutputDir)
		var err error
		path, err = stats.LatestCSV(dir)
		if err != nil {
			return err
		}
		ctx.UI.Infof("Analyzing %s", path)
	}

	jobs, err := stats.ReadCSV(path)
	if err != nil {
		return err
	}

	report := stats.Analyze(jobs)
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(ctx.Out, "Report for %s\n", path)
	return report.Write(ctx.Out)
}
