package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`
	LogDir  string `help:"Also write logs to a dated file under this directory."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version VersionCmd `cmd:"" help:"Print version."`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration."`
	Scrape  ScrapeCmd  `cmd:"" help:"Scrape all postings from a job board."`
	Analyze AnalyzeCmd `cmd:"" help:"Summarize a previously scraped CSV."`
}

func NewCLI() *CLI {
	return &CLI{}
}
