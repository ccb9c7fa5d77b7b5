package models

import (
	"fmt"
	"regexp"
	"strings"
)

var workdayURLPattern = regexp.MustCompile(`^https://([^.]+)\.wd(\d+)\.myworkdayjobs\.com/([^/?]+)`)

// Site identifies the target job board parsed from its base URL.
type Site struct {
	Company   string
	WDVersion string
	SiteID    string
	Domain    string
	BaseURL   string
}

// ParseSiteURL extracts company, platform version and site identifiers from
// a board URL like https://pultegroup.wd1.myworkdayjobs.com/PGI. URLs that
// don't match the Workday pattern fall back to permissive host/path parsing.
func ParseSiteURL(rawURL string) (Site, error) {
	rawURL = strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if rawURL == "" {
		return Site{}, fmt.Errorf("site URL is required")
	}

	if m := workdayURLPattern.FindStringSubmatch(rawURL); m != nil {
		domain := fmt.Sprintf("%s.wd%s.myworkdayjobs.com", m[1], m[2])
		return Site{
			Company:   m[1],
			WDVersion: m[2],
			SiteID:    m[3],
			Domain:    domain,
			BaseURL:   rawURL,
		}, nil
	}

	trimmed := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	parts := strings.Split(trimmed, "/")
	domain := parts[0]
	if domain == "" {
		return Site{}, fmt.Errorf("invalid site URL: %s", rawURL)
	}
	siteID := "careers"
	if len(parts) > 1 && parts[1] != "" {
		siteID = parts[1]
	}
	return Site{
		Company:   strings.Split(domain, ".")[0],
		WDVersion: "1",
		SiteID:    siteID,
		Domain:    domain,
		BaseURL:   rawURL,
	}, nil
}

// CompanyName is the display form used for the company column.
func (s Site) CompanyName() string {
	if s.Company == "" {
		return ""
	}
	return strings.ToUpper(s.Company[:1]) + s.Company[1:]
}

// APIURL is the conventional Workday query endpoint for this site.
func (s Site) APIURL() string {
	return fmt.Sprintf("https://%s/wday/cxs/%s/%s/jobs", s.Domain, s.Company, s.SiteID)
}

// Origin returns the scheme+host part of the board URL.
func (s Site) Origin() string {
	return "https://" + s.Domain
}
