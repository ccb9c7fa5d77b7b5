package scraper

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

// Renderer produces the HTML of a page after script execution. It is
// acquired only for the markup strategy's attempt and must be released on
// every exit path before control returns to the orchestrator.
type Renderer interface {
	Render(ctx context.Context, target string) (string, error)
	Close() error
}

// PlaywrightRenderer drives a headless Chromium instance. The browser is
// launched lazily on first Render so an unavailable runtime only costs the
// markup attempt, never a prior endpoint result.
type PlaywrightRenderer struct {
	logger  zerolog.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywrightRenderer(logger zerolog.Logger) *PlaywrightRenderer {
	return &PlaywrightRenderer{logger: logger}
}

func (r *PlaywrightRenderer) launch() error {
	if r.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}

	r.pw = pw
	r.browser = browser
	r.logger.Info().Msg("headless browser launched")
	return nil
}

func (r *PlaywrightRenderer) Render(ctx context.Context, target string) (string, error) {
	if err := r.launch(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := r.browser.NewPage()
	if err != nil {
		return "", fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return "", fmt.Errorf("goto %s: %w", target, err)
	}

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return content, nil
}

func (r *PlaywrightRenderer) Close() error {
	var firstErr error
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			firstErr = err
		}
		r.browser = nil
	}
	if r.pw != nil {
		if err := r.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.pw = nil
	}
	return firstErr
}
