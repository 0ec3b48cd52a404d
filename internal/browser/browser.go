// Package browser drives a Chromium tab through playwright and exposes it as
// a dom.Page.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures Launch.
type Options struct {
	Headless bool
	// UserDataDir keeps cookies and logins between runs when set.
	UserDataDir string
	SlowMo      time.Duration
	// Channel picks a branded build such as "chrome" or "msedge".
	Channel string
	Logger  *slog.Logger
}

// Browser owns the playwright driver, the browser and its single tab.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    *Page
	logger  *slog.Logger
}

// Install downloads the driver and Chromium.
func Install() error {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	return nil
}

// Launch starts Chromium with one tab.
func Launch(opts Options) (*Browser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	b := &Browser{pw: pw, logger: logger}

	var channel *string
	if opts.Channel != "" {
		channel = playwright.String(opts.Channel)
	}
	slowMo := playwright.Float(float64(opts.SlowMo.Milliseconds()))

	var page playwright.Page
	if opts.UserDataDir != "" {
		bctx, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
			SlowMo:   slowMo,
			Channel:  channel,
		})
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("launch persistent chromium: %w", err)
		}
		b.context = bctx
		if pages := bctx.Pages(); len(pages) > 0 {
			page = pages[0]
		} else if page, err = bctx.NewPage(); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("new page: %w", err)
		}
	} else {
		browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			SlowMo:   slowMo,
			Channel:  channel,
		})
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("launch chromium: %w", err)
		}
		b.browser = browser
		if page, err = browser.NewPage(); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("new page: %w", err)
		}
	}

	b.page = newPage(page, logger)
	logger.Info("browser launched", "headless", opts.Headless, "persistent", opts.UserDataDir != "")
	return b, nil
}

// Page returns the automated tab.
func (b *Browser) Page() *Page { return b.page }

// Close shuts the browser and the driver down.
func (b *Browser) Close() error {
	var errs []error
	if b.context != nil {
		errs = append(errs, b.context.Close())
	}
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
	}
	errs = append(errs, b.pw.Stop())
	return errors.Join(errs...)
}
