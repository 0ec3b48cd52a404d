package browser

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/vmunix/fixturesync/internal/dom"
	"github.com/vmunix/fixturesync/internal/locate"
	"github.com/vmunix/fixturesync/internal/progress"
)

// Page is a dom.Page over a playwright page. Job state lives in the tab's
// sessionStorage so it follows the tab across reloads.
type Page struct {
	pw     playwright.Page
	loads  chan struct{}
	logger *slog.Logger

	mu       sync.Mutex
	progress string
}

var (
	_ dom.Page           = (*Page)(nil)
	_ locate.GridScanner = (*Page)(nil)
)

func newPage(pw playwright.Page, logger *slog.Logger) *Page {
	p := &Page{pw: pw, loads: make(chan struct{}, 1), logger: logger}
	pw.OnLoad(func(playwright.Page) {
		select {
		case p.loads <- struct{}{}:
		default:
		}
		// The overlay lives in the document; put it back on the new one.
		go p.restoreProgress()
	})
	return p
}

// Loads delivers one value per completed load, coalesced.
func (p *Page) Loads() <-chan struct{} { return p.loads }

// Goto loads url and waits for the DOM to be ready.
func (p *Page) Goto(url string) error {
	if _, err := p.pw.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

// URL implements dom.Page.
func (p *Page) URL() string { return p.pw.URL() }

// Navigate implements dom.Page. It returns without waiting for the load.
func (p *Page) Navigate(url string) error {
	return p.run(jsNavigate, url)
}

// Replace implements dom.Page.
func (p *Page) Replace(url string) error {
	return p.run(jsReplace, url)
}

// QueryAll implements dom.Page.
func (p *Page) QueryAll(selector string) []dom.Element {
	hs, err := p.pw.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	return wrapAll(hs)
}

// Query implements dom.Page.
func (p *Page) Query(selector string) dom.Element {
	h, err := p.pw.QuerySelector(selector)
	if err != nil {
		return nil
	}
	return wrap(h)
}

// BodyText implements dom.Page.
func (p *Page) BodyText() string {
	v, err := p.pw.Evaluate(jsBodyText)
	if err != nil {
		return ""
	}
	return asString(v)
}

// Storage implements dom.Page.
func (p *Page) Storage() dom.Storage { return &sessionStorage{p: p} }

// Banner implements dom.Page.
func (p *Page) Banner(text string) error {
	return p.run(jsBanner, text)
}

// ShowProgress renders text in the progress overlay.
func (p *Page) ShowProgress(text string) error {
	p.mu.Lock()
	p.progress = text
	p.mu.Unlock()
	if text == "" {
		return nil
	}
	return p.run(jsProgress, text)
}

// Mirror keeps the overlay in step with the reporter's message.
func (p *Page) Mirror(r *progress.Reporter) {
	r.Observe(func(s progress.Snapshot) {
		if err := p.ShowProgress(s.Message); err != nil {
			p.logger.Debug("progress overlay", "error", err)
		}
	})
}

func (p *Page) restoreProgress() {
	p.mu.Lock()
	text := p.progress
	p.mu.Unlock()
	if text == "" {
		return
	}
	if err := p.run(jsProgress, text); err != nil {
		p.logger.Debug("restore progress overlay", "error", err)
	}
}

// ScanDayGrids implements locate.GridScanner in one round trip.
func (p *Page) ScanDayGrids(containerSelector, cellSelector string, minCells int) []dom.Element {
	v, err := p.pw.Evaluate(jsRankGrids, []any{containerSelector, cellSelector, minCells})
	if err != nil {
		p.logger.Debug("grid scan", "error", err)
		return nil
	}
	n := asInt(v)
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		if el := p.Query(`[data-fs-grid-rank="` + strconv.Itoa(i) + `"]`); el != nil {
			out = append(out, el)
		}
	}
	return out
}

func (p *Page) run(script string, arg ...any) error {
	if _, err := p.pw.Evaluate(script, arg...); err != nil {
		return fmt.Errorf("page script: %w", err)
	}
	return nil
}

type sessionStorage struct {
	p *Page
}

func (s *sessionStorage) Get(key string) (string, bool, error) {
	v, err := s.p.pw.Evaluate(jsStorageGet, key)
	if err != nil {
		return "", false, fmt.Errorf("storage get %s: %w", key, err)
	}
	if v == nil {
		return "", false, nil
	}
	return asString(v), true, nil
}

func (s *sessionStorage) Set(key, value string) error {
	if _, err := s.p.pw.Evaluate(jsStorageSet, []any{key, value}); err != nil {
		return fmt.Errorf("storage set %s: %w", key, err)
	}
	return nil
}

func (s *sessionStorage) Remove(key string) error {
	if _, err := s.p.pw.Evaluate(jsStorageRemove, key); err != nil {
		return fmt.Errorf("storage remove %s: %w", key, err)
	}
	return nil
}
