// Package domtest provides an in-memory dom.Page backed by a parsed HTML tree.
//
// It emulates just enough browser behaviour for the importer: form values,
// checkbox/radio activation, label forwarding, visibility via the hidden
// attribute or inline style, and click/event handlers that tests register to
// mimic the calendar application. Every interaction is recorded so tests can
// assert on ordering.
package domtest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/vmunix/fixturesync/internal/dom"
)

// MarkClass is the class added by Element.Mark.
const MarkClass = "__fixturesync_mark"

// Record is one recorded interaction.
type Record struct {
	Target string // #id, [name=..] or tag
	Kind   string // event type, "click", "value", "checked", "mark", "focus", "insertText"
	Detail string
}

type handler struct {
	selector string
	kind     string
	fn       func(p *Page, el *Element)
}

// Page is an in-memory dom.Page.
type Page struct {
	mu sync.Mutex

	doc     *goquery.Document
	url     string
	storage *Storage

	values  map[*html.Node]string
	checked map[*html.Node]bool

	records     []Record
	navigations []string
	banners     []string
	handlers    []handler

	// OnNavigate, when set, runs after every Navigate/Replace.
	OnNavigate func(p *Page, url string)
}

// Option configures a Page.
type Option func(*Page)

// WithURL sets the initial location.
func WithURL(u string) Option {
	return func(p *Page) { p.url = u }
}

// WithStorage shares storage between pages, emulating a reload in the same tab.
func WithStorage(s *Storage) Option {
	return func(p *Page) { p.storage = s }
}

// New parses markup into a page.
func New(markup string, opts ...Option) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	p := &Page{
		doc:     doc,
		url:     "https://app.example.test/",
		values:  make(map[*html.Node]string),
		checked: make(map[*html.Node]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.storage == nil {
		p.storage = NewStorage()
	}
	return p, nil
}

// MustParse is New that fails the test on error.
func MustParse(t testing.TB, markup string, opts ...Option) *Page {
	t.Helper()
	p, err := New(markup, opts...)
	if err != nil {
		t.Fatalf("domtest: %v", err)
	}
	return p
}

// URL implements dom.Page.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Navigate implements dom.Page.
func (p *Page) Navigate(u string) error {
	return p.assign(u, "navigate")
}

// Replace implements dom.Page.
func (p *Page) Replace(u string) error {
	return p.assign(u, "replace")
}

func (p *Page) assign(u, kind string) error {
	p.mu.Lock()
	p.url = u
	p.navigations = append(p.navigations, u)
	p.records = append(p.records, Record{Target: "location", Kind: kind, Detail: u})
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(p, u)
	}
	return nil
}

// QueryAll implements dom.Page.
func (p *Page) QueryAll(selector string) []dom.Element {
	return p.wrapAll(p.doc.Find(selector))
}

// Query implements dom.Page.
func (p *Page) Query(selector string) dom.Element {
	return p.wrapFirst(p.doc.Find(selector))
}

// BodyText implements dom.Page.
func (p *Page) BodyText() string {
	return dom.CleanText(p.doc.Find("body").Text())
}

// Storage implements dom.Page.
func (p *Page) Storage() dom.Storage {
	return p.storage
}

// Banner implements dom.Page.
func (p *Page) Banner(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.banners = append(p.banners, text)
	return nil
}

// OnClick registers fn to run when an element matching selector, or one of
// its descendants, is clicked.
func (p *Page) OnClick(selector string, fn func(p *Page, el *Element)) {
	p.handlers = append(p.handlers, handler{selector: selector, kind: "click", fn: fn})
}

// OnEvent registers fn for a dispatched event type on elements matching
// selector.
func (p *Page) OnEvent(selector, eventType string, fn func(p *Page, el *Element)) {
	p.handlers = append(p.handlers, handler{selector: selector, kind: eventType, fn: fn})
}

// SetHTML replaces the inner markup of every match of selector.
func (p *Page) SetHTML(selector, markup string) {
	p.doc.Find(selector).SetHtml(markup)
}

// AppendHTML appends markup to every match of selector.
func (p *Page) AppendHTML(selector, markup string) {
	p.doc.Find(selector).AppendHtml(markup)
}

// Remove detaches every match of selector.
func (p *Page) Remove(selector string) {
	p.doc.Find(selector).Remove()
}

// Records returns a copy of the interaction log.
func (p *Page) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out
}

// RecordsOf returns the log filtered to the given kinds.
func (p *Page) RecordsOf(kinds ...string) []Record {
	var out []Record
	for _, r := range p.Records() {
		for _, k := range kinds {
			if r.Kind == k {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// IndexOf returns the position of the first record with target and kind, or -1.
func (p *Page) IndexOf(target, kind string) int {
	for i, r := range p.Records() {
		if r.Target == target && r.Kind == kind {
			return i
		}
	}
	return -1
}

// Navigations returns every URL assigned so far.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Banners returns every banner shown so far.
func (p *Page) Banners() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.banners...)
}

// ValueOf returns the current value of the first match of selector.
func (p *Page) ValueOf(selector string) string {
	el := p.Query(selector)
	if el == nil {
		return ""
	}
	return el.Value()
}

// CheckedOf returns the checked state of the first match of selector.
func (p *Page) CheckedOf(selector string) bool {
	el := p.Query(selector)
	if el == nil {
		return false
	}
	return el.Checked()
}

// Marked reports whether the first match of selector carries the highlight.
func (p *Page) Marked(selector string) bool {
	return p.doc.Find(selector).First().HasClass(MarkClass)
}

func (p *Page) record(n *html.Node, kind, detail string) {
	p.mu.Lock()
	p.records = append(p.records, Record{Target: describe(n), Kind: kind, Detail: detail})
	p.mu.Unlock()
}

func (p *Page) wrapAll(sel *goquery.Selection) []dom.Element {
	out := make([]dom.Element, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		out = append(out, &Element{p: p, n: n})
	}
	return out
}

func (p *Page) wrapFirst(sel *goquery.Selection) dom.Element {
	if len(sel.Nodes) == 0 {
		return nil
	}
	return &Element{p: p, n: sel.Nodes[0]}
}

func (p *Page) fire(kind string, el *Element) {
	for _, h := range p.handlers {
		if h.kind != kind {
			continue
		}
		matched := false
		if kind == "click" {
			matched = el.sel().Closest(h.selector).Length() > 0
		} else {
			matched = el.sel().Is(h.selector)
		}
		if matched {
			h.fn(p, el)
		}
	}
}

func describe(n *html.Node) string {
	for _, key := range []string{"id", "name", "data-testid"} {
		if v, ok := attr(n, key); ok && v != "" {
			switch key {
			case "id":
				return "#" + v
			default:
				return "[" + key + "=" + v + "]"
			}
		}
	}
	return n.Data
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// parseBox reads the test-only data-box="WxH" attribute.
func parseBox(v string) (dom.Box, bool) {
	w, h, ok := strings.Cut(v, "x")
	if !ok {
		return dom.Box{}, false
	}
	wf, err1 := strconv.ParseFloat(w, 64)
	hf, err2 := strconv.ParseFloat(h, 64)
	if err1 != nil || err2 != nil {
		return dom.Box{}, false
	}
	return dom.Box{Width: wf, Height: hf}, true
}
