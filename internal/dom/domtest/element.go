package domtest

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/vmunix/fixturesync/internal/dom"
)

// ErrDetached is returned when interacting with a node no longer in the tree.
var ErrDetached = errors.New("element detached")

// Element is a dom.Element over an html.Node.
type Element struct {
	p *Page
	n *html.Node
}

var _ dom.Element = (*Element)(nil)

// Node exposes the underlying node.
func (e *Element) Node() *html.Node { return e.n }

func (e *Element) sel() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.n).Selection
}

func (e *Element) attached() bool {
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			return true
		}
	}
	return false
}

// Tag implements dom.Element.
func (e *Element) Tag() string { return strings.ToLower(e.n.Data) }

// Attr implements dom.Element.
func (e *Element) Attr(name string) (string, bool) { return attr(e.n, name) }

// Text implements dom.Element.
func (e *Element) Text() string { return dom.CleanText(e.sel().Text()) }

// Value implements dom.Element.
func (e *Element) Value() string {
	e.p.mu.Lock()
	v, ok := e.p.values[e.n]
	e.p.mu.Unlock()
	if ok {
		return v
	}
	switch e.Tag() {
	case "textarea":
		return e.sel().Text()
	case "select":
		opts := e.sel().Find("option")
		chosen := opts.FilterFunction(func(_ int, s *goquery.Selection) bool {
			_, ok := s.Attr("selected")
			return ok
		})
		if chosen.Length() == 0 {
			chosen = opts.First()
		}
		if chosen.Length() == 0 {
			return ""
		}
		if v, ok := chosen.First().Attr("value"); ok {
			return v
		}
		return dom.CleanText(chosen.First().Text())
	}
	v, _ = attr(e.n, "value")
	return v
}

// Checked implements dom.Element.
func (e *Element) Checked() bool {
	e.p.mu.Lock()
	c, ok := e.p.checked[e.n]
	e.p.mu.Unlock()
	if ok {
		return c
	}
	_, c = attr(e.n, "checked")
	return c
}

// Visible implements dom.Element.
func (e *Element) Visible() bool {
	if !e.attached() {
		return false
	}
	if t, _ := attr(e.n, "type"); e.Tag() == "input" && t == "hidden" {
		return false
	}
	for n := e.n; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if _, ok := attr(n, "hidden"); ok {
			return false
		}
		style, _ := attr(n, "style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// Box implements dom.Element. Visible elements default to 100x24 unless a
// data-box="WxH" attribute overrides it.
func (e *Element) Box() dom.Box {
	if !e.Visible() {
		return dom.Box{}
	}
	if v, ok := attr(e.n, "data-box"); ok {
		if b, ok := parseBox(v); ok {
			return b
		}
	}
	return dom.Box{Width: 100, Height: 24}
}

// QueryAll implements dom.Element.
func (e *Element) QueryAll(selector string) []dom.Element {
	return e.p.wrapAll(e.sel().Find(selector))
}

// Query implements dom.Element.
func (e *Element) Query(selector string) dom.Element {
	return e.p.wrapFirst(e.sel().Find(selector))
}

// Closest implements dom.Element.
func (e *Element) Closest(selector string) dom.Element {
	return e.p.wrapFirst(e.sel().Closest(selector))
}

// Parent implements dom.Element.
func (e *Element) Parent() dom.Element {
	if e.n.Parent == nil || e.n.Parent.Type != html.ElementNode {
		return nil
	}
	return &Element{p: e.p, n: e.n.Parent}
}

// Same implements dom.Element.
func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	return ok && o != nil && o.n == e.n
}

// Click implements dom.Element. Disabled controls ignore clicks.
func (e *Element) Click() error {
	if !e.attached() {
		return ErrDetached
	}
	if dom.Disabled(e) {
		return nil
	}
	e.p.record(e.n, "click", "")
	e.activate()
	e.p.fire("click", e)
	return nil
}

func (e *Element) activate() {
	typ, _ := attr(e.n, "type")
	switch {
	case e.Tag() == "input" && typ == "checkbox":
		e.setChecked(!e.Checked())
	case e.Tag() == "input" && typ == "radio":
		e.setChecked(true)
	case e.Tag() == "label":
		if id, ok := attr(e.n, "for"); ok && id != "" {
			if target := e.p.doc.Find("#" + id); target.Length() > 0 {
				(&Element{p: e.p, n: target.Nodes[0]}).Click()
			}
			return
		}
		if nested := e.sel().Find("input").First(); nested.Length() > 0 {
			(&Element{p: e.p, n: nested.Nodes[0]}).Click()
		}
	}
}

// PointerClick implements dom.Element.
func (e *Element) PointerClick() error {
	if !e.attached() {
		return ErrDetached
	}
	for _, t := range []string{"pointerdown", "mousedown", "mouseup"} {
		e.p.record(e.n, t, "")
	}
	return e.Click()
}

// Focus implements dom.Element.
func (e *Element) Focus() error {
	if !e.attached() {
		return ErrDetached
	}
	e.p.record(e.n, "focus", "")
	return nil
}

// Blur implements dom.Element.
func (e *Element) Blur() error {
	if !e.attached() {
		return ErrDetached
	}
	e.p.record(e.n, "blur", "")
	e.p.fire("blur", e)
	return nil
}

// ScrollIntoView implements dom.Element.
func (e *Element) ScrollIntoView() error {
	if !e.attached() {
		return ErrDetached
	}
	return nil
}

// SetNativeValue implements dom.Element. A select only accepts values of its
// options; anything else clears it.
func (e *Element) SetNativeValue(value string) error {
	if !e.attached() {
		return ErrDetached
	}
	if e.Tag() == "select" {
		found := false
		e.sel().Find("option").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, ok := s.Attr("value")
			if !ok {
				v = dom.CleanText(s.Text())
			}
			found = v == value
			return !found
		})
		if !found {
			value = ""
		}
	}
	e.p.mu.Lock()
	e.p.values[e.n] = value
	e.p.mu.Unlock()
	e.p.record(e.n, "value", value)
	return nil
}

// SetChecked implements dom.Element.
func (e *Element) SetChecked(checked bool) error {
	if !e.attached() {
		return ErrDetached
	}
	e.setChecked(checked)
	return nil
}

func (e *Element) setChecked(checked bool) {
	typ, _ := attr(e.n, "type")
	if checked && typ == "radio" {
		if name, ok := attr(e.n, "name"); ok {
			for _, n := range e.p.doc.Find(`input[type="radio"]`).Nodes {
				if other, _ := attr(n, "name"); other == name && n != e.n {
					e.p.mu.Lock()
					e.p.checked[n] = false
					e.p.mu.Unlock()
				}
			}
		}
	}
	e.p.mu.Lock()
	e.p.checked[e.n] = checked
	e.p.mu.Unlock()
	detail := "false"
	if checked {
		detail = "true"
	}
	e.p.record(e.n, "checked", detail)
}

// InsertText implements dom.Element.
func (e *Element) InsertText(text string) error {
	if !e.attached() {
		return ErrDetached
	}
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		c = next
	}
	e.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	e.p.record(e.n, "insertText", text)
	return nil
}

// Dispatch implements dom.Element.
func (e *Element) Dispatch(ev dom.Event) error {
	if !e.attached() {
		return ErrDetached
	}
	detail := ev.Key
	if ev.Data != "" {
		detail = ev.Data
	}
	e.p.record(e.n, ev.Type, detail)
	e.p.fire(ev.Type, e)
	return nil
}

// Mark implements dom.Element.
func (e *Element) Mark() error {
	if !e.attached() {
		return ErrDetached
	}
	cls, _ := attr(e.n, "class")
	if !strings.Contains(cls, MarkClass) {
		setAttr(e.n, "class", strings.TrimSpace(cls+" "+MarkClass))
	}
	e.p.record(e.n, "mark", "")
	return nil
}
