package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/vmunix/fixturesync/internal/dom"
)

// Element is a dom.Element over a playwright element handle.
type Element struct {
	h playwright.ElementHandle
}

var _ dom.Element = (*Element)(nil)

func wrap(h playwright.ElementHandle) dom.Element {
	if h == nil {
		return nil
	}
	return &Element{h: h}
}

func wrapAll(hs []playwright.ElementHandle) []dom.Element {
	out := make([]dom.Element, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, &Element{h: h})
		}
	}
	return out
}

func (e *Element) eval(script string, arg ...any) (any, error) {
	return e.h.Evaluate(script, arg...)
}

func (e *Element) run(script string, arg ...any) error {
	if _, err := e.h.Evaluate(script, arg...); err != nil {
		return fmt.Errorf("element script: %w", err)
	}
	return nil
}

// handle resolves a script returning a node into an element.
func (e *Element) handle(script string, arg ...any) dom.Element {
	js, err := e.h.EvaluateHandle(script, arg...)
	if err != nil || js == nil {
		return nil
	}
	el := js.AsElement()
	if el == nil {
		_ = js.Dispose()
		return nil
	}
	return &Element{h: el}
}

// Tag implements dom.Element.
func (e *Element) Tag() string {
	v, _ := e.eval(jsTag)
	return asString(v)
}

// Attr implements dom.Element.
func (e *Element) Attr(name string) (string, bool) {
	v, err := e.eval(jsAttr, name)
	if err != nil || v == nil {
		return "", false
	}
	return asString(v), true
}

// Text implements dom.Element.
func (e *Element) Text() string {
	t, err := e.h.TextContent()
	if err != nil {
		return ""
	}
	return dom.CleanText(t)
}

// Value implements dom.Element.
func (e *Element) Value() string {
	v, _ := e.eval(jsValue)
	return asString(v)
}

// Checked implements dom.Element.
func (e *Element) Checked() bool {
	v, _ := e.eval(jsChecked)
	return asBool(v)
}

// Visible implements dom.Element.
func (e *Element) Visible() bool {
	ok, err := e.h.IsVisible()
	return err == nil && ok
}

// Box implements dom.Element.
func (e *Element) Box() dom.Box {
	r, err := e.h.BoundingBox()
	if err != nil || r == nil {
		return dom.Box{}
	}
	return dom.Box{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// QueryAll implements dom.Element.
func (e *Element) QueryAll(selector string) []dom.Element {
	hs, err := e.h.QuerySelectorAll(selector)
	if err != nil {
		return nil
	}
	return wrapAll(hs)
}

// Query implements dom.Element.
func (e *Element) Query(selector string) dom.Element {
	h, err := e.h.QuerySelector(selector)
	if err != nil {
		return nil
	}
	return wrap(h)
}

// Closest implements dom.Element.
func (e *Element) Closest(selector string) dom.Element {
	return e.handle(jsClosest, selector)
}

// Parent implements dom.Element.
func (e *Element) Parent() dom.Element {
	return e.handle(jsParent)
}

// Same implements dom.Element.
func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil {
		return false
	}
	v, _ := e.eval(jsSame, o.h)
	return asBool(v)
}

// Click implements dom.Element.
func (e *Element) Click() error { return e.run(jsClick) }

// PointerClick implements dom.Element.
func (e *Element) PointerClick() error { return e.run(jsPointerClick) }

// Focus implements dom.Element.
func (e *Element) Focus() error { return e.h.Focus() }

// Blur implements dom.Element.
func (e *Element) Blur() error { return e.run(jsBlur) }

// ScrollIntoView implements dom.Element.
func (e *Element) ScrollIntoView() error { return e.run(jsScroll) }

// SetNativeValue implements dom.Element.
func (e *Element) SetNativeValue(value string) error { return e.run(jsSetNativeValue, value) }

// SetChecked implements dom.Element.
func (e *Element) SetChecked(checked bool) error { return e.run(jsSetChecked, checked) }

// InsertText implements dom.Element.
func (e *Element) InsertText(text string) error { return e.run(jsInsertText, text) }

// Dispatch implements dom.Element.
func (e *Element) Dispatch(ev dom.Event) error { return e.run(jsDispatch, eventArg(ev)) }

// Mark implements dom.Element.
func (e *Element) Mark() error { return e.run(jsMark) }

// eventArg is the serialisable form of a synthetic event.
func eventArg(ev dom.Event) map[string]any {
	return map[string]any{
		"type":      ev.Type,
		"key":       ev.Key,
		"inputType": ev.InputType,
		"data":      ev.Data,
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
