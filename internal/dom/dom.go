// Package dom abstracts the live page the importer automates.
//
// The locator, filler and navigator only see these interfaces. The browser
// package implements them over playwright; domtest implements them over a
// parsed HTML tree for tests.
package dom

// Element is a node in the automated page. Read methods return zero values
// when the node has been detached; interaction methods return an error.
type Element interface {
	// Tag returns the lower-case tag name.
	Tag() string
	// Attr returns an attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Text returns the text content with whitespace collapsed.
	Text() string
	// Value returns the current form value (input, textarea, select).
	Value() string
	// Checked returns the checked state of a checkbox or radio.
	Checked() bool
	// Visible reports whether the element is rendered and not hidden.
	Visible() bool
	// Box returns the layout box; zero when not laid out.
	Box() Box

	QueryAll(selector string) []Element
	Query(selector string) Element
	// Closest returns the nearest ancestor-or-self matching selector.
	Closest(selector string) Element
	Parent() Element
	// Same reports whether other refers to the same node.
	Same(other Element) bool

	// Click performs the element's default click.
	Click() error
	// PointerClick dispatches pointerdown, mousedown, mouseup and click at the
	// centre of the element's box.
	PointerClick() error
	Focus() error
	Blur() error
	ScrollIntoView() error
	// SetNativeValue sets the value through the prototype property setter,
	// bypassing framework value interception. Dispatches nothing.
	SetNativeValue(value string) error
	// SetChecked forces the checked property. Dispatches nothing.
	SetChecked(checked bool) error
	// InsertText selects the element's entire content and replaces it through
	// the editing command path (rich text blocks).
	InsertText(text string) error
	Dispatch(ev Event) error
	// Mark adds the visible highlight outline.
	Mark() error
}

// Box is an element's layout rectangle.
type Box struct {
	X, Y, Width, Height float64
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Page is the top-level document of the automated tab.
type Page interface {
	// URL returns the current location href.
	URL() string
	// Navigate assigns a new location (history entry kept).
	Navigate(url string) error
	// Replace replaces the current location.
	Replace(url string) error
	QueryAll(selector string) []Element
	Query(selector string) Element
	// BodyText returns the rendered text of the document body.
	BodyText() string
	// Storage returns the page-scoped durable storage.
	Storage() Storage
	// Banner shows a transient message on the page.
	Banner(text string) error
}

// Storage is page-scoped key/value storage that survives navigation within
// the same tab.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Event is a synthetic DOM event.
type Event struct {
	Type      string // input, change, keydown, keyup, blur
	Key       string // keyboard events
	InputType string // input events: insertText, deleteContentBackward
	Data      string
}

// Common events.
var (
	InputEvent  = Event{Type: "input"}
	ChangeEvent = Event{Type: "change"}
	BlurEvent   = Event{Type: "blur"}
)

// KeyDown builds a keydown event.
func KeyDown(key string) Event { return Event{Type: "keydown", Key: key} }

// KeyUp builds a keyup event.
func KeyUp(key string) Event { return Event{Type: "keyup", Key: key} }

// InsertTextEvent builds an input event carrying typed data.
func InsertTextEvent(data string) Event {
	return Event{Type: "input", InputType: "insertText", Data: data}
}

// Root is anything that can be queried: a Page or an Element.
type Root interface {
	QueryAll(selector string) []Element
	Query(selector string) Element
}
