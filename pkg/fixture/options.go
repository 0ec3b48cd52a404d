package fixture

import (
	"fmt"
	"strings"
)

// Mode selects how far the runner goes for each row.
type Mode string

const (
	// ModeFull fills the form and saves it.
	ModeFull Mode = "full"
	// ModeType fills the form without saving.
	ModeType Mode = "type"
	// ModeHighlight only marks the controls it would touch.
	ModeHighlight Mode = "highlight"
)

// ParseMode parses a mode name. Empty input yields ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeType:
		return ModeType, nil
	case ModeHighlight:
		return ModeHighlight, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want full, type or highlight)", s)
	}
}

// Mutates reports whether the mode is allowed to change page state.
func (m Mode) Mutates() bool {
	return m != ModeHighlight
}

// Saves reports whether the mode clicks save.
func (m Mode) Saves() bool {
	return m == ModeFull || m == ""
}

// Banner returns the operator-facing description of the mode.
func (m Mode) Banner() string {
	switch m {
	case ModeHighlight:
		return "Mode: Highlight only"
	case ModeType:
		return "Mode: Type only (no save)"
	default:
		return "Mode: Full run (type + save)"
	}
}

// Options configures an import run.
type Options struct {
	Mode         Mode `json:"mode"`
	ValidateOnly bool `json:"validateOnly,omitempty"`
	// Dedupe is accepted and persisted but not enforced.
	Dedupe bool `json:"dedupe,omitempty"`
}

// WithDefaults fills an empty mode with ModeFull.
func (o Options) WithDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeFull
	}
	return o
}
