package models

import (
	"fmt"
	"time"
)

// PresentationStyle is the widget layout.
type PresentationStyle int

const (
	// StyleCircular is a compact progress ring.
	StyleCircular PresentationStyle = iota
	// StyleRectangular is the wider block with labels.
	StyleRectangular
)

// String returns the style name.
func (s PresentationStyle) String() string {
	if s == StyleRectangular {
		return "rectangular"
	}
	return "circular"
}

// WidgetKind names a widget registered with the host.
type WidgetKind string

const (
	WidgetSmall  WidgetKind = "StepsWidgetSmall"
	WidgetMedium WidgetKind = "StepsWidgetMedium"
)

// AllWidgetKinds lists the widgets this app publishes.
var AllWidgetKinds = []WidgetKind{WidgetSmall, WidgetMedium}

// Style returns the presentation style the kind renders with.
func (k WidgetKind) Style() PresentationStyle {
	if k == WidgetMedium {
		return StyleRectangular
	}
	return StyleCircular
}

// ParseWidgetKind accepts the kind name or its short form ("small", "medium").
func ParseWidgetKind(s string) (WidgetKind, error) {
	switch s {
	case string(WidgetSmall), "small", "circular":
		return WidgetSmall, nil
	case string(WidgetMedium), "medium", "rectangular":
		return WidgetMedium, nil
	default:
		return "", fmt.Errorf("unknown widget kind %q", s)
	}
}

// WidgetEntry is one timeline entry shown by the widget host.
type WidgetEntry struct {
	AsOf            time.Time         `json:"asOf"`
	Steps           int               `json:"steps"`
	Goal            int               `json:"goal"`
	MonthlyAverage  int               `json:"monthlyAverage"`
	DurationMinutes int               `json:"durationMinutes"`
	Style           PresentationStyle `json:"-"`
	Placeholder     bool              `json:"placeholder,omitempty"`
}
