// Package document is the form-document surface the engine works against:
// pages, fields with their widget rectangles, selection state, widget
// visibility, text values, and drawn overlay rectangles.
package document

import (
	"errors"
	"math"
)

// Kind is the resolved type of a form field.
type Kind int

const (
	KindUnknown   Kind = iota
	KindText
	KindCheckbox
	KindRadio
	KindButton
	KindChoice
	KindSignature
)

// String returns the field kind name
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCheckbox:
		return "checkbox"
	case KindRadio:
		return "radio"
	case KindButton:
		return "button"
	case KindChoice:
		return "choice"
	case KindSignature:
		return "signature"
	default:
		return "unknown"
	}
}

// Selectable reports whether the kind has an on/off state.
func (k Kind) Selectable() bool {
	return k == KindCheckbox || k == KindRadio
}

// Rect is an axis-aligned rectangle on a zero-based page, in PDF user space
// with (X, Y) at the lower-left corner.
type Rect struct {
	Page int     `json:"page" yaml:"page"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	W    float64 `json:"w" yaml:"w"`
	H    float64 `json:"h" yaml:"h"`
}

// CenterY returns the vertical center.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Page is one page of the document.
type Page struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Field is a terminal form field.
type Field struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Widgets []Rect `json:"widgets,omitempty"`
}

// Position returns the first widget, or a sentinel that sorts after every
// real widget in reading order (page 0, +Inf x, -Inf y).
func (f Field) Position() (Rect, bool) {
	if len(f.Widgets) == 0 {
		return Rect{Page: 0, X: math.Inf(1), Y: math.Inf(-1)}, false
	}
	return f.Widgets[0], true
}

// Document is a loaded form document.
type Document interface {
	// Pages lists the pages in order.
	Pages() []Page
	// Fields lists terminal fields in declaration order.
	Fields() []Field
	// Field looks a field up by its fully qualified name.
	Field(name string) (Field, bool)
	// SetChecked selects or clears a checkbox or radio group.
	SetChecked(name string, checked bool) error
	// SetVisible shows or hides every widget of a field.
	SetVisible(name string, visible bool) error
	// SetText writes a text field value.
	SetText(name, value string) error
	// DrawRect paints a filled rectangle over the page content.
	DrawRect(r Rect) error
}

var (
	// ErrFieldNotFound is returned for names the document does not declare.
	ErrFieldNotFound = errors.New("field not found")
	// ErrWrongKind is returned when an operation does not apply to the field.
	ErrWrongKind = errors.New("operation not supported for field kind")
	// ErrPageOutOfRange is returned for draw requests on a missing page.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Names returns field names in declaration order.
func Names(d Document) []string {
	fields := d.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// PageWidth returns the width of page index, or 0 when out of range.
func PageWidth(d Document, index int) float64 {
	for _, p := range d.Pages() {
		if p.Index == index {
			return p.Width
		}
	}
	return 0
}
