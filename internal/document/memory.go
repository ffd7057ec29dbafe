package document

import (
	"fmt"
	"sync"
)

// Memory is an in-memory Document. It records every mutation so callers can
// inspect what a pipeline did.
type Memory struct {
	mu      sync.Mutex
	pages   []Page
	fields  []Field
	index   map[string]int
	checked map[string]bool
	hidden  map[string]bool
	texts   map[string]string
	drawn   []Rect
}

// NewMemory builds a Memory document.
func NewMemory(pages []Page, fields []Field) *Memory {
	m := &Memory{
		pages:   pages,
		index:   make(map[string]int, len(fields)),
		checked: make(map[string]bool),
		hidden:  make(map[string]bool),
		texts:   make(map[string]string),
	}
	for _, f := range fields {
		if _, dup := m.index[f.Name]; dup {
			continue
		}
		m.index[f.Name] = len(m.fields)
		m.fields = append(m.fields, f)
	}
	return m
}

// Pages implements Document.
func (m *Memory) Pages() []Page {
	out := make([]Page, len(m.pages))
	copy(out, m.pages)
	return out
}

// Fields implements Document.
func (m *Memory) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field implements Document.
func (m *Memory) Field(name string) (Field, bool) {
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}

// SetChecked implements Document.
func (m *Memory) SetChecked(name string, checked bool) error {
	f, ok := m.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if !f.Kind.Selectable() {
		return fmt.Errorf("%w: %s is %s", ErrWrongKind, name, f.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked[name] = checked
	return nil
}

// SetVisible implements Document.
func (m *Memory) SetVisible(name string, visible bool) error {
	if _, ok := m.Field(name); !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden[name] = !visible
	return nil
}

// SetText implements Document.
func (m *Memory) SetText(name, value string) error {
	f, ok := m.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if f.Kind != KindText {
		return fmt.Errorf("%w: %s is %s", ErrWrongKind, name, f.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[name] = value
	return nil
}

// DrawRect implements Document.
func (m *Memory) DrawRect(r Rect) error {
	if r.Page < 0 || r.Page >= len(m.pages) {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, r.Page)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawn = append(m.drawn, r)
	return nil
}

// Checked reports the recorded selection state and whether one was set.
func (m *Memory) Checked(name string) (checked, set bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	checked, set = m.checked[name]
	return checked, set
}

// Hidden reports whether the field was hidden by the last SetVisible.
func (m *Memory) Hidden(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hidden[name]
}

// Text returns the recorded text value.
func (m *Memory) Text(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.texts[name]
	return v, ok
}

// Drawn returns the rectangles painted so far.
func (m *Memory) Drawn() []Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Rect, len(m.drawn))
	copy(out, m.drawn)
	return out
}
