// Package geometry calibrates the stored reference layout against a concrete
// document and builds the strike rows for each clause.
package geometry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/schema"
)

//go:embed reference.yaml
var defaultReference []byte

// Reference is the static layout of the canonical certificate. Anchor and
// segment pages are raw page numbers counted from PageIndexBase.
type Reference struct {
	PageIndexBase   int                     `yaml:"page_index_base"`
	HintPageOffsets map[string]int          `yaml:"hint_page_offsets"`
	Anchors         map[int]document.Rect   `yaml:"anchors"`
	Segments        map[int][]document.Rect `yaml:"segments"`
}

var (
	defaultOnce sync.Once
	defaultRef  *Reference
	defaultErr  error
)

// Default returns the embedded reference layout.
func Default() (*Reference, error) {
	defaultOnce.Do(func() {
		defaultRef, defaultErr = Parse(defaultReference)
	})
	return defaultRef, defaultErr
}

// Load reads a replacement reference layout from a YAML file.
func Load(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference geometry: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a reference layout.
func Parse(data []byte) (*Reference, error) {
	var ref Reference
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse reference geometry: %w", err)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return &ref, nil
}

// Validate checks the page base and slot numbers.
func (r *Reference) Validate() error {
	if r.PageIndexBase != 0 && r.PageIndexBase != 1 {
		return fmt.Errorf("invalid page_index_base %d: must be 0 or 1", r.PageIndexBase)
	}
	if len(r.Anchors) == 0 {
		return fmt.Errorf("reference geometry has no anchors")
	}
	for n := range r.Anchors {
		if n < 1 || n > schema.SlotCount {
			return fmt.Errorf("anchor slot %d out of range", n)
		}
	}
	for n := range r.Segments {
		if n < 1 || n > schema.SlotCount {
			return fmt.Errorf("segment slot %d out of range", n)
		}
	}
	return nil
}

// ResolvePage converts a raw reference page number to a zero-based page
// index. When the declared base lands outside the document the other base is
// tried, for tables whose values were recorded with a different base.
func (r *Reference) ResolvePage(raw, pageCount int) (int, bool) {
	primary, legacy := raw, raw-1
	if r.PageIndexBase == 1 {
		primary, legacy = raw-1, raw
	}
	if primary >= 0 && primary < pageCount {
		return primary, true
	}
	if legacy >= 0 && legacy < pageCount {
		return legacy, true
	}
	return 0, false
}

// HintOffset returns the page offset for the first hint keyword (in sorted
// order) contained in hint.
func (r *Reference) HintOffset(hint string) (int, bool) {
	hint = strings.ToLower(hint)
	keys := make([]string, 0, len(r.HintPageOffsets))
	for k := range r.HintPageOffsets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k != "" && strings.Contains(hint, strings.ToLower(k)) {
			return r.HintPageOffsets[k], true
		}
	}
	return 0, false
}
