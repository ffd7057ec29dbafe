package generate

import (
	"strconv"
	"strings"

	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/mapping"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// FillResult counts the outcome of a fill.
type FillResult struct {
	Filled  int `json:"filled"`
	Missing int `json:"missing"`
	// ClearedRows counts text fields blanked because their declaration row
	// has no pet.
	ClearedRows int `json:"cleared_rows"`
}

// declarationNumberFields are field name prefixes of the per-row certificate
// number column. A numeric suffix is the zero-based row.
var declarationNumberFields = []string{"AHC number", "Animal health certificate number"}

// Clear blanks every text field and unchecks every selectable control. It
// returns the number of fields cleared.
func Clear(doc document.Document) int {
	n := 0
	for _, f := range doc.Fields() {
		var err error
		switch {
		case f.Kind == document.KindText:
			err = doc.SetText(f.Name, "")
		case f.Kind.Selectable():
			err = doc.SetChecked(f.Name, false)
		default:
			continue
		}
		if err == nil {
			n++
		}
	}
	return n
}

// Fill writes values through m into the document's text fields. A key counts
// as filled only when it is mapped, its field accepts text, and its value is
// non-empty. Declaration rows at or beyond petCount are blanked afterwards.
func Fill(doc document.Document, m mapping.Mapping, values map[schema.Key]string, petCount int) FillResult {
	var res FillResult
	for _, k := range schema.Keys() {
		field, ok := m.Field(k)
		if !ok {
			res.Missing++
			continue
		}
		value := values[k]
		if err := doc.SetText(field, value); err != nil || value == "" {
			res.Missing++
			continue
		}
		res.Filled++
	}

	for i := petCount; i < schema.MaxDeclarationRows; i++ {
		for _, suffix := range []string{schema.RowTransponder, schema.RowAHCNumber} {
			if field, ok := m.Field(schema.Row(i, suffix)); ok {
				if doc.SetText(field, "") == nil {
					res.ClearedRows++
				}
			}
		}
	}

	for _, f := range doc.Fields() {
		if f.Kind != document.KindText {
			continue
		}
		if row, ok := declarationRow(f.Name); ok && row >= petCount {
			if doc.SetText(f.Name, "") == nil {
				res.ClearedRows++
			}
		}
	}
	return res
}

// declarationRow returns the row addressed by a certificate number column
// field such as "AHC number" (row 0) or "AHC number3".
func declarationRow(name string) (int, bool) {
	for _, prefix := range declarationNumberFields {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		suffix := name[len(prefix):]
		if suffix == "" {
			return 0, true
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
