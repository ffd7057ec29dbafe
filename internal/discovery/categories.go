package discovery

import (
	"sort"

	"github.com/a3tai/ahc-engine/internal/schema"
	"github.com/a3tai/ahc-engine/internal/slots"
)

// Table maps a canonical check slot to the clause it controls.
type Table map[int]schema.Category

// Reasons a category override is dropped.
const (
	ReasonNotACheck       = "not_a_check_field"
	ReasonFieldNotFound   = "field_not_found"
	ReasonUnknownCategory = "unknown_category"
)

// DroppedCategory is a category override that was not applied.
type DroppedCategory struct {
	Field    string `json:"field"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// BuildTable binds every check-like field name to its canonical clause and
// applies the per-template overrides (field name to category). An override
// applies only when its name normalizes to a check slot, the name or its
// canonical form is a field of the document, and the category is known.
func BuildTable(fieldNames []string, overrides map[string]string) (Table, []DroppedCategory) {
	present := make(map[string]bool, len(fieldNames))
	table := make(Table)
	for _, name := range fieldNames {
		present[name] = true
		n, ok := slots.Normalize(slots.Check, name)
		if !ok {
			continue
		}
		if c, ok := schema.CategoryForSlot(n); ok {
			table[n] = c
		}
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	var dropped []DroppedCategory
	for _, name := range names {
		raw := overrides[name]
		drop := func(reason string) {
			dropped = append(dropped, DroppedCategory{Field: name, Category: raw, Reason: reason})
		}

		n, ok := slots.Normalize(slots.Check, name)
		if !ok {
			drop(ReasonNotACheck)
			continue
		}
		if !present[name] && !present[slots.CanonicalName(slots.Check, n)] {
			drop(ReasonFieldNotFound)
			continue
		}
		c := schema.Category(raw)
		if !schema.IsCategory(c) {
			drop(ReasonUnknownCategory)
			continue
		}
		table[n] = c
	}
	return table, dropped
}

// Effective completes table for rendering. Discovered slots without a clause
// inherit the canonical one, and when fewer than twenty slots were
// discovered every canonical slot is filled in so geometry can still render
// the missing clauses. It returns the completed table and the number of
// entries it inferred.
func Effective(discovered Slots, table Table) (Table, int) {
	eff := make(Table, schema.SlotCount)
	for n, c := range table {
		eff[n] = c
	}

	inferred := 0
	for _, n := range discovered.Sorted() {
		if _, ok := eff[n]; ok {
			continue
		}
		c, ok := schema.CategoryForSlot(n)
		if !ok {
			continue
		}
		eff[n] = c
		inferred++
	}

	if len(discovered) < schema.SlotCount {
		for n := 1; n <= schema.SlotCount; n++ {
			if _, ok := eff[n]; ok {
				continue
			}
			c, _ := schema.CategoryForSlot(n)
			eff[n] = c
			inferred++
		}
	}
	return eff, inferred
}

// Category returns the clause for slot n, falling back to the canonical one.
func (t Table) Category(n int) (schema.Category, bool) {
	if c, ok := t[n]; ok {
		return c, true
	}
	return schema.CategoryForSlot(n)
}

// Unresolved lists, in canonical order, the categories no slot controls.
func (t Table) Unresolved() []schema.Category {
	bound := make(map[schema.Category]bool, len(t))
	for _, c := range t {
		bound[c] = true
	}
	var out []schema.Category
	for _, c := range schema.Categories() {
		if !bound[c] {
			out = append(out, c)
		}
	}
	return out
}

// SlotsToCross returns, ascending, the slots whose clause is in set.
func (t Table) SlotsToCross(set schema.CategorySet) []int {
	var out []int
	for n, c := range t {
		if set.Has(c) {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
