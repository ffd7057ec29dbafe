// Package discovery binds a document's physical selectable controls and
// strike widgets to the canonical numbered slots.
package discovery

import (
	"sort"

	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/schema"
	"github.com/a3tai/ahc-engine/internal/slots"
)

// Slots maps a canonical slot number to the field bound to it.
type Slots map[int]string

// Sorted returns the bound slot numbers in ascending order.
func (s Slots) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Fields returns the set of bound field names.
func (s Slots) Fields() map[string]bool {
	out := make(map[string]bool, len(s))
	for _, name := range s {
		out[name] = true
	}
	return out
}

// CheckResult is the outcome of check discovery.
type CheckResult struct {
	Checks Slots
	// Positional counts slots assigned by reading order.
	Positional int
}

// DiscoverChecks binds fields to canonical check slots. Names are normalized
// first, in declaration order with the first match winning; unassigned
// selectable controls then contribute the index in their own name; and as a
// last resort, when fewer than twenty slots are bound but at least twenty
// selectable controls exist, the remaining controls fill the lowest free
// slots in reading order.
func DiscoverChecks(fields []document.Field) CheckResult {
	checks := make(Slots)
	for _, f := range fields {
		n, ok := slots.Normalize(slots.Check, f.Name)
		if !ok {
			continue
		}
		if _, taken := checks[n]; !taken {
			checks[n] = f.Name
		}
	}

	var selectable []document.Field
	for _, f := range fields {
		if f.Kind.Selectable() {
			selectable = append(selectable, f)
		}
	}

	assigned := checks.Fields()
	for _, f := range selectable {
		if assigned[f.Name] {
			continue
		}
		n, ok := slots.ExtractIndex(f.Name)
		if !ok {
			continue
		}
		if _, taken := checks[n]; !taken {
			checks[n] = f.Name
			assigned[f.Name] = true
		}
	}

	res := CheckResult{Checks: checks}
	if len(checks) >= schema.SlotCount || len(selectable) < schema.SlotCount {
		return res
	}

	ordered := append([]document.Field(nil), selectable...)
	sortReadingOrder(ordered)
	for _, f := range ordered {
		if assigned[f.Name] {
			continue
		}
		n, ok := lowestFree(checks)
		if !ok {
			break
		}
		checks[n] = f.Name
		assigned[f.Name] = true
		res.Positional++
	}
	return res
}

// sortReadingOrder orders fields by page ascending, then top to bottom, left
// to right, then by name.
func sortReadingOrder(fields []document.Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		a, _ := fields[i].Position()
		b, _ := fields[j].Position()
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return fields[i].Name < fields[j].Name
	})
}

func lowestFree(s Slots) (int, bool) {
	for n := 1; n <= schema.SlotCount; n++ {
		if _, taken := s[n]; !taken {
			return n, true
		}
	}
	return 0, false
}

// StrikeResult is the outcome of strike discovery.
type StrikeResult struct {
	Strikes Slots
	// Like lists every strike-looking field in declaration order, whether
	// or not it was bound to a slot.
	Like []string
}

// DiscoverStrikes binds fields to canonical strike slots by name, then binds
// remaining strike-looking fields by the index in their name.
func DiscoverStrikes(fields []document.Field) StrikeResult {
	res := StrikeResult{Strikes: make(Slots)}
	for _, f := range fields {
		if n, ok := slots.Normalize(slots.Strike, f.Name); ok {
			if _, taken := res.Strikes[n]; !taken {
				res.Strikes[n] = f.Name
			}
		}
		if slots.IsStrikeLike(f.Name) {
			res.Like = append(res.Like, f.Name)
		}
	}

	assigned := res.Strikes.Fields()
	for _, name := range res.Like {
		if assigned[name] {
			continue
		}
		n, ok := slots.ExtractIndex(name)
		if !ok {
			continue
		}
		if _, taken := res.Strikes[n]; !taken {
			res.Strikes[n] = name
			assigned[name] = true
		}
	}
	return res
}
