// Package mapping resolves canonical data keys onto the concrete field
// identifiers of one document.
package mapping

import "regexp"

// FieldSet is the ordered set of field identifiers declared by a document.
// Order matters: regex fallbacks take the first match in declaration order.
type FieldSet struct {
	names   []string
	present map[string]bool
}

// NewFieldSet builds a FieldSet, dropping duplicate names.
func NewFieldSet(names []string) FieldSet {
	fs := FieldSet{present: make(map[string]bool, len(names))}
	for _, n := range names {
		if fs.present[n] {
			continue
		}
		fs.present[n] = true
		fs.names = append(fs.names, n)
	}
	return fs
}

// Has reports whether name is declared.
func (fs FieldSet) Has(name string) bool { return fs.present[name] }

// Names returns the identifiers in declaration order.
func (fs FieldSet) Names() []string {
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

// Len returns the number of distinct identifiers.
func (fs FieldSet) Len() int { return len(fs.names) }

// pick returns the first candidate that exists.
func (fs FieldSet) pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" && fs.present[c] {
			return c
		}
	}
	return ""
}

// match returns the first declared name matching re.
func (fs FieldSet) match(re *regexp.Regexp) string {
	for _, n := range fs.names {
		if re.MatchString(n) {
			return n
		}
	}
	return ""
}
