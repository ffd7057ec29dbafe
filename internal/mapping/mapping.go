package mapping

import (
	"encoding/json"
	"sort"

	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// Mapping is a total function from the canonical vocabulary to field
// identifiers. An empty value means the key is unresolved for the document.
type Mapping map[schema.Key]string

// New returns a mapping with every canonical key unresolved.
func New() Mapping {
	m := make(Mapping, len(schema.Keys()))
	for _, k := range schema.Keys() {
		m[k] = ""
	}
	return m
}

// Field returns the field bound to k.
func (m Mapping) Field(k schema.Key) (string, bool) {
	f := m[k]
	return f, f != ""
}

// set binds k unless it is already resolved.
func (m Mapping) set(k schema.Key, field string) {
	if field == "" || m[k] != "" {
		return
	}
	m[k] = field
}

// Resolved returns the number of bound keys.
func (m Mapping) Resolved() int {
	n := 0
	for _, f := range m {
		if f != "" {
			n++
		}
	}
	return n
}

// Missing returns the keys of required that are unresolved, in input order.
func (m Mapping) Missing(required []schema.Key) []schema.Key {
	var out []schema.Key
	for _, k := range required {
		if m[k] == "" {
			out = append(out, k)
		}
	}
	return out
}

// MarshalJSON writes the vocabulary in canonical order with nulls for
// unresolved keys.
func (m Mapping) MarshalJSON() ([]byte, error) {
	keys := make([]schema.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return schema.KeyOrder(keys[i]) < schema.KeyOrder(keys[j]) })

	out := make(map[string]*string, len(keys))
	for _, k := range keys {
		if f := m[k]; f != "" {
			out[string(k)] = &f
		} else {
			out[string(k)] = nil
		}
	}
	return json.Marshal(out)
}

// Override rejection reasons.
const (
	ReasonFieldNotFound       = "field_not_found"
	ReasonUnknownCanonicalKey = "unknown_canonical_key"
)

// DroppedOverride is an override that could not be applied.
type DroppedOverride struct {
	Key    string `json:"canonical_key"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result is the outcome of resolving one document.
type Result struct {
	Adapter  string            `json:"adapter"`
	Mapping  Mapping           `json:"mapping"`
	Dropped  []DroppedOverride `json:"dropped_overrides,omitempty"`
	Profile  profile.Profile   `json:"profile"`
	Resolved int               `json:"resolved"`
}

// Resolve maps every canonical key onto fields using the adapter for p, then
// applies overrides. Overrides win over adapter results but are only accepted
// when the target field exists.
func Resolve(p profile.Profile, fields FieldSet, overrides map[string]string) Result {
	a := adapterFor(p)
	m := a.resolve(fields)
	dropped := applyOverrides(m, fields, overrides)
	return Result{
		Adapter:  a.id,
		Mapping:  m,
		Dropped:  dropped,
		Profile:  p,
		Resolved: m.Resolved(),
	}
}

func applyOverrides(m Mapping, fields FieldSet, overrides map[string]string) []DroppedOverride {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dropped []DroppedOverride
	for _, k := range keys {
		field := overrides[k]
		switch {
		case !schema.IsKey(schema.Key(k)):
			dropped = append(dropped, DroppedOverride{Key: k, Field: field, Reason: ReasonUnknownCanonicalKey})
		case field == "" || !fields.Has(field):
			dropped = append(dropped, DroppedOverride{Key: k, Field: field, Reason: ReasonFieldNotFound})
		default:
			m[schema.Key(k)] = field
		}
	}
	return dropped
}
