package certificate

import (
	"fmt"
	"maps"

	"github.com/goccy/go-yaml"

	"github.com/a3tai/ahc-engine/internal/generate"
)

// Overrides is a per-template override record. Both YAML and JSON encodings
// are accepted.
type Overrides struct {
	TemplateCode string            `json:"template_code,omitempty" yaml:"template_code,omitempty"`
	Fields       map[string]string `json:"field_overrides,omitempty" yaml:"field_overrides,omitempty"`
	Categories   map[string]string `json:"crossout_categories,omitempty" yaml:"crossout_categories,omitempty"`
}

// Merge returns o with the entries of other layered on top.
func (o Overrides) Merge(other Overrides) Overrides {
	out := Overrides{
		TemplateCode: o.TemplateCode,
		Fields:       make(map[string]string, len(o.Fields)+len(other.Fields)),
		Categories:   make(map[string]string, len(o.Categories)+len(other.Categories)),
	}
	if other.TemplateCode != "" {
		out.TemplateCode = other.TemplateCode
	}
	maps.Copy(out.Fields, o.Fields)
	maps.Copy(out.Fields, other.Fields)
	maps.Copy(out.Categories, o.Categories)
	maps.Copy(out.Categories, other.Categories)
	return out
}

// DecodeOverrides parses an override record.
func DecodeOverrides(data []byte) (Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse override record: %w", err)
	}
	return o, nil
}

// DecodeSubmission parses a submission record in YAML or JSON.
func DecodeSubmission(data []byte) (generate.Submission, error) {
	var s generate.Submission
	if err := yaml.Unmarshal(data, &s); err != nil {
		return generate.Submission{}, fmt.Errorf("failed to parse submission: %w", err)
	}
	return s, nil
}
