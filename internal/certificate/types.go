package certificate

import (
	"github.com/a3tai/ahc-engine/internal/crossout"
	"github.com/a3tai/ahc-engine/internal/generate"
	"github.com/a3tai/ahc-engine/internal/mapping"
	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// TemplateFile describes a PDF in the template directory.
type TemplateFile struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// DetectRequest asks for the profile of a template.
type DetectRequest struct {
	Path string `json:"path"`
	Hint string `json:"hint,omitempty"`
}

// MapRequest asks for the field mapping of a template.
type MapRequest struct {
	Path           string            `json:"path"`
	Hint           string            `json:"hint,omitempty"`
	OverridesPath  string            `json:"overrides_path,omitempty"`
	FieldOverrides map[string]string `json:"field_overrides,omitempty"`
}

// CrossoutRequest asks which categories to strike. Facts win over a
// submission, which wins over a submission file.
type CrossoutRequest struct {
	Facts          *crossout.Facts      `json:"facts,omitempty"`
	Submission     *generate.Submission `json:"submission,omitempty"`
	SubmissionPath string               `json:"submission_path,omitempty"`
}

// GenerateRequest fills one template from a submission.
type GenerateRequest struct {
	Path              string               `json:"path"`
	Output            string               `json:"output,omitempty"`
	Template          generate.Template    `json:"template"`
	Submission        *generate.Submission `json:"submission,omitempty"`
	SubmissionPath    string               `json:"submission_path,omitempty"`
	OverridesPath     string               `json:"overrides_path,omitempty"`
	FieldOverrides    map[string]string    `json:"field_overrides,omitempty"`
	CategoryOverrides map[string]string    `json:"crossout_categories,omitempty"`
	Strict            *bool                `json:"strict,omitempty"`
}

// Response Types

// DetectResult is the detected profile of a template.
type DetectResult struct {
	Path    string       `json:"path"`
	Pages   int          `json:"pages"`
	Fields  int          `json:"fields"`
	Hint    string       `json:"hint"`
	Profile profile.Info `json:"profile"`
}

// MapResult is the resolved field mapping of a template.
type MapResult struct {
	Path                string         `json:"path"`
	Profile             profile.Info   `json:"profile"`
	Mapping             mapping.Result `json:"mapping"`
	MissingRequiredKeys []schema.Key   `json:"missing_required_canonical_keys"`
}

// CrossoutResult lists the categories to strike and their canonical slots.
type CrossoutResult struct {
	Facts      crossout.Facts    `json:"facts"`
	Categories []schema.Category `json:"categories_to_cross"`
	Slots      []int             `json:"check_slots"`
}

// GenerateResult is the outcome of one generation. OutputPath is empty when
// generation failed.
type GenerateResult struct {
	Path       string          `json:"path"`
	OutputPath string          `json:"output_path,omitempty"`
	Report     generate.Report `json:"report"`
}

// ServerInfo describes the running service.
type ServerInfo struct {
	ServerName        string         `json:"server_name"`
	Version           string         `json:"version"`
	TemplateDirectory string         `json:"template_directory"`
	OutputDirectory   string         `json:"output_directory"`
	Strict            bool           `json:"strict_template_compliance"`
	TextHint          bool           `json:"text_hint"`
	MaxFileSize       int64          `json:"max_file_size"`
	Templates         []TemplateFile `json:"templates"`
	Truncated         bool           `json:"truncated,omitempty"`
}
