// Package generate runs the per-document certificate pipeline: clear, detect,
// map, fill, decide cross-outs, and render them.
package generate

import (
	"context"
	"log/slog"

	"github.com/a3tai/ahc-engine/internal/crossout"
	"github.com/a3tai/ahc-engine/internal/discovery"
	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/errors"
	"github.com/a3tai/ahc-engine/internal/geometry"
	"github.com/a3tai/ahc-engine/internal/mapping"
	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/render"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// Template describes the blank certificate a document was loaded from.
type Template struct {
	Code           string `json:"template_code" yaml:"template_code"`
	Name           string `json:"name" yaml:"name"`
	FirstCountry   string `json:"first_country_entry" yaml:"first_country_entry"`
	SecondLanguage string `json:"second_language_code" yaml:"second_language_code"`
	Path           string `json:"storage_path" yaml:"storage_path"`
}

// Hint joins the template's identifying text into a profile hint.
func (t Template) Hint() string {
	return joinNonEmpty(" ", t.Code, t.Name, t.FirstCountry, t.SecondLanguage, t.Path)
}

// Options are the per-request inputs besides the document and submission.
type Options struct {
	Template Template
	// TextHint is extra hint text, typically extracted from the first page.
	TextHint string
	// Strict disables strict compliance for this request when set to false.
	// It cannot enable strict mode when the generator has it off.
	Strict *bool
	// FieldOverrides maps canonical keys to field names.
	FieldOverrides map[string]string
	// CategoryOverrides maps check field names to categories.
	CategoryOverrides map[string]string
}

// Report describes one pipeline run.
type Report struct {
	Profile              profile.Info                `json:"profile"`
	Adapter              string                      `json:"adapter"`
	Mapped               int                         `json:"mapped_fields"`
	Cleared              int                         `json:"cleared"`
	Filled               int                         `json:"filled"`
	Missing              int                         `json:"missing"`
	ClearedRows          int                         `json:"cleared_rows"`
	Strict               bool                        `json:"strict_template_compliance"`
	MissingRequiredKeys  []schema.Key                `json:"missing_required_canonical_keys"`
	Categories           []schema.Category           `json:"categories_to_cross"`
	UnresolvedCategories []schema.Category           `json:"unresolved_categories"`
	InferredCategories   int                         `json:"inferred_categories"`
	PositionalChecks     int                         `json:"positional_checks"`
	DroppedOverrides     []mapping.DroppedOverride   `json:"dropped_overrides,omitempty"`
	DroppedCategories    []discovery.DroppedCategory `json:"dropped_categories,omitempty"`
	Render               render.Result               `json:"render"`
}

// Generator runs the pipeline against one reference layout.
type Generator struct {
	logger   *slog.Logger
	renderer *render.Renderer
	strict   bool
}

// New creates a generator. strict is the default compliance mode.
func New(ref *geometry.Reference, strict bool, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		logger:   logger,
		renderer: render.New(ref, logger),
		strict:   strict,
	}
}

// StrictFor resolves the compliance mode of a request.
func (g *Generator) StrictFor(opts Options) bool {
	return g.strict && (opts.Strict == nil || *opts.Strict)
}

// Run fills doc from sub and renders its cross-outs. When strict compliance
// rejects the document the partial report is returned with the error.
func (g *Generator) Run(ctx context.Context, doc document.Document, sub Submission, opts Options) (Report, error) {
	var rep Report
	rep.Strict = g.StrictFor(opts)

	fields := doc.Fields()
	rep.Cleared = Clear(doc)
	g.logger.Debug("cleared fields", "cleared", rep.Cleared, "total", len(fields))

	hint := joinNonEmpty(" ", opts.Template.Hint(), opts.TextHint)
	names := document.Names(doc)
	rep.Profile = profile.Detect(names, profile.Options{Hint: hint})
	g.logger.Info("detected profile",
		"profile", rep.Profile.Profile,
		"checks", rep.Profile.CheckCount,
		"strikes", rep.Profile.StrikeCount,
		"template", opts.Template.Code)

	resolved := mapping.Resolve(rep.Profile.Profile, mapping.NewFieldSet(names), opts.FieldOverrides)
	rep.Adapter = resolved.Adapter
	rep.Mapped = resolved.Resolved
	rep.DroppedOverrides = resolved.Dropped
	rep.MissingRequiredKeys = resolved.Mapping.Missing(schema.RequiredKeys())
	g.logger.Info("resolved field mapping", "adapter", rep.Adapter, "mapped", rep.Mapped, "missing_required", len(rep.MissingRequiredKeys))

	if rep.Strict && len(rep.MissingRequiredKeys) > 0 {
		return rep, errors.MissingKeys(keyStrings(rep.MissingRequiredKeys)).WithContext(opts.Template.Code)
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	fill := Fill(doc, resolved.Mapping, Values(sub), sub.PetCount())
	rep.Filled, rep.Missing, rep.ClearedRows = fill.Filled, fill.Missing, fill.ClearedRows
	g.logger.Info("filled fields", "filled", rep.Filled, "missing", rep.Missing)

	cross := crossout.Compute(sub.Facts())
	rep.Categories = cross.Sorted()

	table, dropped := discovery.BuildTable(names, opts.CategoryOverrides)
	rep.DroppedCategories = dropped
	checks := discovery.DiscoverChecks(fields)
	rep.PositionalChecks = checks.Positional
	effective, inferred := discovery.Effective(checks.Checks, table)
	rep.InferredCategories = inferred
	if inferred > 0 {
		g.logger.Info("check mapping completed with inferred categories", "inferred", inferred)
	}

	rep.UnresolvedCategories = effective.Unresolved()
	if rep.Strict && len(rep.UnresolvedCategories) > 0 {
		return rep, errors.UnresolvedCategories(categoryStrings(rep.UnresolvedCategories)).WithContext(opts.Template.Code)
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	res, err := g.renderer.Render(doc, render.Input{
		Profile: rep.Profile,
		Cross:   cross,
		Table:   effective,
		Checks:  checks.Checks,
		Strikes: discovery.DiscoverStrikes(fields),
		Hint:    hint,
	})
	if err != nil {
		return rep, err
	}
	rep.Render = res
	return rep, nil
}

func keyStrings(keys []schema.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func categoryStrings(cs []schema.Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
