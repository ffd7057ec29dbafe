// Package render applies a cross-out decision to a document, either by
// toggling paired check and strike controls or by drawing strike rows built
// from the reference geometry.
package render

import (
	"log/slog"
	"math"

	"github.com/a3tai/ahc-engine/internal/discovery"
	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/errors"
	"github.com/a3tai/ahc-engine/internal/geometry"
	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/schema"
	"github.com/a3tai/ahc-engine/internal/slots"
)

// Line drawing constants, in PDF user space units.
const (
	// widgetLineLength is the length of a line drawn from a check box whose
	// strike widget is unusable.
	widgetLineLength    = 420.0
	widgetLineThickness = 0.8
	// rowThickness is used for geometry rows in documents with check boxes.
	rowThickness = 0.45
	// reducedRowThickness is used for geometry rows in reduced documents.
	reducedRowThickness = 0.6
	rightMargin         = 24.0
	minLineLength       = 2.0
)

// Input is everything one rendering pass needs.
type Input struct {
	Profile profile.Info
	// Cross is the set of categories to strike.
	Cross schema.CategorySet
	// Table is the effective check slot to category table.
	Table   discovery.Table
	Checks  discovery.Slots
	Strikes discovery.StrikeResult
	Hint    string
}

// Result summarizes what was rendered.
type Result struct {
	Crossed int `json:"crossed"`
	// Toggled lists categories struck through a paired strike widget.
	Toggled []schema.Category `json:"toggled"`
	// Drawn lists categories struck with drawn lines.
	Drawn []schema.Category `json:"drawn"`
	// Unrendered lists categories to cross that nothing could render.
	Unrendered []schema.Category `json:"unrendered"`
	Shift      *geometry.Shift   `json:"shift,omitempty"`
	Lines      int               `json:"lines"`
	PreHidden  int               `json:"pre_hidden"`
}

// Renderer draws cross-outs against one reference layout.
type Renderer struct {
	ref    *geometry.Reference
	logger *slog.Logger
}

// New creates a renderer. A nil logger discards output.
func New(ref *geometry.Reference, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{ref: ref, logger: logger}
}

// pass carries per-document rendering state.
type pass struct {
	*Renderer
	doc       document.Document
	in        Input
	pageCount int

	toggled    schema.CategorySet
	drawn      schema.CategorySet
	unrendered schema.CategorySet
	res        Result
}

// Render applies in to doc. Documents of the reduced TextN profile that yield
// no anchors or no rows fail with a geometry error; every other shortfall is
// reported in the result.
func (r *Renderer) Render(doc document.Document, in Input) (Result, error) {
	p := &pass{
		Renderer:   r,
		doc:        doc,
		in:         in,
		pageCount:  len(doc.Pages()),
		toggled:    schema.NewCategorySet(),
		drawn:      schema.NewCategorySet(),
		unrendered: schema.NewCategorySet(),
	}

	var err error
	if in.Profile.Profile == profile.TextNReduced {
		err = p.reduced()
	} else {
		p.checked()
	}
	if err != nil {
		return Result{}, err
	}

	p.res.Toggled = p.toggled.Sorted()
	p.res.Drawn = p.drawn.Sorted()
	p.res.Unrendered = p.unrendered.Sorted()
	return p.res, nil
}

// checked renders documents that expose check boxes: every discovered check
// is toggled, paired strike widgets are shown, and the rest fall back to
// drawn lines. Documents flagged for reduced rendering strike every crossed
// clause from the calibrated geometry instead of from the check widgets.
func (p *pass) checked() {
	for _, name := range p.in.Strikes.Like {
		if err := p.doc.SetVisible(name, false); err == nil {
			p.res.PreHidden++
		}
	}

	cross := make(map[int]bool)
	for _, n := range p.in.Table.SlotsToCross(p.in.Cross) {
		cross[n] = true
	}

	p.logger.Info("rendering cross-outs",
		"profile", p.in.Profile.Profile,
		"checks", len(p.in.Checks),
		"strikes", len(p.in.Strikes.Strikes),
		"strike_like", len(p.in.Strikes.Like),
		"pre_hidden", p.res.PreHidden,
		"categories", p.in.Cross.Sorted())

	paired := p.in.Profile.UsesPairedRendering()
	var needLine, needGeometry []int
	for _, n := range p.in.Checks.Sorted() {
		field := p.in.Checks[n]
		should := cross[n]
		if err := p.doc.SetChecked(field, should); err != nil {
			p.logger.Warn("selectable toggle failed", "field", field, "error", err)
		} else if should {
			p.res.Crossed++
		}
		if !should {
			continue
		}

		strike, ok := p.in.Strikes.Strikes[n]
		if !paired || !ok {
			needLine = append(needLine, n)
			continue
		}
		if err := p.doc.SetVisible(strike, true); err != nil {
			p.logger.Warn("strike show failed", "field", strike, "error", err)
			needLine = append(needLine, n)
			continue
		}
		p.toggled.Add(p.category(n))
	}

	if p.in.Profile.Capabilities.ReducedRendering {
		p.reducedOverlay(needLine)
		p.logger.Info("applied cross-outs", "crossed", p.res.Crossed, "discovered_checks", len(p.in.Checks))
		return
	}

	for _, n := range needLine {
		if !p.widgetLine(n, false, widgetLineThickness) {
			needGeometry = append(needGeometry, n)
		}
	}
	for _, n := range sortedKeys(cross) {
		if _, ok := p.in.Checks[n]; !ok {
			needGeometry = append(needGeometry, n)
		}
	}
	if len(needGeometry) > 0 {
		rows, _ := p.geometryRows(needGeometry)
		for _, n := range needGeometry {
			c := p.category(n)
			if p.rows(c, rows[n], rowThickness) == 0 {
				p.skip(c, n)
			}
		}
	}

	p.logger.Info("applied cross-outs", "crossed", p.res.Crossed, "discovered_checks", len(p.in.Checks))
}

// reducedOverlay strikes every slot whose reference clause is crossed. Check
// widget lines are drawn only when no reference segment lands on the document.
func (p *pass) reducedOverlay(needLine []int) {
	var targets []int
	for _, n := range allSlots() {
		if c, ok := schema.CategoryForSlot(n); ok && p.in.Cross.Has(c) {
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 {
		return
	}

	rows, resolved := p.geometryRows(targets)
	if resolved {
		for _, n := range targets {
			c, _ := schema.CategoryForSlot(n)
			if p.rows(c, rows[n], rowThickness) == 0 {
				p.skip(c, n)
			}
		}
		return
	}

	p.logger.Info("no reference segments resolved; drawing rows from check widgets")
	for _, n := range needLine {
		if !p.widgetLine(n, true, rowThickness) {
			p.skip(p.category(n), n)
		}
	}
	for _, n := range p.in.Table.SlotsToCross(p.in.Cross) {
		if _, ok := p.in.Checks[n]; !ok {
			p.skip(p.category(n), n)
		}
	}
}

// widgetLine draws a line from each widget of the check in slot n. Fitted
// lines end at the widget's right edge when it is wider than minLineLength.
// It reports false when the check has no widget to start from.
func (p *pass) widgetLine(n int, fitted bool, thickness float64) bool {
	f, ok := p.doc.Field(p.in.Checks[n])
	if !ok || len(f.Widgets) == 0 {
		p.logger.Warn("overlay locate failed: no selectable widgets", "field", p.in.Checks[n])
		return false
	}
	drew := false
	for _, w := range f.Widgets {
		end := w.X + widgetLineLength
		if fitted && w.W > minLineLength {
			end = w.Right()
		}
		if p.line(w, end, thickness) {
			drew = true
		}
	}
	if drew {
		p.drawn.Add(p.category(n))
	}
	return drew
}

// geometryRows calibrates the reference layout against the discovered checks
// and returns the rows of each requested slot. It reports whether any
// reference segment of the targets landed on the document.
func (p *pass) geometryRows(targets []int) (map[int][]document.Rect, bool) {
	actual := p.actualAnchors()
	shift, ok := p.ref.ComputeShift(actual)
	if !ok {
		if off, hinted := p.ref.HintOffset(p.in.Hint); hinted {
			shift, ok = geometry.Shift{PageDelta: off}, true
		}
	}
	if ok {
		p.res.Shift = &shift
		p.logger.Info("geometry alignment shift",
			"page_delta", shift.PageDelta,
			"dx", shift.DX,
			"dy", shift.DY,
			"anchors", shift.Anchors,
			"page_only", shift.PageOnly())
	} else {
		p.logger.Info("geometry alignment shift unavailable: no check anchors discovered")
	}

	anchors := p.ref.AnchorsFor(allSlots(), actual, shift, p.pageCount)
	segments := p.ref.SegmentsFor(targets, shift, p.pageCount)
	return geometry.BuildRows(targets, segments, anchors), len(segments) > 0
}

// reduced renders reduced TextN documents entirely from the uncalibrated
// reference geometry.
func (p *pass) reduced() error {
	shift := geometry.Shift{}
	if off, ok := p.ref.HintOffset(p.in.Hint); ok {
		shift.PageDelta = off
	}
	p.res.Shift = &shift
	p.logger.Info("reduced rendering from reference geometry", "hint", p.in.Hint, "page_delta", shift.PageDelta)

	all := allSlots()
	anchors := p.ref.AnchorsFor(all, nil, shift, p.pageCount)
	segments := p.ref.SegmentsFor(all, shift, p.pageCount)
	if len(anchors) == 0 || len(segments) == 0 {
		return errors.New(errors.ErrorTypeGeometryFailure, "reduced rendering failed: no geometry anchors or segments resolved").
			WithContext("profile " + string(p.in.Profile.Profile))
	}
	rows := geometry.BuildRows(all, segments, anchors)
	if len(rows) == 0 {
		return errors.New(errors.ErrorTypeGeometryFailure, "reduced rendering failed: no strike rows resolved").
			WithContext("profile " + string(p.in.Profile.Profile))
	}

	// Loosely named check boxes would duplicate the drawn rows.
	for _, f := range p.doc.Fields() {
		if !f.Kind.Selectable() {
			continue
		}
		if canonical, ok := slots.NormalizeName(slots.Check, f.Name); ok && canonical != f.Name {
			if err := p.doc.SetVisible(f.Name, false); err != nil {
				p.logger.Warn("hide legacy check failed", "field", f.Name, "error", err)
			}
		}
	}

	for _, n := range all {
		c := p.category(n)
		should := p.in.Cross.Has(c)

		if f, ok := p.doc.Field(slots.CanonicalName(slots.Check, n)); ok && f.Kind.Selectable() {
			if err := p.doc.SetChecked(f.Name, should); err != nil {
				p.logger.Warn("selectable toggle failed", "field", f.Name, "error", err)
			}
		}

		if strike, ok := p.in.Strikes.Strikes[n]; ok {
			if err := p.doc.SetVisible(strike, should); err == nil {
				if should {
					p.toggled.Add(c)
					p.res.Crossed++
				}
				continue
			}
			p.logger.Warn("strike toggle failed", "field", strike)
		}

		if !should {
			continue
		}
		if p.rows(c, rows[n], reducedRowThickness) == 0 {
			p.skip(c, n)
			continue
		}
		p.res.Crossed++
	}

	p.logger.Info("applied reduced cross-outs", "crossed", p.res.Crossed, "lines", p.res.Lines)
	return nil
}

// rows draws the rows of category c and returns how many lines were drawn.
func (p *pass) rows(c schema.Category, rows []document.Rect, thickness float64) int {
	drawn := 0
	for _, row := range rows {
		if p.line(row, row.Right(), thickness) {
			drawn++
		}
	}
	if drawn > 0 {
		p.drawn.Add(c)
	}
	return drawn
}

// line draws a horizontal line through the vertical center of r from its
// left edge to end, clamped to the right page margin. Lines shorter than
// minLineLength are skipped.
func (p *pass) line(r document.Rect, end, thickness float64) bool {
	if r.Page < 0 || r.Page >= p.pageCount {
		return false
	}
	end = math.Min(end, document.PageWidth(p.doc, r.Page)-rightMargin)
	if end <= r.X+minLineLength {
		return false
	}
	err := p.doc.DrawRect(document.Rect{
		Page: r.Page,
		X:    r.X,
		Y:    r.CenterY() - thickness/2,
		W:    end - r.X,
		H:    thickness,
	})
	if err != nil {
		p.logger.Warn("draw failed", "page", r.Page+1, "error", err)
		return false
	}
	p.res.Lines++
	return true
}

func (p *pass) skip(c schema.Category, n int) {
	p.unrendered.Add(c)
	p.logger.Warn("no rows resolved for category; skipped", "category", c, "slot", n)
}

func (p *pass) category(n int) schema.Category {
	c, _ := p.in.Table.Category(n)
	return c
}

// actualAnchors returns the first widget of every discovered check.
func (p *pass) actualAnchors() map[int]document.Rect {
	out := make(map[int]document.Rect, len(p.in.Checks))
	for n, name := range p.in.Checks {
		f, ok := p.doc.Field(name)
		if !ok {
			continue
		}
		if r, ok := f.Position(); ok {
			out[n] = r
		}
	}
	return out
}

func allSlots() []int {
	out := make([]int, schema.SlotCount)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func sortedKeys(m map[int]bool) []int {
	out := discovery.Slots{}
	for n := range m {
		out[n] = ""
	}
	return out.Sorted()
}
