package document

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Annotation flag bits (PDF 32000-1, 12.5.3).
const (
	annotInvisible = 1
	annotHidden    = 2
	annotPrint     = 4
	annotNoView    = 32
)

// Field flag bits for button fields.
const (
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
)

// Fallback page size when a page carries no usable MediaBox (A4).
const (
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0
)

// PDF is a Document backed by a pdfcpu context. Mutations are applied to the
// in-memory object graph; rectangles are buffered per page and emitted as an
// appended content stream by Write.
type PDF struct {
	mu       sync.Mutex
	ctx      *model.Context
	acroForm types.Dict
	pages    []Page
	pageDict []types.Dict
	fields   []Field
	index    map[string]int
	nodes    []fieldNode
	pending  map[int][]Rect
}

type fieldNode struct {
	dict    types.Dict
	widgets []types.Dict
}

// OpenFile loads a PDF form document from disk.
func OpenFile(path string) (*PDF, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	return Open(file)
}

// Open loads a PDF form document from a reader.
func Open(rs io.ReadSeeker) (*PDF, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	p := &PDF{
		ctx:     ctx,
		index:   make(map[string]int),
		pending: make(map[int][]Rect),
	}
	pageByObj, err := p.loadPages()
	if err != nil {
		return nil, err
	}
	if err := p.loadFields(pageByObj); err != nil {
		return nil, err
	}
	return p, nil
}

// loadPages records page sizes and returns a lookup from page and annotation
// object numbers to zero-based page index.
func (p *PDF) loadPages() (map[int]int, error) {
	pageByObj := make(map[int]int)
	for nr := 1; nr <= p.ctx.PageCount; nr++ {
		pd, ref, inh, err := p.ctx.PageDict(nr, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", nr, err)
		}
		idx := nr - 1

		width, height := defaultPageWidth, defaultPageHeight
		if inh != nil && inh.MediaBox != nil {
			width, height = inh.MediaBox.Width(), inh.MediaBox.Height()
		} else if w, h, ok := p.boxSize(pd, "MediaBox"); ok {
			width, height = w, h
		}
		p.pages = append(p.pages, Page{Index: idx, Width: width, Height: height})
		p.pageDict = append(p.pageDict, pd)

		if ref != nil {
			pageByObj[ref.ObjectNumber.Value()] = idx
		}
		if annotsObj, found := pd.Find("Annots"); found {
			annots, err := p.ctx.DereferenceArray(annotsObj)
			if err != nil {
				continue
			}
			for _, a := range annots {
				if ir, ok := a.(types.IndirectRef); ok {
					pageByObj[ir.ObjectNumber.Value()] = idx
				}
			}
		}
	}
	return pageByObj, nil
}

func (p *PDF) boxSize(pd types.Dict, key string) (float64, float64, bool) {
	obj, found := pd.Find(key)
	if !found {
		return 0, 0, false
	}
	arr, err := p.ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return 0, 0, false
	}
	c := make([]float64, 4)
	for i, v := range arr {
		f, err := p.ctx.DereferenceNumber(v)
		if err != nil {
			return 0, 0, false
		}
		c[i] = f
	}
	return c[2] - c[0], c[3] - c[1], true
}

func (p *PDF) loadFields(pageByObj map[int]int) error {
	rootDict, err := p.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil
	}
	acroFormDict, err := p.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil
	}
	p.acroForm = acroFormDict

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil
	}
	fieldsArray, err := p.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	w := &walker{p: p, pageByObj: pageByObj, seen: make(map[int]bool)}
	for _, obj := range fieldsArray {
		w.walk(obj, "", "", 0)
	}
	return nil
}

type walker struct {
	p         *PDF
	pageByObj map[int]int
	seen      map[int]bool
}

// walk descends the field tree. Kids carrying a partial name are child
// fields; kids without one are widget annotations of the current field.
func (w *walker) walk(obj types.Object, prefix, ft string, ff int) {
	ctx := w.p.ctx
	objNr := -1
	if ir, ok := obj.(types.IndirectRef); ok {
		objNr = ir.ObjectNumber.Value()
		if w.seen[objNr] {
			return
		}
		w.seen[objNr] = true
	}

	d, err := ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		return
	}

	name := prefix
	if tObj, found := d.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(tObj, model.V10, nil); err == nil && partial != "" {
			if name == "" {
				name = partial
			} else {
				name = prefix + "." + partial
			}
		}
	}
	if ftObj, found := d.Find("FT"); found {
		if n, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			ft = n.Value()
		}
	}
	if ffObj, found := d.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(ffObj); err == nil && flags != nil {
			ff = flags.Value()
		}
	}

	var childFields []types.Object
	var widgets []types.Object
	if kidsObj, found := d.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				kd, err := ctx.DereferenceDict(kid)
				if err != nil || kd == nil {
					continue
				}
				if _, named := kd.Find("T"); named {
					childFields = append(childFields, kid)
				} else {
					widgets = append(widgets, kid)
				}
			}
		}
	}

	if len(childFields) > 0 {
		for _, kid := range childFields {
			w.walk(kid, name, ft, ff)
		}
		return
	}
	if name == "" {
		return
	}

	node := fieldNode{dict: d}
	field := Field{Name: name, Kind: kindFor(ft, ff)}
	if len(widgets) == 0 {
		if _, found := d.Find("Rect"); found {
			widgets = append(widgets, obj)
		}
	}
	for _, wObj := range widgets {
		wd, err := ctx.DereferenceDict(wObj)
		if err != nil || wd == nil {
			continue
		}
		rect, ok := w.widgetRect(wObj, wd)
		if !ok {
			continue
		}
		node.widgets = append(node.widgets, wd)
		field.Widgets = append(field.Widgets, rect)
	}

	if _, dup := w.p.index[name]; dup {
		return
	}
	w.p.index[name] = len(w.p.fields)
	w.p.fields = append(w.p.fields, field)
	w.p.nodes = append(w.p.nodes, node)
}

// widgetRect reads the normalized Rect and resolves the page through /P,
// falling back to the page whose /Annots lists the widget.
func (w *walker) widgetRect(obj types.Object, wd types.Dict) (Rect, bool) {
	ctx := w.p.ctx
	rectObj, found := wd.Find("Rect")
	if !found {
		return Rect{}, false
	}
	arr, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(arr) != 4 {
		return Rect{}, false
	}
	coords := make([]float64, 4)
	for i, c := range arr {
		if f, err := ctx.DereferenceNumber(c); err == nil {
			coords[i] = f
		}
	}
	x1, x2 := minMax(coords[0], coords[2])
	y1, y2 := minMax(coords[1], coords[3])
	r := Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}

	if pObj, found := wd.Find("P"); found {
		if ir, ok := pObj.(types.IndirectRef); ok {
			if idx, ok := w.pageByObj[ir.ObjectNumber.Value()]; ok {
				r.Page = idx
				return r, true
			}
		}
	}
	if ir, ok := obj.(types.IndirectRef); ok {
		if idx, ok := w.pageByObj[ir.ObjectNumber.Value()]; ok {
			r.Page = idx
		}
	}
	return r, true
}

func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

// kindFor resolves the field kind from the (inherited) FT and Ff entries.
func kindFor(ft string, ff int) Kind {
	switch ft {
	case "Btn":
		switch {
		case ff&flagRadio != 0:
			return KindRadio
		case ff&flagPushbutton != 0:
			return KindButton
		default:
			return KindCheckbox
		}
	case "Tx":
		return KindText
	case "Ch":
		return KindChoice
	case "Sig":
		return KindSignature
	default:
		return KindUnknown
	}
}

// Pages implements Document.
func (p *PDF) Pages() []Page {
	out := make([]Page, len(p.pages))
	copy(out, p.pages)
	return out
}

// Fields implements Document.
func (p *PDF) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Field implements Document.
func (p *PDF) Field(name string) (Field, bool) {
	i, ok := p.index[name]
	if !ok {
		return Field{}, false
	}
	return p.fields[i], true
}

func (p *PDF) lookup(name string) (Field, fieldNode, error) {
	i, ok := p.index[name]
	if !ok {
		return Field{}, fieldNode{}, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	return p.fields[i], p.nodes[i], nil
}

// SetChecked implements Document. A checked radio group selects its first
// option.
func (p *PDF) SetChecked(name string, checked bool) error {
	f, node, err := p.lookup(name)
	if err != nil {
		return err
	}
	if !f.Kind.Selectable() {
		return fmt.Errorf("%w: %s is %s", ErrWrongKind, name, f.Kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	off := types.Name("Off")
	if !checked {
		node.dict["V"] = off
		for _, wd := range node.widgets {
			wd["AS"] = off
		}
		return nil
	}

	if f.Kind == KindRadio {
		chosen := "Yes"
		if len(node.widgets) > 0 {
			chosen = p.onState(node.widgets[0])
		}
		node.dict["V"] = types.Name(chosen)
		for _, wd := range node.widgets {
			if p.onState(wd) == chosen {
				wd["AS"] = types.Name(chosen)
			} else {
				wd["AS"] = off
			}
		}
		return nil
	}

	value := "Yes"
	for i, wd := range node.widgets {
		on := p.onState(wd)
		if i == 0 {
			value = on
		}
		wd["AS"] = types.Name(on)
	}
	node.dict["V"] = types.Name(value)
	return nil
}

// onState returns the widget's non-Off normal appearance state name.
func (p *PDF) onState(wd types.Dict) string {
	var keys []string
	if apObj, found := wd.Find("AP"); found {
		if ap, err := p.ctx.DereferenceDict(apObj); err == nil && ap != nil {
			if nObj, found := ap.Find("N"); found {
				if n, err := p.ctx.DereferenceDict(nObj); err == nil && n != nil {
					for k := range n {
						keys = append(keys, k)
					}
				}
			}
		}
	}
	return pickOnState(keys)
}

func pickOnState(keys []string) string {
	sort.Strings(keys)
	for _, k := range keys {
		if k != "Off" {
			return k
		}
	}
	return "Yes"
}

// SetVisible implements Document. Hidden widgets are also switched to the
// Off appearance state when they carry one.
func (p *PDF) SetVisible(name string, visible bool) error {
	_, node, err := p.lookup(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, wd := range node.widgets {
		flags := 0
		if fObj, found := wd.Find("F"); found {
			if v, err := p.ctx.DereferenceInteger(fObj); err == nil && v != nil {
				flags = v.Value()
			}
		}
		wd["F"] = types.Integer(visibilityFlags(flags, visible))
		if !visible {
			if _, found := wd.Find("AS"); found {
				wd["AS"] = types.Name("Off")
			}
		}
	}
	return nil
}

// visibilityFlags returns the annotation flags with the print bit and the
// visibility bits set for the requested state.
func visibilityFlags(flags int, visible bool) int {
	hide := annotInvisible | annotHidden | annotNoView
	if visible {
		return (flags &^ hide) | annotPrint
	}
	return (flags | hide) &^ annotPrint
}

// SetText implements Document. Widget appearances are dropped and the form is
// flagged so viewers regenerate them from the new value.
func (p *PDF) SetText(name, value string) error {
	f, node, err := p.lookup(name)
	if err != nil {
		return err
	}
	if f.Kind != KindText {
		return fmt.Errorf("%w: %s is %s", ErrWrongKind, name, f.Kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	node.dict["V"] = encodeText(value)
	for _, wd := range node.widgets {
		wd.Delete("AP")
	}
	if p.acroForm != nil {
		p.acroForm["NeedAppearances"] = types.Boolean(true)
	}
	return nil
}

// encodeText returns a literal string for ASCII values and a UTF-16BE hex
// string with a byte order mark otherwise.
func encodeText(s string) types.Object {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(escapeLiteral(s))
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, 2+2*len(units))
	buf = append(buf, 0xFE, 0xFF)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(strings.ToUpper(hex.EncodeToString(buf)))
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DrawRect implements Document.
func (p *PDF) DrawRect(r Rect) error {
	if r.Page < 0 || r.Page >= len(p.pages) {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, r.Page)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[r.Page] = append(p.pending[r.Page], r)
	return nil
}

// Write flushes buffered rectangles and serializes the document.
func (p *PDF) Write(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pages := make([]int, 0, len(p.pending))
	for idx := range p.pending {
		pages = append(pages, idx)
	}
	sort.Ints(pages)
	for _, idx := range pages {
		if err := p.appendRects(idx, p.pending[idx]); err != nil {
			return fmt.Errorf("failed to draw on page %d: %w", idx+1, err)
		}
	}
	p.pending = make(map[int][]Rect)

	if err := api.WriteContext(p.ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// appendRects wraps the page's existing content in q/Q and appends a stream
// painting the rectangles in black.
func (p *PDF) appendRects(idx int, rects []Rect) error {
	pd := p.pageDict[idx]

	pre, err := p.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	post, err := p.newContentStream(rectOps(rects))
	if err != nil {
		return err
	}

	contents := types.Array{*pre}
	if obj, found := pd.Find("Contents"); found {
		contents = append(contents, existingContents(obj, p.ctx.Dereference)...)
	}
	contents = append(contents, *post)
	pd["Contents"] = contents
	return nil
}

// existingContents returns the entries of a page's /Contents value. A
// reference that fails to resolve is kept as is.
func existingContents(obj types.Object, resolve func(types.Object) (types.Object, error)) types.Array {
	switch c := obj.(type) {
	case types.IndirectRef:
		o, err := resolve(c)
		if err != nil {
			return types.Array{c}
		}
		if arr, ok := o.(types.Array); ok {
			return arr
		}
		if o != nil {
			return types.Array{c}
		}
	case types.Array:
		return c
	}
	return nil
}

func (p *PDF) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := p.ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return p.ctx.IndRefForNewObject(*sd)
}

// rectOps renders the content operators for a set of filled rectangles.
func rectOps(rects []Rect) []byte {
	var b bytes.Buffer
	b.WriteString("Q\nq\n0 0 0 rg\n")
	for _, r := range rects {
		fmt.Fprintf(&b, "%.2f %.2f %.2f %.2f re f\n", r.X, r.Y, r.W, r.H)
	}
	b.WriteString("Q\n")
	return b.Bytes()
}
