package geometry

import (
	"math"
	"sort"

	"github.com/a3tai/ahc-engine/internal/document"
)

// MinReliableAnchors is the number of paired anchors below which the averaged
// x/y translation is discarded and only the page offset is kept.
const MinReliableAnchors = 3

// Shift translates reference coordinates onto a document.
type Shift struct {
	PageDelta int     `json:"page_delta"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	Anchors   int     `json:"anchors"`
}

// PageOnly reports whether the translation was reduced to a page offset.
func (s Shift) PageOnly() bool {
	return s.Anchors < MinReliableAnchors
}

// ComputeShift averages the offset between the reference anchor and the
// actual anchor of every slot present in both. It reports false when no slot
// pairs up.
func (r *Reference) ComputeShift(actual map[int]document.Rect) (Shift, bool) {
	var pages, dxs, dys float64
	n := 0
	for _, slot := range sortedSlots(actual) {
		ref, ok := r.Anchors[slot]
		if !ok {
			continue
		}
		a := actual[slot]
		pages += float64(a.Page - (ref.Page - r.PageIndexBase))
		dxs += a.X - ref.X
		dys += a.Y - ref.Y
		n++
	}
	if n == 0 {
		return Shift{}, false
	}

	s := Shift{
		PageDelta: int(math.Floor(pages/float64(n) + 0.5)),
		DX:        dxs / float64(n),
		DY:        dys / float64(n),
		Anchors:   n,
	}
	if s.PageOnly() {
		s.DX, s.DY = 0, 0
	}
	return s, true
}

// place shifts a reference rectangle and resolves its page.
func (r *Reference) place(ref document.Rect, shift Shift, pageCount int) (document.Rect, bool) {
	page, ok := r.ResolvePage(ref.Page+shift.PageDelta, pageCount)
	if !ok {
		return document.Rect{}, false
	}
	return document.Rect{
		Page: page,
		X:    ref.X + shift.DX,
		Y:    ref.Y + shift.DY,
		W:    ref.W,
		H:    ref.H,
	}, true
}

// AnchorsFor returns an anchor for each requested slot: the actual control's
// rectangle when one was discovered, otherwise the shifted reference anchor.
// Slots whose reference page falls outside the document are omitted.
func (r *Reference) AnchorsFor(slots []int, actual map[int]document.Rect, shift Shift, pageCount int) map[int]document.Rect {
	out := make(map[int]document.Rect, len(slots))
	for _, slot := range slots {
		if a, ok := actual[slot]; ok {
			out[slot] = a
			continue
		}
		ref, ok := r.Anchors[slot]
		if !ok {
			continue
		}
		if placed, ok := r.place(ref, shift, pageCount); ok {
			out[slot] = placed
		}
	}
	return out
}

// SegmentsFor returns the shifted reference segments of each requested slot.
func (r *Reference) SegmentsFor(slots []int, shift Shift, pageCount int) map[int][]document.Rect {
	out := make(map[int][]document.Rect, len(slots))
	for _, slot := range slots {
		for _, seg := range r.Segments[slot] {
			if placed, ok := r.place(seg, shift, pageCount); ok {
				out[slot] = append(out[slot], placed)
			}
		}
	}
	return out
}

func sortedSlots[T any](m map[int]T) []int {
	out := make([]int, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
