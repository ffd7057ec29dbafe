package geometry

import (
	"math"
	"sort"

	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// Row building tolerances, in PDF user space units.
const (
	// MergeTolerance is the largest vertical center distance at which two
	// segments belong to the same row.
	MergeTolerance = 1.2

	// touchSlack absorbs float error when adjacent segments share an edge.
	touchSlack = 0.01

	// bandMinGap is the vertical distance beyond which another anchor counts
	// as the next clause down.
	bandMinGap = 20.0
	// bandLowerPad keeps a clause's band clear of the next clause's anchor.
	bandLowerPad = 8.0
	// bandUpperPad is the allowance above a clause's own anchor center.
	bandUpperPad = 2.0
	// declarationUpperPad replaces bandUpperPad for the taller declaration
	// paragraphs, whose text starts above the check box.
	declarationUpperPad = 40.0
)

type anchorAt struct {
	slot    int
	centerY float64
}

// BuildRows builds the strike rows for each requested slot. Segments are
// limited to the band between the slot's anchor and the next anchor below it
// on the same page; if that leaves nothing, every same-page segment of the
// slot is used. The survivors are merged into rows. Slots without rows are
// absent from the result.
func BuildRows(slots []int, segments map[int][]document.Rect, anchors map[int]document.Rect) map[int][]document.Rect {
	byPage := make(map[int][]anchorAt)
	for _, slot := range sortedSlots(anchors) {
		a := anchors[slot]
		byPage[a.Page] = append(byPage[a.Page], anchorAt{slot: slot, centerY: a.CenterY()})
	}
	for _, list := range byPage {
		sort.SliceStable(list, func(i, j int) bool { return list[i].centerY > list[j].centerY })
	}

	out := make(map[int][]document.Rect)
	for _, slot := range slots {
		segs := segments[slot]
		filtered := segs

		if a, ok := anchors[slot]; ok {
			lower, upper := band(slot, a, byPage[a.Page])
			filtered = nil
			for _, s := range segs {
				cy := s.CenterY()
				if s.Page == a.Page && cy >= lower && cy <= upper {
					filtered = append(filtered, s)
				}
			}
			if len(filtered) == 0 {
				for _, s := range segs {
					if s.Page == a.Page {
						filtered = append(filtered, s)
					}
				}
			}
		}

		if rows := Merge(filtered); len(rows) > 0 {
			out[slot] = rows
		}
	}
	return out
}

// band returns the vertical extent, as [lower, upper], of a slot's clause.
func band(slot int, a document.Rect, pageAnchors []anchorAt) (float64, float64) {
	cy := a.CenterY()
	lower := math.Inf(-1)
	for _, other := range pageAnchors {
		if cy-other.centerY > bandMinGap {
			lower = other.centerY + bandLowerPad
			break
		}
	}
	pad := bandUpperPad
	if slot >= schema.DeclarationSlotStart {
		pad = declarationUpperPad
	}
	return lower, cy + pad
}

// Merge joins segments that share a page, whose vertical centers are within
// MergeTolerance, and that touch or overlap horizontally. Merged rows take
// the union bounding box. Merging repeats until nothing changes, so the
// result is a fixed point: Merge(Merge(s)) equals Merge(s). Rows are ordered
// by page, then top to bottom, then left to right.
func Merge(segments []document.Rect) []document.Rect {
	rows := append([]document.Rect(nil), segments...)
	for {
		sortRows(rows)
		merged := mergePass(rows)
		if len(merged) == len(rows) {
			return merged
		}
		rows = merged
	}
}

func mergePass(in []document.Rect) []document.Rect {
	var out []document.Rect
	for _, seg := range in {
		joined := false
		for i := range out {
			if mergeable(out[i], seg) {
				out[i] = union(out[i], seg)
				joined = true
				break
			}
		}
		if !joined {
			out = append(out, seg)
		}
	}
	return out
}

func mergeable(a, b document.Rect) bool {
	if a.Page != b.Page {
		return false
	}
	if math.Abs(a.CenterY()-b.CenterY()) > MergeTolerance {
		return false
	}
	return b.X <= a.Right()+touchSlack && a.X <= b.Right()+touchSlack
}

func union(a, b document.Rect) document.Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	right := math.Max(a.Right(), b.Right())
	top := math.Max(a.Y+a.H, b.Y+b.H)
	return document.Rect{Page: a.Page, X: x, Y: y, W: right - x, H: top - y}
}

func sortRows(rows []document.Rect) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.CenterY() != b.CenterY() {
			return a.CenterY() > b.CenterY()
		}
		return a.X < b.X
	})
}
