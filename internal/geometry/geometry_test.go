package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ahc-engine/internal/document"
)

func allSlots() []int {
	out := make([]int, 20)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestDefaultReference(t *testing.T) {
	ref, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 1, ref.PageIndexBase)
	assert.Len(t, ref.Anchors, 20)
	for _, slot := range allSlots() {
		assert.NotEmpty(t, ref.Segments[slot], "slot %d has no segments", slot)
	}

	off, ok := ref.HintOffset("templates/AHC16-EN-PL.pdf")
	assert.True(t, ok)
	assert.Equal(t, -1, off)
	_, ok = ref.HintOffset("france")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "anchors: [unclosed"},
		{"bad base", "page_index_base: 2\nanchors:\n  1: {page: 1, x: 1, y: 1, w: 1, h: 1}\n"},
		{"no anchors", "page_index_base: 0\n"},
		{"slot out of range", "page_index_base: 0\nanchors:\n  21: {page: 1, x: 1, y: 1, w: 1, h: 1}\n"},
		{"segment out of range", "page_index_base: 0\nanchors:\n  1: {page: 1, x: 1, y: 1, w: 1, h: 1}\nsegments:\n  0:\n    - {page: 1, x: 1, y: 1, w: 1, h: 1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	data := "page_index_base: 0\nanchors:\n  3: {page: 0, x: 10, y: 20, w: 8, h: 8}\nsegments:\n  3:\n    - {page: 0, x: 30, y: 22, w: 100, h: 0.6}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	ref, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, document.Rect{Page: 0, X: 10, Y: 20, W: 8, H: 8}, ref.Anchors[3])
	assert.Len(t, ref.Segments[3], 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolvePage(t *testing.T) {
	oneBased := &Reference{PageIndexBase: 1}
	zeroBased := &Reference{PageIndexBase: 0}

	tests := []struct {
		name      string
		ref       *Reference
		raw       int
		pageCount int
		want      int
		ok        bool
	}{
		{"one based primary", oneBased, 2, 4, 1, true},
		{"one based legacy", oneBased, 0, 4, 0, true},
		{"one based out of range", oneBased, 6, 4, 0, false},
		{"one based last page", oneBased, 4, 4, 3, true},
		{"zero based primary", zeroBased, 3, 4, 3, true},
		{"zero based legacy", zeroBased, 4, 4, 3, true},
		{"zero based negative", zeroBased, -1, 4, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ref.ResolvePage(tt.raw, tt.pageCount)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func shiftReference() *Reference {
	return &Reference{
		PageIndexBase: 1,
		Anchors: map[int]document.Rect{
			1: {Page: 2, X: 40, Y: 700, W: 8, H: 8},
			2: {Page: 2, X: 40, Y: 650, W: 8, H: 8},
			3: {Page: 3, X: 40, Y: 600, W: 8, H: 8},
		},
	}
}

func TestComputeShift(t *testing.T) {
	ref := shiftReference()

	actual := map[int]document.Rect{
		1: {Page: 0, X: 45, Y: 690},
		2: {Page: 0, X: 47, Y: 642},
		3: {Page: 1, X: 43, Y: 588},
		9: {Page: 4, X: 0, Y: 0},
	}
	s, ok := ref.ComputeShift(actual)
	require.True(t, ok)
	assert.Equal(t, 3, s.Anchors)
	assert.Equal(t, -1, s.PageDelta)
	assert.InDelta(t, 5.0, s.DX, 1e-9)
	assert.InDelta(t, -10.0, s.DY, 1e-9)
	assert.False(t, s.PageOnly())

	_, ok = ref.ComputeShift(map[int]document.Rect{9: {}})
	assert.False(t, ok)
}

func TestComputeShiftTwoAnchorsKeepsPageDelta(t *testing.T) {
	ref := shiftReference()

	s, ok := ref.ComputeShift(map[int]document.Rect{
		1: {Page: 2, X: 60, Y: 710},
		2: {Page: 2, X: 60, Y: 660},
	})
	require.True(t, ok)
	assert.Equal(t, 2, s.Anchors)
	assert.True(t, s.PageOnly())
	assert.Equal(t, 1, s.PageDelta)
	assert.Zero(t, s.DX)
	assert.Zero(t, s.DY)
}

func TestAnchorsFor(t *testing.T) {
	ref := shiftReference()
	actual := map[int]document.Rect{1: {Page: 0, X: 41, Y: 701, W: 9, H: 9}}

	got := ref.AnchorsFor([]int{1, 2, 3, 4}, actual, Shift{DX: 1, DY: -1}, 2)
	assert.Equal(t, document.Rect{Page: 0, X: 41, Y: 701, W: 9, H: 9}, got[1])
	assert.Equal(t, document.Rect{Page: 1, X: 41, Y: 649, W: 8, H: 8}, got[2])
	// Raw page 3 is out of range for a two-page document in either base.
	_, ok := got[3]
	assert.False(t, ok)
	_, ok = got[4]
	assert.False(t, ok)
}

func TestSegmentsFor(t *testing.T) {
	ref := &Reference{
		PageIndexBase: 0,
		Segments: map[int][]document.Rect{
			5: {{Page: 1, X: 10, Y: 100, W: 50, H: 1}, {Page: 9, X: 10, Y: 90, W: 50, H: 1}},
		},
	}
	got := ref.SegmentsFor([]int{5, 6}, Shift{PageDelta: -1, DX: 2, DY: 3}, 2)
	assert.Equal(t, []document.Rect{{Page: 0, X: 12, Y: 103, W: 50, H: 1}}, got[5])
	assert.NotContains(t, got, 6)
}

func TestMerge(t *testing.T) {
	segs := []document.Rect{
		{Page: 0, X: 200, Y: 99.7, W: 100, H: 0.6},
		{Page: 0, X: 56, Y: 99.7, W: 144, H: 0.6},
		{Page: 0, X: 350, Y: 100.2, W: 50, H: 0.6},
		{Page: 0, X: 56, Y: 88.7, W: 200, H: 0.6},
		{Page: 1, X: 56, Y: 99.7, W: 200, H: 0.6},
		{Page: 0, X: 290, Y: 100.5, W: 70, H: 0.6},
	}

	rows := Merge(segs)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].Page)
	assert.InDelta(t, 56, rows[0].X, 1e-9)
	assert.InDelta(t, 400, rows[0].Right(), 1e-9)
	assert.InDelta(t, 99.7, rows[0].Y, 1e-9)
	assert.InDelta(t, 1.4, rows[0].H, 1e-9)

	assert.Equal(t, 0, rows[1].Page)
	assert.InDelta(t, 89.0, rows[1].CenterY(), 1e-9)

	assert.Equal(t, 1, rows[2].Page)
}

func TestMergeKeepsSeparatedSegments(t *testing.T) {
	segs := []document.Rect{
		{Page: 0, X: 56, Y: 100, W: 100, H: 0.6},
		{Page: 0, X: 300, Y: 100, W: 100, H: 0.6},
		{Page: 0, X: 56, Y: 98, W: 100, H: 0.6},
	}
	assert.Len(t, Merge(segs), 3)
	assert.Empty(t, Merge(nil))
}

func TestMergeIdempotent(t *testing.T) {
	ref, err := Default()
	require.NoError(t, err)

	segments := ref.SegmentsFor(allSlots(), Shift{}, 6)
	for slot, segs := range segments {
		once := Merge(segs)
		assert.Equal(t, once, Merge(once), "slot %d", slot)
		assert.Less(t, len(once), len(segs), "slot %d", slot)
	}
}

func TestBuildRowsBand(t *testing.T) {
	anchors := map[int]document.Rect{
		1:  {Page: 0, X: 40, Y: 696, W: 8, H: 8},
		2:  {Page: 0, X: 40, Y: 660, W: 8, H: 8},
		16: {Page: 1, X: 40, Y: 596, W: 8, H: 8},
	}
	segments := map[int][]document.Rect{
		// The second line sits inside slot 2's band and is filtered out.
		1: {
			{Page: 0, X: 56, Y: 699.7, W: 400, H: 0.6},
			{Page: 0, X: 56, Y: 663.7, W: 400, H: 0.6},
			{Page: 1, X: 56, Y: 699.7, W: 400, H: 0.6},
		},
		// Nothing inside the band: every same-page segment is kept.
		2: {
			{Page: 0, X: 56, Y: 720, W: 400, H: 0.6},
			{Page: 1, X: 56, Y: 720, W: 400, H: 0.6},
		},
		// Declaration paragraphs may start well above their box.
		16: {
			{Page: 1, X: 56, Y: 630, W: 400, H: 0.6},
			{Page: 1, X: 56, Y: 650, W: 400, H: 0.6},
		},
		// No anchor: all segments are merged as they are.
		5: {
			{Page: 0, X: 56, Y: 500, W: 400, H: 0.6},
			{Page: 1, X: 56, Y: 500, W: 400, H: 0.6},
		},
	}

	rows := BuildRows([]int{1, 2, 16, 5, 7}, segments, anchors)

	require.Len(t, rows[1], 1)
	assert.InDelta(t, 700.0, rows[1][0].CenterY(), 1e-9)

	require.Len(t, rows[2], 1)
	assert.Equal(t, 0, rows[2][0].Page)
	assert.InDelta(t, 720.3, rows[2][0].CenterY(), 1e-9)

	require.Len(t, rows[16], 1)
	assert.InDelta(t, 630.3, rows[16][0].CenterY(), 1e-9)

	assert.Len(t, rows[5], 2)
	assert.NotContains(t, rows, 7)
}

func TestBuildRowsDefaultReference(t *testing.T) {
	ref, err := Default()
	require.NoError(t, err)

	slots := allSlots()
	anchors := ref.AnchorsFor(slots, nil, Shift{}, 4)
	require.Len(t, anchors, 20)
	segments := ref.SegmentsFor(slots, Shift{}, 4)
	rows := BuildRows(slots, segments, anchors)

	for _, slot := range slots {
		require.NotEmpty(t, rows[slot], "slot %d", slot)
		want := len(ref.Segments[slot]) / 2
		assert.Len(t, rows[slot], want, "slot %d keeps one row per printed line", slot)
		for _, row := range rows[slot] {
			assert.Equal(t, anchors[slot].Page, row.Page)
		}
	}
}
