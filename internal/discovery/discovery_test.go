package discovery

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkbox(name string, page int, x, y float64) document.Field {
	return document.Field{
		Name:    name,
		Kind:    document.KindCheckbox,
		Widgets: []document.Rect{{Page: page, X: x, Y: y, W: 8, H: 8}},
	}
}

func text(name string) document.Field {
	return document.Field{Name: name, Kind: document.KindText}
}

func TestDiscoverChecksByName(t *testing.T) {
	fields := []document.Field{
		text("Text1"),
		checkbox("Check 1", 0, 40, 700),
		checkbox("Check1", 0, 40, 690),
		checkbox("Checkbox 2", 0, 40, 680),
		checkbox("Check 25", 0, 40, 670),
		checkbox("box 3", 0, 40, 660),
		checkbox("Check 3", 0, 40, 650),
		text("Tick box 4"),
	}

	res := DiscoverChecks(fields)
	assert.Equal(t, Slots{
		1:  "Check 1",
		2:  "Checkbox 2",
		3:  "Check 3",
		4:  "Tick box 4",
		25: "Check 25",
	}, res.Checks)
	assert.Zero(t, res.Positional)
}

func TestDiscoverChecksByOwnIndex(t *testing.T) {
	fields := []document.Field{
		checkbox("Check 1", 0, 40, 700),
		checkbox("opt_5_a", 0, 40, 690),
		checkbox("opt_5_b", 0, 40, 680),
		{Name: "radio 7", Kind: document.KindRadio},
		text("line 8"),
	}

	res := DiscoverChecks(fields)
	assert.Equal(t, Slots{1: "Check 1", 5: "opt_5_a", 7: "radio 7"}, res.Checks)
}

func TestDiscoverChecksPositional(t *testing.T) {
	// Twenty unlabeled controls in two columns across two pages; names are
	// deliberately out of visual order.
	var fields []document.Field
	for i := 0; i < 20; i++ {
		page := i / 10
		row := i % 10
		fields = append(fields, checkbox(fmt.Sprintf("ctl_%c", 'a'+(19-i)), page, 40, 700-float64(row)*30))
	}

	r := rand.New(rand.NewSource(3))
	shuffled := append([]document.Field(nil), fields...)
	r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

	res := DiscoverChecks(shuffled)
	require.Len(t, res.Checks, 20)
	assert.Equal(t, 20, res.Positional)
	for i, f := range fields {
		assert.Equal(t, f.Name, res.Checks[i+1], "slot %d", i+1)
	}
}

func TestDiscoverChecksPositionalFillsGaps(t *testing.T) {
	var fields []document.Field
	fields = append(fields, checkbox("Check 2", 0, 300, 100))
	for i := 0; i < 19; i++ {
		fields = append(fields, checkbox(fmt.Sprintf("unnamed_%c", 'a'+i), 0, 40, 800-float64(i)*10))
	}
	// Same row as unnamed_a but further left.
	fields = append(fields, checkbox("zz", 0, 10, 800))

	res := DiscoverChecks(fields)
	require.Len(t, res.Checks, 20)
	assert.Equal(t, "Check 2", res.Checks[2])
	assert.Equal(t, "zz", res.Checks[1])
	assert.Equal(t, "unnamed_a", res.Checks[3])
	assert.Equal(t, "unnamed_b", res.Checks[4])
	assert.Equal(t, 19, res.Positional)
}

func TestDiscoverChecksNoPositionalBelowTwenty(t *testing.T) {
	var fields []document.Field
	for i := 0; i < 19; i++ {
		fields = append(fields, checkbox(fmt.Sprintf("ctl_%c", 'a'+i), 0, 40, 800-float64(i)*10))
	}
	res := DiscoverChecks(fields)
	assert.Empty(t, res.Checks)
	assert.Zero(t, res.Positional)
}

func TestDiscoverStrikes(t *testing.T) {
	fields := []document.Field{
		text("Strike1"),
		text("Strike 1"),
		text("Cross out 2"),
		text("strike_line_3"),
		text("strikeout"),
		text("Text5"),
	}

	res := DiscoverStrikes(fields)
	assert.Equal(t, Slots{1: "Strike1", 2: "Cross out 2", 3: "strike_line_3"}, res.Strikes)
	assert.Equal(t, []string{"Strike1", "Strike 1", "Cross out 2", "strike_line_3", "strikeout"}, res.Like)
}

func TestBuildTable(t *testing.T) {
	names := []string{"Check 1", "Check2", "Check 30", "Text1", "Tick box 4"}
	overrides := map[string]string{
		"Check2":     string(schema.DeclarationCarrier),
		"Tick box 4": "not_a_category",
		"Check 9":    string(schema.TapewormTreated),
		"Text1":      string(schema.TapewormTreated),
		"Check 30":   string(schema.AttendEvent),
	}

	table, dropped := BuildTable(names, overrides)
	assert.Equal(t, Table{
		1:  schema.ResponsibilityOwner,
		2:  schema.DeclarationCarrier,
		4:  schema.FiveOrLessAnimals,
		30: schema.AttendEvent,
	}, table)
	assert.Equal(t, []DroppedCategory{
		{Field: "Check 9", Category: string(schema.TapewormTreated), Reason: ReasonFieldNotFound},
		{Field: "Text1", Category: string(schema.TapewormTreated), Reason: ReasonNotACheck},
		{Field: "Tick box 4", Category: "not_a_category", Reason: ReasonUnknownCategory},
	}, dropped)
}

func TestEffectiveFillsCanonicalSlots(t *testing.T) {
	table := Table{2: schema.DeclarationCarrier}
	eff, inferred := Effective(Slots{1: "Check 1", 2: "Check 2"}, table)

	assert.Len(t, eff, 20)
	assert.Equal(t, 19, inferred)
	assert.Equal(t, schema.DeclarationCarrier, eff[2])
	assert.Equal(t, schema.ResponsibilityOwner, eff[1])
	assert.Equal(t, []schema.Category{schema.ResponsibilityAuthorisedPerson}, eff.Unresolved())
}

func TestEffectiveFullDiscovery(t *testing.T) {
	discovered := make(Slots)
	for n := 1; n <= 20; n++ {
		discovered[n] = fmt.Sprintf("Check %d", n)
	}
	table := Table{3: schema.ResponsibilityOwner}
	eff, inferred := Effective(discovered, table)

	assert.Equal(t, 19, inferred)
	assert.Equal(t, []schema.Category{schema.ResponsibilityCarrier}, eff.Unresolved())

	eff, inferred = Effective(discovered, nil)
	assert.Equal(t, 20, inferred)
	assert.Empty(t, eff.Unresolved())
}

func TestSlotsToCross(t *testing.T) {
	eff, _ := Effective(nil, nil)
	set := schema.NewCategorySet(schema.ResponsibilityCarrier, schema.TapewormTreated, schema.DeclarationOwner)
	assert.Equal(t, []int{3, 14, 17}, eff.SlotsToCross(set))

	c, ok := Table{}.Category(13)
	assert.True(t, ok)
	assert.Equal(t, schema.RabiesTitreOption, c)
}
