package generate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ahc-engine/internal/crossout"
	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/errors"
	"github.com/a3tai/ahc-engine/internal/geometry"
	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/schema"
	"github.com/a3tai/ahc-engine/internal/slots"
)

func pages(n int) []document.Page {
	out := make([]document.Page, n)
	for i := range out {
		out[i] = document.Page{Index: i, Width: 595, Height: 842}
	}
	return out
}

func reference(t *testing.T) *geometry.Reference {
	t.Helper()
	ref, err := geometry.Default()
	require.NoError(t, err)
	return ref
}

var namedTextFields = []string{
	"Name1", "Address1", "Telephone1", "Name2", "Address2", "Postcode", "Telephone2",
	"LCA", "OV name", "OV Address", "OV telephone", "OV qualification", "Date", "PlaceDate",
	"Transporter", "Transponder", "Transponder1", "AHC number", "AHC number2", "Commodity description",
}

// pairedDocument is a TextN certificate with every required field and a
// complete set of check/strike pairs at their reference positions.
func pairedDocument(t *testing.T) *document.Memory {
	t.Helper()
	ref := reference(t)
	var fields []document.Field
	for i := 1; i <= 61; i++ {
		fields = append(fields, document.Field{Name: fmt.Sprintf("Text%d", i), Kind: document.KindText})
	}
	for _, name := range namedTextFields {
		fields = append(fields, document.Field{Name: name, Kind: document.KindText})
	}
	for n := 1; n <= schema.SlotCount; n++ {
		a := ref.Anchors[n]
		a.Page--
		fields = append(fields,
			document.Field{Name: slots.CanonicalName(slots.Check, n), Kind: document.KindCheckbox, Widgets: []document.Rect{a}},
			document.Field{Name: slots.CanonicalName(slots.Strike, n), Kind: document.KindButton, Widgets: []document.Rect{a}},
		)
	}
	return document.NewMemory(pages(4), fields)
}

func submission() Submission {
	return Submission{
		CertificateNumber: "AHC-0001",
		IssueDate:         "2024-03-05",
		IssuePlace:        "London",
		FirstCountry:      "France",
		Issuer: Issuer{
			VetName:         "Dr A Vet",
			Qualification:   "MRCVS",
			VetPhone:        "0200",
			PracticeAddress: "1 Vet Street, London",
		},
		Trip: crossout.Trip{
			Owner: crossout.Person{FirstName: "John", LastName: "Smith", Street: "High St", TownCity: "Leeds", Phone: "0100"},
			Pets: []crossout.Pet{{
				Name:            "Rex",
				Species:         "Dog",
				Breed:           "Labrador",
				Sex:             "male",
				Colour:          "black",
				DateOfBirth:     "2023-01-01",
				MicrochipNumber: "123456",
				Rabies:          &crossout.Rabies{VaccinationDate: "2024-01-10", VaccineName: "Nobivac", Manufacturer: "MSD", BatchNumber: "B1"},
				Tapeworm:        crossout.Tapeworm{Product: "Drontal", Date: "2024-03-01", VetStamp: "Dr B"},
			}},
			Travel:    crossout.Travel{FirstCountry: "France", DateOfEntry: "2024-03-01", MeansOfTravel: "car_ferry"},
			Transport: crossout.Transport{TransportedBy: "owner"},
		},
	}
}

func TestRunPaired(t *testing.T) {
	doc := pairedDocument(t)
	g := New(reference(t), false, nil)

	rep, err := g.Run(context.Background(), doc, submission(), Options{Template: Template{Code: "AHC1-FR"}})
	require.NoError(t, err)

	assert.Equal(t, profile.TextNFullChecks, rep.Profile.Profile)
	assert.Equal(t, "textn", rep.Adapter)
	assert.Empty(t, rep.MissingRequiredKeys)
	assert.Empty(t, rep.UnresolvedCategories)
	assert.False(t, rep.Strict)
	assert.Equal(t, len(schema.Keys()), rep.Filled+rep.Missing)
	assert.Positive(t, rep.Filled)

	owner, _ := doc.Text("Name1")
	assert.Equal(t, "John Smith", owner)
	chip, _ := doc.Text("Text2")
	assert.Equal(t, "123456", chip)
	ahc, _ := doc.Text("AHC number")
	assert.Equal(t, "AHC-0001", ahc)
	unused, set := doc.Text("AHC number2")
	assert.True(t, set)
	assert.Empty(t, unused)

	assert.Contains(t, rep.Categories, schema.ResponsibilityCarrier)
	assert.Contains(t, rep.Categories, schema.TapewormTreated)
	assert.NotContains(t, rep.Categories, schema.ResponsibilityOwner)
	assert.Equal(t, len(rep.Categories), rep.Render.Crossed)
	assert.Equal(t, rep.Categories, rep.Render.Toggled)
	assert.Equal(t, 20, rep.Render.PreHidden)

	assert.False(t, doc.Hidden("Strike 3"))
	assert.True(t, doc.Hidden("Strike 1"))
	checked, _ := doc.Checked("Check 3")
	assert.True(t, checked)
}

func TestRunStrictMissingKeys(t *testing.T) {
	doc := document.NewMemory(pages(4), []document.Field{{Name: "Text1", Kind: document.KindText}})
	g := New(reference(t), true, nil)

	rep, err := g.Run(context.Background(), doc, submission(), Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeMissingCanonicalKeys, errors.TypeOf(err))
	assert.True(t, rep.Strict)
	assert.Contains(t, rep.MissingRequiredKeys, schema.KeyOwnerFullName)

	ref, _ := doc.Text("Text1")
	assert.Empty(t, ref, "nothing is filled after a compliance failure")
}

func TestRunStrictDisabledPerRequest(t *testing.T) {
	doc := document.NewMemory(pages(4), []document.Field{{Name: "Text1", Kind: document.KindText}})
	g := New(reference(t), true, nil)
	off := false

	rep, err := g.Run(context.Background(), doc, submission(), Options{Strict: &off})
	require.NoError(t, err)
	assert.False(t, rep.Strict)
	assert.Equal(t, profile.TextNReduced, rep.Profile.Profile)
	assert.NotEmpty(t, rep.MissingRequiredKeys)
	assert.Positive(t, rep.Render.Lines)

	ref, _ := doc.Text("Text1")
	assert.Equal(t, "AHC-0001", ref)
}

func TestRunStrictUnresolvedCategories(t *testing.T) {
	doc := pairedDocument(t)
	g := New(reference(t), true, nil)

	rep, err := g.Run(context.Background(), doc, submission(), Options{
		CategoryOverrides: map[string]string{"Check 2": string(schema.ResponsibilityOwner)},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeUnresolvedCategories, errors.TypeOf(err))
	assert.Equal(t, []schema.Category{schema.ResponsibilityAuthorisedPerson}, rep.UnresolvedCategories)
	assert.Empty(t, doc.Drawn())
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(reference(t), false, nil).Run(ctx, pairedDocument(t), submission(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunReducedGeometryFailure(t *testing.T) {
	doc := document.NewMemory(pages(1), []document.Field{{Name: "Text1", Kind: document.KindText}})

	_, err := New(reference(t), false, nil).Run(context.Background(), doc, submission(), Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeGeometryFailure, errors.TypeOf(err))
}

func TestRunNamedTooFewPagesReportsUnrendered(t *testing.T) {
	doc := document.NewMemory(pages(1), []document.Field{{Name: profile.SignatureNamedEnglish, Kind: document.KindText}})

	rep, err := New(reference(t), false, nil).Run(context.Background(), doc, submission(), Options{})
	require.NoError(t, err)
	assert.Equal(t, profile.NamedEnglish, rep.Profile.Profile)
	assert.True(t, rep.Profile.Capabilities.ReducedRendering)
	require.NotEmpty(t, rep.Categories)
	assert.Equal(t, rep.Categories, rep.Render.Unrendered)
	assert.Zero(t, rep.Render.Crossed)
	assert.Empty(t, doc.Drawn())
}

func TestStrictFor(t *testing.T) {
	on, off := true, false
	tests := []struct {
		name    string
		enabled bool
		request *bool
		want    bool
	}{
		{"enabled default", true, nil, true},
		{"enabled request on", true, &on, true},
		{"enabled request off", true, &off, false},
		{"disabled request on", false, &on, false},
		{"disabled default", false, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(reference(t), tt.enabled, nil)
			assert.Equal(t, tt.want, g.StrictFor(Options{Strict: tt.request}))
		})
	}
}

func TestTemplateHint(t *testing.T) {
	tpl := Template{Code: "AHC16", Name: "Poland", SecondLanguage: "PL", Path: "templates/ahc16-en-pl.pdf"}
	assert.Equal(t, "AHC16 Poland PL templates/ahc16-en-pl.pdf", tpl.Hint())
	assert.Empty(t, Template{}.Hint())
}
