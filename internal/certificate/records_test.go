package certificate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/ahc-engine/internal/crossout"
	"github.com/a3tai/ahc-engine/internal/testutil"
)

func TestDecodeSubmission(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"yaml", submissionYAML},
		{"json", `{"certificate_number": "AHC-0001", "issue_date": "2024-03-05", ` +
			`"trip": {"owner": {"firstName": "John", "lastName": "Smith"}, ` +
			`"pets": [{"name": "Rex", "species": "Dog", "microchipNumber": "123456"}], ` +
			`"travel": {"firstCountry": "France", "tapewormRequired": "no"}, ` +
			`"transport": {"transportedBy": "owner"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := DecodeSubmission([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "AHC-0001", sub.CertificateNumber)
			assert.Equal(t, "2024-03-05", sub.IssueDate)
			assert.Equal(t, "John Smith", sub.Trip.Owner.FullName())
			require.Len(t, sub.Trip.Pets, 1)
			assert.Equal(t, "123456", sub.Trip.Pets[0].Chip())
			assert.False(t, bool(sub.Trip.Travel.TapewormRequired))
			assert.Equal(t, crossout.PartyOwner, sub.Trip.Party())
			assert.Equal(t, 1, sub.PetCount())
		})
	}
}

func TestDecodeSubmissionTapewormFlag(t *testing.T) {
	for _, raw := range []string{`"yes"`, `yes`, `true`, `"true"`} {
		t.Run(raw, func(t *testing.T) {
			sub, err := DecodeSubmission([]byte("trip:\n  travel:\n    tapewormRequired: " + raw + "\n"))
			require.NoError(t, err)
			assert.True(t, bool(sub.Trip.Travel.TapewormRequired))
		})
	}
}

func TestDecodeSubmissionInvalid(t *testing.T) {
	_, err := DecodeSubmission([]byte("trip: [unterminated"))
	assert.Error(t, err)
}

func TestDecodeOverrides(t *testing.T) {
	o, err := DecodeOverrides([]byte(`{"template_code": "AHC16", "crossout_categories": {"Check 2": "responsibility_owner"}}`))
	require.NoError(t, err)
	assert.Equal(t, "AHC16", o.TemplateCode)
	assert.Equal(t, map[string]string{"Check 2": "responsibility_owner"}, o.Categories)
	assert.Empty(t, o.Fields)
}

func TestOverridesMerge(t *testing.T) {
	base := Overrides{
		TemplateCode: "AHC1",
		Fields:       map[string]string{"owner.full_name": "Name1", "owner.address": "Address1"},
		Categories:   map[string]string{"Check 1": "responsibility_owner"},
	}
	merged := base.Merge(Overrides{Fields: map[string]string{"owner.address": "Addr"}})

	assert.Equal(t, "AHC1", merged.TemplateCode)
	assert.Equal(t, map[string]string{"owner.full_name": "Name1", "owner.address": "Addr"}, merged.Fields)
	assert.Equal(t, base.Categories, merged.Categories)
	assert.Equal(t, "Address1", base.Fields["owner.address"], "merge leaves the receiver untouched")

	assert.Equal(t, "AHC2", base.Merge(Overrides{TemplateCode: "AHC2"}).TemplateCode)
}

func TestPageText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ahc.pdf")
	writeFile(t, path, testutil.Template(2, "Poland AHC", "Text1"))

	text, err := PageText(path, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "Poland")

	short, err := PageText(path, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(short), 3)

	_, err = PageText(filepath.Join(t.TempDir(), "missing.pdf"), 0)
	assert.Error(t, err)
}

func TestServiceTextHint(t *testing.T) {
	cfg := testConfig(t)
	cfg.TextHint = true
	writeFile(t, filepath.Join(cfg.TemplateDirectory, "template.pdf"), testutil.Template(4, "Poland AHC", "Text1"))
	s := newService(t, cfg)

	res, err := s.DetectProfile(DetectRequest{Path: "template.pdf"})
	require.NoError(t, err)
	assert.Contains(t, res.Hint, "template.pdf")
	assert.Contains(t, res.Hint, "Poland")
}
