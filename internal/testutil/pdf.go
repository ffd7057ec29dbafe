// Package testutil builds small fixture documents for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Template assembles an A4 form with the given page count, one text widget
// per field name on the first page, and text drawn on the first page.
func Template(pages int, text string, fields ...string) []byte {
	const fixed = 4 // catalog, pages, font, first page content
	firstPage := fixed + len(fields) + 1

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+i)
	}
	refs := make([]string, len(fields))
	for i := range fields {
		refs[i] = fmt.Sprintf("%d 0 R", fixed+1+i)
	}

	content := fmt.Sprintf("BT /F1 12 Tf 72 760 Td (%s) Tj ET", text)
	objects := []string{
		fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [%s] >> >>", strings.Join(refs, " ")),
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}
	for i, name := range fields {
		y := 700 - 30*i
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect [72 %d 300 %d] /P %d 0 R /F 4 >>",
			name, y, y+20, firstPage))
	}
	for i := 0; i < pages; i++ {
		page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 3 0 R >> >>"
		if i == 0 {
			page += fmt.Sprintf(" /Contents 4 0 R /Annots [%s]", strings.Join(refs, " "))
		}
		objects = append(objects, page+" >>")
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Submission is a complete single pet trip travelling with its owner.
const Submission = `
certificate_number: AHC-0001
issue_date: "2024-03-05"
issue_place: London
issuer:
  vet_name: Dr A Vet
trip:
  owner:
    firstName: John
    lastName: Smith
  pets:
    - name: Rex
      species: Dog
      microchipNumber: "123456"
      dateOfBirth: "2023-01-01"
  rabies:
    vaccinationDate: "2024-01-10"
  travel:
    firstCountry: France
    dateOfEntry: "2024-03-01"
    tapewormRequired: "no"
  transport:
    transportedBy: owner
`
