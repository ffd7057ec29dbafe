// Package slots classifies form field identifiers into the numbered check and
// strike slots of the canonical certificate layout.
//
// All naming-convention knowledge lives here. New conventions are added to the
// keyword patterns below; detection, discovery and rendering only consume the
// results.
package slots

import (
	"fmt"
	"regexp"
	"strconv"
)

// Family is the kind of numbered control a field name refers to.
type Family int

const (
	// Check is a selectable control that marks a clause as crossed.
	Check Family = iota
	// Strike is a widget drawn over a clause's text.
	Strike
)

// String returns the canonical name prefix for the family
func (f Family) String() string {
	switch f {
	case Check:
		return "Check"
	case Strike:
		return "Strike"
	default:
		return "Unknown"
	}
}

var (
	strictCheck  = regexp.MustCompile(`(?i)^Check\s*(\d+)$`)
	strictStrike = regexp.MustCompile(`(?i)^Strike\s*(\d+)$`)

	// Synonyms in English and Polish ("pole wyboru", "skreślić").
	checkKeyword  = regexp.MustCompile(`(?i)\b(check(?:\s*box)?|checkbox|tick(?:\s*box)?|wyboru|wybor)\b`)
	strikeKeyword = regexp.MustCompile(`(?i)\b(strike|cross\s*out|crossout|line\s*out|lineout|skre(?:ś|s)?l)\b`)

	// Looser test used to collect every strike-ish field for pre-hiding.
	strikeLoose = regexp.MustCompile(`(?i)strike|cross.?out|line.?out|skre(?:ś|s)?l`)
)

// ExtractIndex returns the first standalone number 1..20 in name. A number is
// standalone when it is a complete run of digits, so "Box 21" and "A05" yield
// nothing while "Field 7b" yields 7.
func ExtractIndex(name string) (int, bool) {
	i := 0
	for i < len(name) {
		if !isDigit(name[i]) {
			i++
			continue
		}
		start := i
		for i < len(name) && isDigit(name[i]) {
			i++
		}
		run := name[start:i]
		if len(run) > 2 || run[0] == '0' {
			continue
		}
		n, err := strconv.Atoi(run)
		if err == nil && n >= 1 && n <= 20 {
			return n, true
		}
	}
	return 0, false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Normalize maps a field identifier to its slot number in the given family.
// The strict "Check N"/"Strike N" form is tried first and accepts any N; the
// keyword fallback only yields slots 1..20.
func Normalize(f Family, name string) (int, bool) {
	strict, keyword := strictCheck, checkKeyword
	if f == Strike {
		strict, keyword = strictStrike, strikeKeyword
	}

	if m := strict.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}

	if !keyword.MatchString(name) {
		return 0, false
	}
	return ExtractIndex(name)
}

// CanonicalName renders the canonical identifier of a slot, e.g. "Check 7".
func CanonicalName(f Family, n int) string {
	return fmt.Sprintf("%s %d", f, n)
}

// NormalizeName is Normalize followed by CanonicalName.
func NormalizeName(f Family, name string) (string, bool) {
	n, ok := Normalize(f, name)
	if !ok {
		return "", false
	}
	return CanonicalName(f, n), true
}

// IsStrikeLike reports whether name loosely looks like a strike control.
func IsStrikeLike(name string) bool {
	return strikeLoose.MatchString(name)
}

// InRange reports whether n addresses one of the twenty canonical slots.
func InRange(n int) bool {
	return n >= 1 && n <= 20
}
