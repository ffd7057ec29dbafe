// Package profile classifies a certificate's field-identifier set into one of
// the known structural variants.
package profile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/a3tai/ahc-engine/internal/slots"
)

// Profile is the structural variant of a document's field naming.
type Profile string

const (
	// TextNFullChecks uses generic TextN fields with complete Check/Strike pairs.
	TextNFullChecks Profile = "fr_textn_full_checks"
	// TextNFullChecksSecondLanguage is TextNFullChecks with a second-language hint.
	TextNFullChecksSecondLanguage Profile = "es_textn_full_checks"
	// NamedEnglish uses descriptive English field names.
	NamedEnglish Profile = "named_full_checks_english"
	// NamedPatternA uses the "Code of Animal" naming family.
	NamedPatternA Profile = "named_full_checks_german_patternA"
	// NamedPatternB uses the "Code of the animal" naming family.
	NamedPatternB Profile = "named_full_checks_patternB"
	// TextNReduced uses TextN fields without complete check/strike pairing.
	TextNReduced Profile = "textn_reduced_no_strikes"
	// Unknown matches no known convention.
	Unknown Profile = "unknown"
)

// Signature fields that identify the named variants.
const (
	SignatureNamedEnglish = "Alphanumeric code of the animal"
	SignaturePatternA     = "Code of Animal"
	SignaturePatternA2    = "Code of Animal2"
	SignaturePatternB     = "Code of the animal"
	SignaturePatternB2    = "Code of animal2"
)

var textN = regexp.MustCompile(`(?i)^Text\d+$`)

// secondLanguageHints are lower-case hint fragments that select the
// second-language paired variant.
var secondLanguageHints = []string{"spanish", "espan", "españ", "ahc21"}

// Capabilities are the rendering features a profile supports.
type Capabilities struct {
	SupportsCheckWidgets  bool `json:"supports_check_widgets"`
	SupportsStrikeWidgets bool `json:"supports_strike_widgets"`
	SupportsPairing       bool `json:"supports_full_check_strike_pairing"`
	ReducedRendering      bool `json:"reduced_crossout_rendering"`
}

// Info is the outcome of detection.
type Info struct {
	Profile          Profile      `json:"profile"`
	HasTextN         bool         `json:"has_textn"`
	HasFullChecks    bool         `json:"has_full_checks"`
	HasFullStrikes   bool         `json:"has_full_strikes"`
	HasStrikeFields  bool         `json:"has_strike_fields"`
	CheckCount       int          `json:"check_count"`
	StrikeCount      int          `json:"strike_count"`
	CheckFieldNames  []string     `json:"check_field_names"`
	StrikeFieldNames []string     `json:"strike_field_names"`
	Capabilities     Capabilities `json:"capabilities"`
}

// Options carries detection inputs besides the field set.
type Options struct {
	// Hint is free text such as template code, name or storage path.
	Hint string
}

// Detect classifies the field-identifier set. It is a pure function of its
// inputs; duplicate names are ignored.
func Detect(fieldNames []string, opts Options) Info {
	names := dedupe(fieldNames)
	hint := strings.ToLower(opts.Hint)

	checkNames, checkSet := normalizedSlots(slots.Check, names)
	strikeNames, strikeSet := normalizedSlots(slots.Strike, names)

	info := Info{
		HasFullChecks:    fullSlots(checkSet),
		HasFullStrikes:   fullSlots(strikeSet),
		HasStrikeFields:  len(strikeNames) > 0,
		CheckCount:       len(checkNames),
		StrikeCount:      len(strikeNames),
		CheckFieldNames:  checkNames,
		StrikeFieldNames: strikeNames,
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
		if textN.MatchString(n) {
			info.HasTextN = true
		}
	}

	switch {
	case info.HasTextN && info.HasFullChecks && info.HasFullStrikes:
		info.Profile = TextNFullChecks
		if hasAny(hint, secondLanguageHints) {
			info.Profile = TextNFullChecksSecondLanguage
		}
	case !info.HasTextN && present[SignatureNamedEnglish]:
		info.Profile = NamedEnglish
	case !info.HasTextN && (present[SignaturePatternA] || present[SignaturePatternA2]):
		info.Profile = NamedPatternA
	case !info.HasTextN && (present[SignaturePatternB] || present[SignaturePatternB2]):
		info.Profile = NamedPatternB
	case info.HasTextN:
		info.Profile = TextNReduced
	default:
		info.Profile = Unknown
	}

	info.Capabilities = Capabilities{
		SupportsCheckWidgets:  len(checkNames) > 0,
		SupportsStrikeWidgets: len(strikeNames) > 0,
		SupportsPairing:       info.HasFullChecks && info.HasFullStrikes,
		ReducedRendering:      info.Profile == TextNReduced || !info.HasFullStrikes,
	}
	return info
}

// UsesPairedRendering reports whether native check/strike toggling applies.
func (i Info) UsesPairedRendering() bool {
	return i.Capabilities.SupportsPairing && !i.Capabilities.ReducedRendering
}

// normalizedSlots returns the canonical names found (sorted by slot, one per
// source field) and the set of slot numbers present.
func normalizedSlots(f slots.Family, names []string) ([]string, map[int]bool) {
	type hit struct {
		slot int
		name string
	}
	var hits []hit
	set := make(map[int]bool)
	for _, n := range names {
		slot, ok := slots.Normalize(f, n)
		if !ok {
			continue
		}
		hits = append(hits, hit{slot, slots.CanonicalName(f, slot)})
		set[slot] = true
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].slot < hits[b].slot })

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out, set
}

func fullSlots(set map[int]bool) bool {
	for n := 1; n <= 20; n++ {
		if !set[n] {
			return false
		}
	}
	return true
}

func hasAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
