package descriptions

import "sort"

// Tool names exposed over MCP.
const (
	ToolDetectProfile    = "ahc_detect_profile"
	ToolMapFields        = "ahc_map_fields"
	ToolComputeCrossouts = "ahc_compute_crossouts"
	ToolGenerate         = "ahc_generate"
	ToolServerInfo       = "ahc_server_info"
)

const (
	DetectProfileDescription = `Classify a blank certificate template by its form field names.

**When to use:** Before mapping or generating, to learn which layout convention a template follows.

**Returns:** the profile (fr_textn_full_checks, es_textn_full_checks, textn_reduced_no_strikes,
named_full_checks_english, named_full_checks_german_patternA, named_full_checks_patternB or unknown),
the normalized check and strike slot names, and the rendering capabilities (native check/strike pairing
or reduced geometry rendering).

**Examples:**
• "Which profile is templates/ahc1-fr.pdf?"
• "Does ahc16-en-pl.pdf support native strike widgets?"

**Best practices:** Pass the template code or country as hint; second-language variants are only told apart
by their hint.`

	MapFieldsDescription = `Resolve every canonical certificate key to a concrete field of a template.

**When to use:** To check a template's coverage before generating, or to test field overrides.

**Returns:** the adapter used, the key → field mapping, overrides that were dropped and why, and the required
canonical keys that no field covers.

**Examples:**
• "Which required keys are missing from ahc21-en-es.pdf?"
• "Map owner.address to 'Owner box' and show the result"

**Best practices:** Overrides are only accepted for known canonical keys and fields that exist in the
document. Store recurring overrides in a YAML record and pass overrides_path.`

	ComputeCrossoutsDescription = `Decide which declaration clauses must be struck out for a trip.

**When to use:** To preview the cross-out decision without touching a template.

**Input:** either explicit facts (transport_by, num_pets, species, vaccination_date, entry_date, dob,
tapeworm_country) or a submission inline or by submission_path.

**Returns:** the categories to strike in canonical order and their canonical Check slots.

**Examples:**
• "A carrier moves 6 dogs: which clauses are struck?"
• "Compute cross-outs for submissions/smith.yaml"`

	GenerateDescription = `Fill a certificate template from a submission and render its cross-outs.

**When to use:** To produce the finished certificate PDF.

**What happens:** all fields are cleared, the profile is detected, canonical keys are mapped and filled,
unused declaration rows are blanked, cross-out categories are computed and rendered by toggling native
check/strike widgets or drawing geometry-calibrated strike rows. The result is written to the output
directory.

**Returns:** the output path and a generation report (profile, fill counts, categories crossed, toggled,
drawn and unrendered, calibration shift, dropped overrides).

**Best practices:** Enable strict mode to reject templates with missing required keys or unresolvable
categories. A strict request can switch strict mode off but never on.`

	ServerInfoDescription = `Show server configuration and the templates available in the template directory.

**When to use:** First call in a session, to find template paths and check whether strict template
compliance is on.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolDetectProfile:    DetectProfileDescription,
	ToolMapFields:        MapFieldsDescription,
	ToolComputeCrossouts: ComputeCrossoutsDescription,
	ToolGenerate:         GenerateDescription,
	ToolServerInfo:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
