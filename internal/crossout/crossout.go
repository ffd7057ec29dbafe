// Package crossout decides which legal clauses of a certificate are struck
// through for a given trip.
package crossout

import (
	"math"
	"strings"

	"github.com/a3tai/ahc-engine/internal/schema"
)

// Party is who is responsible for transporting the pets.
type Party int

const (
	PartyOwner            Party = iota
	PartyAuthorisedPerson
	PartyCarrier
)

// String returns the wire name of the party
func (p Party) String() string {
	switch p {
	case PartyAuthorisedPerson:
		return "authorised_person"
	case PartyCarrier:
		return "carrier"
	default:
		return "owner"
	}
}

// ParseParty maps a transport value to a Party. The authorised person has
// several spellings; anything unrecognised means the owner travels.
func ParseParty(s string) Party {
	switch strings.TrimSpace(s) {
	case "authorised", "authorised_person", "authorisedPerson":
		return PartyAuthorisedPerson
	case "carrier":
		return PartyCarrier
	default:
		return PartyOwner
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Party) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Party) UnmarshalText(b []byte) error {
	*p = ParseParty(string(b))
	return nil
}

// Facts are the trip inputs of the rule set.
type Facts struct {
	Transport       Party  `json:"transport_by"`
	NumPets         int    `json:"num_pets"`
	Species         string `json:"species"`
	VaccinationDate string `json:"vaccination_date"`
	EntryDate       string `json:"entry_date"`
	DateOfBirth     string `json:"dob"`
	TapewormCountry bool   `json:"tapeworm_country"`
}

const (
	adultMinDaysSinceVaccination = 21
	adultMinAgeWeeks             = 12
	maxSmallGroup                = 5
)

// Categories struck for each responsible party. Each list leaves exactly the
// party's own responsibility and declaration clauses visible.
var partyCrossings = map[Party][]schema.Category{
	PartyOwner: {
		schema.ResponsibilityAuthorisedPerson,
		schema.ResponsibilityCarrier,
		schema.DeclarationAuthorisedPerson,
		schema.DeclarationAuthorisedPersonAlt,
		schema.DeclarationCarrier,
	},
	PartyAuthorisedPerson: {
		schema.ResponsibilityOwner,
		schema.ResponsibilityCarrier,
		schema.DeclarationOwner,
		schema.DeclarationOwnerAlt,
		schema.DeclarationCarrier,
	},
	PartyCarrier: {
		schema.ResponsibilityOwner,
		schema.ResponsibilityAuthorisedPerson,
		schema.DeclarationOwner,
		schema.DeclarationOwnerAlt,
		schema.DeclarationAuthorisedPerson,
		schema.DeclarationAuthorisedPersonAlt,
	},
}

// Compute returns the categories to strike for f. It is a pure function.
func Compute(f Facts) schema.CategorySet {
	out := schema.NewCategorySet()

	out.Add(partyCrossings[f.Transport]...)

	if f.NumPets <= maxSmallGroup {
		out.Add(schema.MoreThanFiveAnimals, schema.AttendEvent, schema.AssociationEvents)
	} else {
		out.Add(schema.FiveOrLessAnimals)
	}

	if adult, known := adultRabiesClause(f); known {
		if adult {
			out.Add(schema.YoungPetUnvaccinated, schema.YoungPetNoWildContact, schema.YoungPetMotherVaccinated)
			out.Add(schema.RabiesTitreOptionB)
		} else {
			out.Add(schema.RabiesTitreOption, schema.RabiesTitreOptionA, schema.RabiesTitreOptionB)
		}
	}

	switch {
	case strings.ToLower(strings.TrimSpace(f.Species)) != "dog":
		out.Add(schema.TapewormTreated, schema.TapewormNotTreated)
	case f.TapewormCountry:
		out.Add(schema.TapewormNotTreated)
	default:
		out.Add(schema.TapewormTreated)
	}
	return out
}

// adultRabiesClause reports whether the pet was vaccinated at least 21 days
// before entry and at 12 weeks of age or older. known is false when either the
// vaccination or entry date is missing or unparsable; an unknown birth date
// counts as old enough.
func adultRabiesClause(f Facts) (adult, known bool) {
	vax, ok := ParseDate(f.VaccinationDate)
	if !ok {
		return false, false
	}
	entry, ok := ParseDate(f.EntryDate)
	if !ok {
		return false, false
	}

	daysSince := entry.Sub(vax).Hours() / 24
	ageWeeks := math.Inf(1)
	if dob, ok := ParseDate(f.DateOfBirth); ok {
		ageWeeks = vax.Sub(dob).Hours() / (24 * 7)
	}
	return daysSince >= adultMinDaysSinceVaccination && ageWeeks >= adultMinAgeWeeks, true
}
