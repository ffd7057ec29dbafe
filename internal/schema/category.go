package schema

import "sort"

// Category labels one legal clause that may be struck through.
type Category string

const (
	ResponsibilityOwner            Category = "responsibility_owner"
	ResponsibilityAuthorisedPerson Category = "responsibility_authorised_person"
	ResponsibilityCarrier          Category = "responsibility_carrier"
	FiveOrLessAnimals              Category = "five_or_less_animals"
	MoreThanFiveAnimals            Category = "more_than_five_animals"
	AttendEvent                    Category = "attend_event"
	AssociationEvents              Category = "association_events"
	YoungPetUnvaccinated           Category = "young_pet_unvaccinated"
	YoungPetNoWildContact          Category = "young_pet_no_wild_contact"
	YoungPetMotherVaccinated       Category = "young_pet_mother_vaccinated"
	RabiesTitreOption              Category = "rabies_titre_option"
	RabiesTitreOptionA             Category = "rabies_titre_option_a"
	RabiesTitreOptionB             Category = "rabies_titre_option_b"
	TapewormTreated                Category = "tapeworm_treated"
	TapewormNotTreated             Category = "tapeworm_not_treated"
	DeclarationOwner               Category = "declaration_owner"
	DeclarationOwnerAlt            Category = "declaration_owner_alt"
	DeclarationAuthorisedPerson    Category = "declaration_authorised_person"
	DeclarationAuthorisedPersonAlt Category = "declaration_authorised_person_alt"
	DeclarationCarrier             Category = "declaration_carrier"
)

var categories = []Category{
	ResponsibilityOwner,
	ResponsibilityAuthorisedPerson,
	ResponsibilityCarrier,
	FiveOrLessAnimals,
	MoreThanFiveAnimals,
	AttendEvent,
	AssociationEvents,
	YoungPetUnvaccinated,
	YoungPetNoWildContact,
	YoungPetMotherVaccinated,
	RabiesTitreOption,
	RabiesTitreOptionA,
	RabiesTitreOptionB,
	TapewormTreated,
	TapewormNotTreated,
	DeclarationOwner,
	DeclarationOwnerAlt,
	DeclarationAuthorisedPerson,
	DeclarationAuthorisedPersonAlt,
	DeclarationCarrier,
}

// slotCategories binds canonical check slot N (index N-1) to its clause.
// The declaration block starts at slot 16 and is not in declaration order.
var slotCategories = [SlotCount]Category{
	ResponsibilityOwner,
	ResponsibilityAuthorisedPerson,
	ResponsibilityCarrier,
	FiveOrLessAnimals,
	MoreThanFiveAnimals,
	AttendEvent,
	AssociationEvents,
	YoungPetUnvaccinated,
	YoungPetNoWildContact,
	YoungPetMotherVaccinated,
	RabiesTitreOptionA,
	RabiesTitreOptionB,
	RabiesTitreOption,
	TapewormTreated,
	TapewormNotTreated,
	DeclarationAuthorisedPerson,
	DeclarationOwner,
	DeclarationOwnerAlt,
	DeclarationAuthorisedPersonAlt,
	DeclarationCarrier,
}

// DeclarationSlotStart is the first slot of the declaration block.
const DeclarationSlotStart = 16

var categoryOrder = func() map[Category]int {
	m := make(map[Category]int, len(categories))
	for i, c := range categories {
		m[c] = i
	}
	return m
}()

// Categories returns the twenty categories in canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// IsCategory reports whether c is one of the twenty labels.
func IsCategory(c Category) bool {
	_, ok := categoryOrder[c]
	return ok
}

// CategoryForSlot returns the clause bound to check slot n (1..20).
func CategoryForSlot(n int) (Category, bool) {
	if n < 1 || n > SlotCount {
		return "", false
	}
	return slotCategories[n-1], true
}

// SlotForCategory returns the canonical check slot bound to c.
func SlotForCategory(c Category) (int, bool) {
	for i, sc := range slotCategories {
		if sc == c {
			return i + 1, true
		}
	}
	return 0, false
}

// CategorySet is an unordered set of categories. Adding twice is a no-op.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cs ...Category) CategorySet {
	s := make(CategorySet, len(cs))
	for _, c := range cs {
		s.Add(c)
	}
	return s
}

// Add inserts c.
func (s CategorySet) Add(cs ...Category) {
	for _, c := range cs {
		s[c] = struct{}{}
	}
}

// Has reports membership.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in canonical category order.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return categoryOrder[out[i]] < categoryOrder[out[j]]
	})
	return out
}
