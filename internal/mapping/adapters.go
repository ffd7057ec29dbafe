package mapping

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// strategy binds whatever keys it can find. Strategies never overwrite a key
// bound earlier, so running several in sequence keeps the first hit per key.
type strategy func(fs FieldSet, m Mapping)

type adapter struct {
	id         string
	strategies []strategy
}

func (a adapter) resolve(fs FieldSet) Mapping {
	m := New()
	for _, s := range a.strategies {
		s(fs, m)
	}
	return m
}

var (
	textNAdapter        = adapter{id: "textn", strategies: []strategy{commonFields, textNPets}}
	namedEnglishAdapter = adapter{id: "named_english", strategies: []strategy{commonFields, namedEnglishPets}}
	patternAAdapter     = adapter{id: "named_pattern_a", strategies: []strategy{commonFields, patternAPets}}
	patternBAdapter     = adapter{id: "named_pattern_b", strategies: []strategy{commonFields, patternBPets}}

	// fallbackAdapter tries every convention in priority order.
	fallbackAdapter = adapter{id: "fallback", strategies: []strategy{
		commonFields, textNPets, namedEnglishPets, patternAPets, patternBPets,
	}}
)

func adapterFor(p profile.Profile) adapter {
	switch p {
	case profile.TextNFullChecks, profile.TextNFullChecksSecondLanguage, profile.TextNReduced:
		return textNAdapter
	case profile.NamedEnglish:
		return namedEnglishAdapter
	case profile.NamedPatternA:
		return patternAAdapter
	case profile.NamedPatternB:
		return patternBAdapter
	default:
		return fallbackAdapter
	}
}

var (
	postcodePattern  = regexp.MustCompile(`(?i)(post\s*code|postcode|postal\s*code)`)
	phonePattern     = regexp.MustCompile(`(?i)(telephone|phone|tel)`)
	referencePattern = regexp.MustCompile(`(?i)certificate\s*reference`)
)

var (
	rowTransponderNames = [schema.MaxDeclarationRows]string{
		"Transponder", "Transponder1", "Transponder2", "Transponder3", "Transponder4",
	}
	rowAHCNames = [schema.MaxDeclarationRows]string{
		"AHC number", "AHC number1", "AHC number2", "AHC number3", "AHC number4",
	}
	rowAHCLongNames = [schema.MaxDeclarationRows]string{
		"Animal health certificate number",
		"Animal health certificate number1",
		"Animal health certificate number2",
		"Animal health certificate number3",
		"Animal health certificate number4",
	}
)

// commonFields covers the party, official-vet and declaration fields that
// all conventions name the same way.
func commonFields(fs FieldSet, m Mapping) {
	m.set(schema.KeyOwnerFullName, fs.pick("Name1"))
	m.set(schema.KeyOwnerAddress, fs.pick("Address1"))
	m.set(schema.KeyOwnerTelephone, fs.pick("Telephone1", "Phone1", "Tel1"))

	m.set(schema.KeyDestinationFullName, fs.pick("Name2"))
	m.set(schema.KeyDestinationAddress, fs.pick("Address2"))
	m.set(schema.KeyDestinationPostcode, fs.pick("Post code", "Postcode", "Postal code"))
	m.set(schema.KeyDestinationPostcode, fs.match(postcodePattern))
	m.set(schema.KeyDestinationPhone, fs.pick("Telephone2", "Phone2", "Tel2"))
	m.set(schema.KeyDestinationPhone, fs.match(phonePattern))

	m.set(schema.KeyGoodsDescription, fs.pick("Commodity description"))
	m.set(schema.Pet(0, schema.PetIdentificationLine), fs.pick("Commodity description2"))
	m.set(schema.KeyGoodsQuantity, fs.pick("Quantity"))
	m.set(schema.KeyLocalAuthority, fs.pick("LCA"))

	m.set(schema.KeyOVName, fs.pick("OV name"))
	m.set(schema.KeyOVAddress, fs.pick("OV address", "OV Address"))
	m.set(schema.KeyOVTelephone, fs.pick("OV telephone", "OV Telephone"))
	m.set(schema.KeyOVQualification, fs.pick("OV qualification", "OV Qualification"))

	m.set(schema.KeyIssueDate, fs.pick("Date"))
	m.set(schema.KeyDeclarationPlaceDate, fs.pick("Placedate", "PlaceDate"))
	m.set(schema.KeyTransporter, fs.pick("Transporter"))
	m.set(schema.KeyMeansOfTransport, fs.pick("Means of transport", "Means Of Transport"))

	m.set(schema.KeyCertificateReference, fs.pick(
		"Certificate reference No",
		"Certificate Reference No",
		"Certificate reference NO",
		"II.a. Certificate reference No",
		"II.a. Certificate Reference No",
	))
	m.set(schema.KeyCertificateReference, fs.match(referencePattern))
	m.set(schema.KeyCertificateReference, fs.pick("Text1"))

	for i := 0; i < schema.MaxDeclarationRows; i++ {
		m.set(schema.Row(i, schema.RowTransponder), fs.pick(rowTransponderNames[i]))
		m.set(schema.Row(i, schema.RowAHCNumber), fs.pick(rowAHCNames[i], rowAHCLongNames[i]))
	}
}

var (
	textNPetBase      = [schema.MaxPets]int{2, 10, 18, 26, 34}
	textNTapewormBase = [schema.MaxPets]int{42, 46, 50, 54, 58}
)

// textNPets binds pet records onto the fixed TextN blocks: eight consecutive
// fields per pet for identification and rabies, four per pet for tapeworm.
func textNPets(fs FieldSet, m Mapping) {
	text := func(n int) string { return fs.pick("Text" + strconv.Itoa(n)) }
	for i := 0; i < schema.MaxPets; i++ {
		b := textNPetBase[i]
		m.set(schema.Pet(i, schema.PetMicrochip), text(b))
		m.set(schema.Pet(i, schema.PetMicrochipDate), text(b+1))
		m.set(schema.Pet(i, schema.PetRabiesDate), text(b+2))
		m.set(schema.Pet(i, schema.PetRabiesVaccine), text(b+3))
		m.set(schema.Pet(i, schema.PetRabiesBatch), text(b+4))
		m.set(schema.Pet(i, schema.PetRabiesValidFrom), text(b+5))
		m.set(schema.Pet(i, schema.PetRabiesValidTo), text(b+6))
		m.set(schema.Pet(i, schema.PetRabiesBloodSample), text(b+7))

		t := textNTapewormBase[i]
		m.set(schema.Pet(i, schema.PetTapewormTransp), text(t))
		m.set(schema.Pet(i, schema.PetTapewormProduct), text(t+1))
		m.set(schema.Pet(i, schema.PetTapewormDateTime), text(t+2))
		m.set(schema.Pet(i, schema.PetTapewormAdminVet), text(t+3))
	}
}

// suffix is the pet ordinal appended to named fields: "" for the first pet,
// then "2", "3" and so on.
func suffix(i int) string {
	if i == 0 {
		return ""
	}
	return strconv.Itoa(i + 1)
}

// dash is the "-N" ordinal used by the numbered date and name fields.
func dash(i int) string {
	if i == 0 {
		return ""
	}
	return "-" + strconv.Itoa(i+1)
}

// sharedNamedPets binds the fields that read the same in every named
// convention.
func sharedNamedPets(fs FieldSet, m Mapping, i int) {
	s := suffix(i)
	m.set(schema.Pet(i, schema.PetRabiesBatch), fs.pick("Batch No"+s))
	m.set(schema.Pet(i, schema.PetRabiesValidFrom), fs.pick("From"+s))
	m.set(schema.Pet(i, schema.PetRabiesValidTo), fs.pick("To"+s))
	m.set(schema.Pet(i, schema.PetTapewormTransp), fs.pick("Transponder or tattoo number of the dog"+s))
}

func namedEnglishPets(fs FieldSet, m Mapping) {
	for i := 0; i < schema.MaxPets; i++ {
		s, d := suffix(i), dash(i)
		m.set(schema.Pet(i, schema.PetMicrochip), fs.pick("Alphanumeric code of the animal"+s))
		m.set(schema.Pet(i, schema.PetMicrochipDate), fs.pick("Date1"+d))
		m.set(schema.Pet(i, schema.PetRabiesDate), fs.pick("Date2"+d))
		m.set(schema.Pet(i, schema.PetRabiesVaccine), fs.pick("Name"+s, "Name25"+d))
		m.set(schema.Pet(i, schema.PetRabiesBloodSample), fs.pick("Date3"+d))
		m.set(schema.Pet(i, schema.PetTapewormProduct), fs.pick("Name and manufacturer of the product"+s))
		m.set(schema.Pet(i, schema.PetTapewormDateTime), fs.pick("Date and Time"+s))
		m.set(schema.Pet(i, schema.PetTapewormAdminVet), fs.pick("Veterinarian Details"+s, "Vet Details"+s))
		sharedNamedPets(fs, m, i)
	}
}

func patternAPets(fs FieldSet, m Mapping) {
	for i := 0; i < schema.MaxPets; i++ {
		s, d := suffix(i), dash(i)
		m.set(schema.Pet(i, schema.PetMicrochip), fs.pick("Code of Animal"+s))
		m.set(schema.Pet(i, schema.PetMicrochipDate), fs.pick(fmt.Sprintf("Date1%d", i)))
		m.set(schema.Pet(i, schema.PetRabiesDate), fs.pick("Date20"+d))
		m.set(schema.Pet(i, schema.PetRabiesVaccine), fs.pick("Name20"+d))
		m.set(schema.Pet(i, schema.PetRabiesBloodSample), fs.pick("Date21"+d))
		m.set(schema.Pet(i, schema.PetTapewormProduct), fs.pick(
			"Name and manufacturer of the product"+s, fmt.Sprintf("Name1%d", i)))
		m.set(schema.Pet(i, schema.PetTapewormDateTime), fs.pick("Date22"+d, fmt.Sprintf("Date1%d", i)))
		m.set(schema.Pet(i, schema.PetTapewormAdminVet), fs.pick("Veterinarian Details"+s, "Vet Details"+s))
		sharedNamedPets(fs, m, i)
	}
}

func patternBPets(fs FieldSet, m Mapping) {
	for i := 0; i < schema.MaxPets; i++ {
		s, d := suffix(i), dash(i)

		microchip, vaccine, blood, vet := "Code of animal"+s, fmt.Sprintf("Name%d", i+2), fmt.Sprintf("Date4-%d", i), "Vet Details"+s
		if i == 0 {
			microchip, vaccine, blood, vet = "Code of the animal", "Name3", "Date4", "Vet details"
		}

		m.set(schema.Pet(i, schema.PetMicrochip), fs.pick(microchip, "Code of Animal"+s))
		m.set(schema.Pet(i, schema.PetMicrochipDate), fs.pick("Date2"+d))
		m.set(schema.Pet(i, schema.PetRabiesDate), fs.pick("Date3"+d))
		m.set(schema.Pet(i, schema.PetRabiesVaccine), fs.pick("Name"+s, vaccine))
		m.set(schema.Pet(i, schema.PetRabiesBloodSample), fs.pick(blood))
		m.set(schema.Pet(i, schema.PetTapewormProduct), fs.pick(
			"Name and manufacturer of the product"+s, fmt.Sprintf("Name1%d", i)))
		m.set(schema.Pet(i, schema.PetTapewormDateTime), fs.pick("Date and Time"+s))
		m.set(schema.Pet(i, schema.PetTapewormAdminVet), fs.pick("Veterinarian Details"+s, vet, "Vet Details"+s))
		sharedNamedPets(fs, m, i)
	}
}
