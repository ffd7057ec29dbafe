package generate

import (
	"strconv"
	"strings"

	"github.com/a3tai/ahc-engine/internal/crossout"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// Issuer is the official veterinarian signing the certificate and their
// practice.
type Issuer struct {
	VetName         string `json:"vet_name" yaml:"vet_name"`
	Qualification   string `json:"qualification" yaml:"qualification"`
	VetPhone        string `json:"vet_phone" yaml:"vet_phone"`
	PracticeAddress string `json:"practice_address" yaml:"practice_address"`
	PracticePhone   string `json:"practice_phone" yaml:"practice_phone"`
}

// Submission is everything a certificate is filled from.
type Submission struct {
	CertificateNumber string        `json:"certificate_number" yaml:"certificate_number"`
	IssueDate         string        `json:"issue_date" yaml:"issue_date"`
	IssuePlace        string        `json:"issue_place" yaml:"issue_place"`
	FirstCountry      string        `json:"first_country" yaml:"first_country"`
	Issuer            Issuer        `json:"issuer" yaml:"issuer"`
	Trip              crossout.Trip `json:"trip" yaml:"trip"`
}

// Facts derives the cross-out rule inputs. The submission's first country
// stands in when the trip record has none.
func (s Submission) Facts() crossout.Facts {
	t := s.Trip
	if t.Travel.FirstCountry == "" {
		t.Travel.FirstCountry = s.FirstCountry
	}
	return crossout.FactsFromTrip(t)
}

// PetCount returns the number of pets with a microchip or a name.
func (s Submission) PetCount() int {
	n := 0
	for _, p := range s.Trip.PetList() {
		if p.Chip() != "" || p.Name != "" {
			n++
		}
	}
	return n
}

var scientificNames = map[string]string{
	"dog":    "CANIS LUPUS FAMILIARIS",
	"cat":    "FELIS SILVESTRIS CATUS",
	"ferret": "MUSTELA PUTORIUS FURO",
}

var goodsDescriptions = map[string]string{
	"dog":    "PET DOG",
	"cat":    "PET CAT",
	"ferret": "PET FERRET",
}

var transportLabels = map[string]string{
	"car_ferry": "Car / Ferry",
	"car":       "Car",
	"ferry":     "Ferry",
	"air":       "Air",
}

// Values builds the canonical value of every key in the vocabulary. Unknown
// data yields empty strings, never absent keys.
func Values(s Submission) map[schema.Key]string {
	t := s.Trip
	pets := t.PetList()
	primary := ""
	if len(pets) > 0 {
		primary = strings.ToLower(pets[0].Species)
	}
	quantity := len(pets)
	if quantity == 0 {
		quantity = 1
	}

	owner := t.Owner.FullName()
	issueDate := crossout.FormatDate(s.IssueDate)
	destination := firstNonEmpty(t.Travel.FinalCountry, t.Travel.FirstCountry, s.FirstCountry)

	goods := goodsDescriptions[primary]
	if goods == "" {
		goods = "PET"
	}

	v := make(map[schema.Key]string, len(schema.Keys()))
	for _, k := range schema.Keys() {
		v[k] = ""
	}

	v[schema.KeyCertificateReference] = s.CertificateNumber
	v[schema.KeyOwnerFullName] = owner
	v[schema.KeyOwnerAddress] = t.Owner.Address()
	v[schema.KeyOwnerTelephone] = t.Owner.Phone
	v[schema.KeyDestinationFullName] = owner
	v[schema.KeyDestinationAddress] = destination
	v[schema.KeyDestinationPhone] = t.Owner.Phone
	v[schema.KeyGoodsDescription] = goods
	v[schema.KeyGoodsQuantity] = strconv.Itoa(quantity)
	v[schema.KeyOVName] = s.Issuer.VetName
	v[schema.KeyOVAddress] = s.Issuer.PracticeAddress
	v[schema.KeyOVTelephone] = firstNonEmpty(s.Issuer.PracticePhone, s.Issuer.VetPhone)
	v[schema.KeyOVQualification] = s.Issuer.Qualification
	v[schema.KeyIssueDate] = issueDate
	v[schema.KeyDeclarationPlaceDate] = joinNonEmpty(", ", s.IssuePlace, issueDate)
	v[schema.KeyTransporter] = transporter(t)
	v[schema.KeyMeansOfTransport] = meansOfTransport(t.Travel.MeansOfTravel)

	for i := 0; i < schema.MaxPets; i++ {
		var p crossout.Pet
		if i < len(pets) {
			p = pets[i]
		}
		petValues(v, i, p, rabiesFor(t, i, p), primary, s.CertificateNumber)
	}
	return v
}

func petValues(v map[schema.Key]string, i int, p crossout.Pet, r crossout.Rabies, primary, certRef string) {
	chip := p.Chip()
	breed := p.Breed
	if breed == "Other" {
		breed = p.BreedOther
	}
	species := scientificName(firstNonEmpty(p.Species, primary))
	sex := sexLetter(p.Sex)
	dob := crossout.FormatDate(p.DateOfBirth)

	v[schema.Pet(i, schema.PetMicrochip)] = chip
	v[schema.Pet(i, schema.PetMicrochipDate)] = crossout.FormatDate(p.MicrochipDate)
	v[schema.Pet(i, schema.PetIdentificationLine)] = joinNonEmpty("  ",
		species, sex, strings.ToUpper(p.Colour), strings.ToUpper(breed), chip, "TRANSPONDER", dob)

	v[schema.Pet(i, schema.PetRabiesDate)] = crossout.FormatDate(firstNonEmpty(r.VaccinationDate, r.Date))
	v[schema.Pet(i, schema.PetRabiesVaccine)] = joinNonEmpty(" / ", firstNonEmpty(r.VaccineName, r.Vaccine), r.Manufacturer)
	v[schema.Pet(i, schema.PetRabiesBatch)] = firstNonEmpty(r.BatchNumber, r.Batch)
	v[schema.Pet(i, schema.PetRabiesValidFrom)] = crossout.FormatDate(r.ValidFrom)
	v[schema.Pet(i, schema.PetRabiesValidTo)] = crossout.FormatDate(firstNonEmpty(r.ValidTo, r.ValidUntil))
	v[schema.Pet(i, schema.PetRabiesBloodSample)] = crossout.FormatDate(firstNonEmpty(r.TiterTestDate, r.BloodSamplingDate))

	// Treatment fields stay blank unless a treatment was recorded.
	if tw := p.Tapeworm; tw.Given() {
		v[schema.Pet(i, schema.PetTapewormTransp)] = chip
		v[schema.Pet(i, schema.PetTapewormProduct)] = tw.Product
		v[schema.Pet(i, schema.PetTapewormDateTime)] = crossout.FormatDate(firstNonEmpty(tw.DateTime, tw.Date))
		v[schema.Pet(i, schema.PetTapewormAdminVet)] = firstNonEmpty(tw.VetStamp, tw.AdminVet)
	}

	if p.Present() && chip != "" {
		v[schema.Pet(i, schema.PetAHCNumber)] = certRef
		if i < schema.MaxDeclarationRows {
			v[schema.Row(i, schema.RowTransponder)] = chip
			v[schema.Row(i, schema.RowAHCNumber)] = certRef
		}
	}
}

// rabiesFor returns the vaccination record of pet i. The trip level record
// belongs to the first pet and wins over the pet's own.
func rabiesFor(t crossout.Trip, i int, p crossout.Pet) crossout.Rabies {
	if i == 0 && t.Rabies != (crossout.Rabies{}) {
		return t.Rabies
	}
	if p.Rabies != nil {
		return *p.Rabies
	}
	return crossout.Rabies{}
}

func transporter(t crossout.Trip) string {
	owner := t.Owner.FullName()
	switch t.Party() {
	case crossout.PartyAuthorisedPerson:
		return firstNonEmpty(t.AuthorisedPerson.FullName(), owner)
	case crossout.PartyCarrier:
		return t.Transport.CarrierName
	default:
		return owner
	}
}

func meansOfTransport(raw string) string {
	if label, ok := transportLabels[raw]; ok {
		return label
	}
	return raw
}

func scientificName(species string) string {
	if name, ok := scientificNames[strings.ToLower(species)]; ok {
		return name
	}
	return strings.ToUpper(species)
}

func sexLetter(sex string) string {
	switch strings.ToLower(sex) {
	case "male", "m":
		return "M"
	case "female", "f":
		return "F"
	}
	return sex
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
