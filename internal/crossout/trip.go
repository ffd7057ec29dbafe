package crossout

import (
	"strconv"
	"strings"
)

// Trip is the client submission a certificate is generated from. Only the
// parts the engine reads are modelled.
type Trip struct {
	Owner            Person    `json:"owner" yaml:"owner"`
	AuthorisedPerson Person    `json:"authorisedPerson" yaml:"authorisedPerson"`
	Pet              *Pet      `json:"pet,omitempty" yaml:"pet,omitempty"`
	Pets             []Pet     `json:"pets,omitempty" yaml:"pets,omitempty"`
	Rabies           Rabies    `json:"rabies" yaml:"rabies"`
	Travel           Travel    `json:"travel" yaml:"travel"`
	Transport        Transport `json:"transport" yaml:"transport"`
	PetTransport     Transport `json:"petTransport" yaml:"petTransport"`
}

// Person is a named party with an address.
type Person struct {
	FirstName       string `json:"firstName" yaml:"firstName"`
	LastName        string `json:"lastName" yaml:"lastName"`
	HouseNameNumber string `json:"houseNameNumber" yaml:"houseNameNumber"`
	Street          string `json:"street" yaml:"street"`
	TownCity        string `json:"townCity" yaml:"townCity"`
	PostalCode      string `json:"postalCode" yaml:"postalCode"`
	Country         string `json:"country" yaml:"country"`
	Phone           string `json:"phone" yaml:"phone"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Address joins the non-empty address parts with ", ".
func (p Person) Address() string {
	return joinNonEmpty(", ", p.HouseNameNumber, p.Street, p.TownCity, p.PostalCode, p.Country)
}

// Pet is one animal on the certificate.
type Pet struct {
	Name            string   `json:"name" yaml:"name"`
	Species         string   `json:"species" yaml:"species"`
	Breed           string   `json:"breed" yaml:"breed"`
	BreedOther      string   `json:"breedOther" yaml:"breedOther"`
	Sex             string   `json:"sex" yaml:"sex"`
	Colour          string   `json:"colour" yaml:"colour"`
	DateOfBirth     string   `json:"dateOfBirth" yaml:"dateOfBirth"`
	MicrochipNumber string   `json:"microchipNumber" yaml:"microchipNumber"`
	Microchip       string   `json:"microchip" yaml:"microchip"`
	MicrochipDate   string   `json:"microchipDate" yaml:"microchipDate"`
	Rabies          *Rabies  `json:"rabies,omitempty" yaml:"rabies,omitempty"`
	Tapeworm        Tapeworm `json:"tapeworm" yaml:"tapeworm"`
}

// Chip returns the transponder code under either spelling.
func (p Pet) Chip() string { return firstNonEmpty(p.MicrochipNumber, p.Microchip) }

// Present reports whether the record describes an animal at all.
func (p Pet) Present() bool {
	return p.Chip() != "" || p.Name != "" || p.Species != ""
}

// Rabies is a vaccination record.
type Rabies struct {
	VaccinationDate   string `json:"vaccinationDate" yaml:"vaccinationDate"`
	Date              string `json:"date" yaml:"date"`
	VaccineName       string `json:"vaccineName" yaml:"vaccineName"`
	Vaccine           string `json:"vaccine" yaml:"vaccine"`
	Manufacturer      string `json:"manufacturer" yaml:"manufacturer"`
	BatchNumber       string `json:"batchNumber" yaml:"batchNumber"`
	Batch             string `json:"batch" yaml:"batch"`
	ValidFrom         string `json:"validFrom" yaml:"validFrom"`
	ValidTo           string `json:"validTo" yaml:"validTo"`
	ValidUntil        string `json:"validUntil" yaml:"validUntil"`
	TiterTestDate     string `json:"titerTestDate" yaml:"titerTestDate"`
	BloodSamplingDate string `json:"bloodSamplingDate" yaml:"bloodSamplingDate"`
}

// Tapeworm is an echinococcus treatment record.
type Tapeworm struct {
	Product  string `json:"product" yaml:"product"`
	DateTime string `json:"dateTime" yaml:"dateTime"`
	Date     string `json:"date" yaml:"date"`
	VetStamp string `json:"vetStamp" yaml:"vetStamp"`
	AdminVet string `json:"adminVet" yaml:"adminVet"`
}

// Given reports whether any treatment detail was recorded.
func (t Tapeworm) Given() bool {
	return t.Product != "" || t.DateTime != "" || t.Date != ""
}

// Travel describes the journey.
type Travel struct {
	FirstCountry     string `json:"firstCountry" yaml:"firstCountry"`
	FinalCountry     string `json:"finalCountry" yaml:"finalCountry"`
	DateOfEntry      string `json:"dateOfEntry" yaml:"dateOfEntry"`
	EntryDate        string `json:"entryDate" yaml:"entryDate"`
	MeansOfTravel    string `json:"meansOfTravel" yaml:"meansOfTravel"`
	TapewormRequired YesNo  `json:"tapewormRequired" yaml:"tapewormRequired"`
}

// Transport says who moves the pets.
type Transport struct {
	TransportedBy string `json:"transportedBy" yaml:"transportedBy"`
	CarrierName   string `json:"carrierName" yaml:"carrierName"`
}

// YesNo is a flag submitted either as a boolean or as "yes"/"no".
type YesNo bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *YesNo) UnmarshalJSON(data []byte) error {
	*b = YesNo(truthy(string(data)))
	return nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (b *YesNo) UnmarshalYAML(data []byte) error {
	*b = YesNo(truthy(string(data)))
	return nil
}

func truthy(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	s = strings.Trim(s, `'`)
	return s == "yes" || s == "true"
}

// tapewormCountries are first-entry destinations that require treatment.
var tapewormCountries = []string{"northern ireland", "ireland", "republic of ireland", "finland", "malta", "norway"}

// PetList returns the pets, preferring the single legacy pet record.
func (t Trip) PetList() []Pet {
	if t.Pet != nil {
		return []Pet{*t.Pet}
	}
	return t.Pets
}

// Party resolves the responsible transport party.
func (t Trip) Party() Party {
	return ParseParty(firstNonEmpty(t.Transport.TransportedBy, t.PetTransport.TransportedBy))
}

// FactsFromTrip derives rule inputs from a submission. The first pet supplies
// species, birth date and (after the trip level record) the vaccination date.
func FactsFromTrip(t Trip) Facts {
	pets := t.PetList()
	var first Pet
	if len(pets) > 0 {
		first = pets[0]
	}
	numPets := len(pets)
	if numPets == 0 {
		numPets = 1
	}

	vax := t.Rabies.VaccinationDate
	if vax == "" && first.Rabies != nil {
		vax = first.Rabies.VaccinationDate
	}

	country := strings.ToLower(t.Travel.FirstCountry)
	tapeworm := bool(t.Travel.TapewormRequired)
	for _, c := range tapewormCountries {
		if strings.Contains(country, c) {
			tapeworm = true
			break
		}
	}

	return Facts{
		Transport:       t.Party(),
		NumPets:         numPets,
		Species:         strings.ToLower(first.Species),
		VaccinationDate: vax,
		EntryDate:       firstNonEmpty(t.Travel.DateOfEntry, t.Travel.EntryDate),
		DateOfBirth:     first.DateOfBirth,
		TapewormCountry: tapeworm,
	}
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
