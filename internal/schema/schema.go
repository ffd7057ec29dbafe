// Package schema holds the static canonical vocabulary shared by every
// certificate variant: the semantic data keys, the required subset, and the
// twenty cross-out categories bound to the numbered check slots.
package schema

import (
	"fmt"
	"strings"
)

const (
	// MaxPets is the number of repeated pet records a certificate carries.
	MaxPets = 5
	// MaxDeclarationRows is the number of rows in the declaration table.
	MaxDeclarationRows = 5
	// SlotCount is the number of numbered check/strike slots.
	SlotCount = 20
)

// Key is a dot/bracket addressed canonical data key such as
// "pets[0].rabies.validTo".
type Key string

// String returns the key text
func (k Key) String() string { return string(k) }

const (
	KeyCertificateReference Key = "certificate.reference"
	KeyOwnerFullName        Key = "owner.fullName"
	KeyOwnerAddress         Key = "owner.address"
	KeyOwnerTelephone       Key = "owner.telephone"
	KeyDestinationFullName  Key = "destination.fullName"
	KeyDestinationAddress   Key = "destination.address"
	KeyDestinationPostcode  Key = "destination.postcode"
	KeyDestinationPhone     Key = "destination.telephone"
	KeyGoodsDescription     Key = "goods.description"
	KeyGoodsQuantity        Key = "goods.quantity"
	KeyLocalAuthority       Key = "localCompetentAuthority"
	KeyOVName               Key = "ov.name"
	KeyOVAddress            Key = "ov.address"
	KeyOVTelephone          Key = "ov.telephone"
	KeyOVQualification      Key = "ov.qualification"
	KeyIssueDate            Key = "certificate.issue_date"
	KeyDeclarationPlaceDate Key = "declaration.placeDate"
	KeyTransporter          Key = "transport.transporter"
	KeyMeansOfTransport     Key = "transport.meansOfTransport"
)

// Per-pet sub-keys, appended to "pets[i].".
const (
	PetMicrochip          = "microchip"
	PetMicrochipDate      = "microchipDate"
	PetIdentificationLine = "identification_line"
	PetRabiesDate         = "rabies.date"
	PetRabiesVaccine      = "rabies.vaccine"
	PetRabiesBatch        = "rabies.batch"
	PetRabiesValidFrom    = "rabies.validFrom"
	PetRabiesValidTo      = "rabies.validTo"
	PetRabiesBloodSample  = "rabies.bloodSamplingDate"
	PetTapewormTransp     = "tapeworm.transponder"
	PetTapewormProduct    = "tapeworm.product"
	PetTapewormDateTime   = "tapeworm.dateTime"
	PetTapewormAdminVet   = "tapeworm.adminVet"
	PetAHCNumber          = "ahcNumber"
)

// Per-declaration-row sub-keys, appended to "declaration.rows[i].".
const (
	RowTransponder = "transponder"
	RowAHCNumber   = "ahcNumber"
)

var baseKeys = []Key{
	KeyCertificateReference,
	KeyOwnerFullName,
	KeyOwnerAddress,
	KeyOwnerTelephone,
	KeyDestinationFullName,
	KeyDestinationAddress,
	KeyDestinationPostcode,
	KeyDestinationPhone,
	KeyGoodsDescription,
	KeyGoodsQuantity,
	KeyLocalAuthority,
	KeyOVName,
	KeyOVAddress,
	KeyOVTelephone,
	KeyOVQualification,
	KeyIssueDate,
	KeyDeclarationPlaceDate,
	KeyTransporter,
	KeyMeansOfTransport,
}

var petSuffixes = []string{
	PetMicrochip,
	PetMicrochipDate,
	PetIdentificationLine,
	PetRabiesDate,
	PetRabiesVaccine,
	PetRabiesBatch,
	PetRabiesValidFrom,
	PetRabiesValidTo,
	PetRabiesBloodSample,
	PetTapewormTransp,
	PetTapewormProduct,
	PetTapewormDateTime,
	PetTapewormAdminVet,
	PetAHCNumber,
}

// Pet returns the canonical key for a per-pet datum.
func Pet(index int, suffix string) Key {
	return Key(fmt.Sprintf("pets[%d].%s", index, suffix))
}

// Row returns the canonical key for a declaration-table datum.
func Row(index int, suffix string) Key {
	return Key(fmt.Sprintf("declaration.rows[%d].%s", index, suffix))
}

var (
	allKeys  = buildKeys()
	keyIndex = buildKeyIndex(allKeys)
)

func buildKeys() []Key {
	out := make([]Key, 0, len(baseKeys)+MaxPets*len(petSuffixes)+MaxDeclarationRows*2)
	out = append(out, baseKeys...)
	for i := 0; i < MaxPets; i++ {
		for _, suffix := range petSuffixes {
			out = append(out, Pet(i, suffix))
		}
	}
	for i := 0; i < MaxDeclarationRows; i++ {
		out = append(out, Row(i, RowTransponder), Row(i, RowAHCNumber))
	}
	return out
}

func buildKeyIndex(keys []Key) map[Key]int {
	idx := make(map[Key]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

// Keys returns the full canonical vocabulary in its fixed order.
func Keys() []Key {
	out := make([]Key, len(allKeys))
	copy(out, allKeys)
	return out
}

// IsKey reports whether k belongs to the vocabulary.
func IsKey(k Key) bool {
	_, ok := keyIndex[k]
	return ok
}

// KeyOrder returns the position of k in the vocabulary, or -1.
func KeyOrder(k Key) int {
	if i, ok := keyIndex[k]; ok {
		return i
	}
	return -1
}

// RequiredKeys lists the keys a compliant certificate must be able to fill.
func RequiredKeys() []Key {
	keys := []Key{
		KeyCertificateReference,
		KeyOwnerFullName,
		KeyOwnerAddress,
		KeyDestinationFullName,
		KeyDestinationAddress,
		KeyDestinationPostcode,
		KeyDestinationPhone,
		KeyLocalAuthority,
		KeyOVName,
		KeyOVAddress,
		KeyOVTelephone,
		KeyOVQualification,
		KeyIssueDate,
		KeyDeclarationPlaceDate,
		KeyTransporter,
	}
	for _, suffix := range []string{
		PetMicrochip, PetMicrochipDate,
		PetRabiesDate, PetRabiesVaccine, PetRabiesBatch,
		PetRabiesValidFrom, PetRabiesValidTo, PetRabiesBloodSample,
		PetTapewormTransp, PetTapewormProduct, PetTapewormDateTime, PetTapewormAdminVet,
	} {
		keys = append(keys, Pet(0, suffix))
	}
	return append(keys, Row(0, RowTransponder), Row(0, RowAHCNumber))
}

// IsPetKey reports whether k addresses a per-pet datum and returns its index.
func IsPetKey(k Key) (int, bool) {
	return indexedPrefix(string(k), "pets[")
}

// IsRowKey reports whether k addresses a declaration row and returns its index.
func IsRowKey(k Key) (int, bool) {
	return indexedPrefix(string(k), "declaration.rows[")
}

func indexedPrefix(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) || len(s) < len(prefix)+2 {
		return 0, false
	}
	d := s[len(prefix)]
	if d < '0' || d > '9' || s[len(prefix)+1] != ']' {
		return 0, false
	}
	return int(d - '0'), true
}
