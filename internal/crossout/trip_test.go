package crossout

import (
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactsFromTrip(t *testing.T) {
	trip := Trip{
		Pets: []Pet{
			{Species: "Dog", DateOfBirth: "2020-01-01", Rabies: &Rabies{VaccinationDate: "2024-01-05"}},
			{Species: "cat"},
		},
		Travel:    Travel{FirstCountry: "Republic of Ireland", DateOfEntry: "2024-02-01"},
		Transport: Transport{TransportedBy: "authorisedPerson"},
	}

	f := FactsFromTrip(trip)
	assert.Equal(t, Facts{
		Transport:       PartyAuthorisedPerson,
		NumPets:         2,
		Species:         "dog",
		VaccinationDate: "2024-01-05",
		EntryDate:       "2024-02-01",
		DateOfBirth:     "2020-01-01",
		TapewormCountry: true,
	}, f)
}

func TestFactsFromTripDefaults(t *testing.T) {
	f := FactsFromTrip(Trip{
		Rabies: Rabies{VaccinationDate: "2024-01-01"},
		Travel: Travel{FirstCountry: "France", EntryDate: "2024-03-01"},
	})
	assert.Equal(t, PartyOwner, f.Transport)
	assert.Equal(t, 1, f.NumPets)
	assert.Equal(t, "", f.Species)
	assert.Equal(t, "2024-01-01", f.VaccinationDate)
	assert.Equal(t, "2024-03-01", f.EntryDate)
	assert.False(t, f.TapewormCountry)
}

func TestFactsFromTripPrefersLegacyPet(t *testing.T) {
	f := FactsFromTrip(Trip{
		Pet:          &Pet{Species: "ferret"},
		Pets:         []Pet{{Species: "dog"}, {Species: "dog"}},
		PetTransport: Transport{TransportedBy: "carrier"},
	})
	assert.Equal(t, "ferret", f.Species)
	assert.Equal(t, 1, f.NumPets)
	assert.Equal(t, PartyCarrier, f.Transport)
}

func TestTripDecodeYesNo(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want bool
	}{
		{"yes string", "travel:\n  tapewormRequired: \"yes\"\n", true},
		{"bare yes", "travel:\n  tapewormRequired: yes\n", true},
		{"bool", "travel:\n  tapewormRequired: true\n", true},
		{"no", "travel:\n  tapewormRequired: \"no\"\n", false},
		{"absent", "travel:\n  firstCountry: Malta\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trip Trip
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &trip))
			assert.Equal(t, tt.want, bool(trip.Travel.TapewormRequired))
		})
	}

	var trip Trip
	require.NoError(t, json.Unmarshal([]byte(`{"travel":{"tapewormRequired":"yes"},"owner":{"firstName":"Ann","lastName":"Lee","street":"1 Road","country":"UK"}}`), &trip))
	assert.True(t, bool(trip.Travel.TapewormRequired))
	assert.Equal(t, "Ann Lee", trip.Owner.FullName())
	assert.Equal(t, "1 Road, UK", trip.Owner.Address())
}

func TestPetHelpers(t *testing.T) {
	p := Pet{Microchip: "9780"}
	assert.Equal(t, "9780", p.Chip())
	assert.True(t, p.Present())
	assert.False(t, Pet{}.Present())
	assert.True(t, Tapeworm{Date: "2024-01-01"}.Given())
	assert.False(t, Tapeworm{VetStamp: "x"}.Given())
}
