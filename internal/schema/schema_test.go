package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysVocabulary(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, 19+MaxPets*14+MaxDeclarationRows*2)

	seen := make(map[Key]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}

	assert.True(t, IsKey("pets[4].rabies.validTo"))
	assert.True(t, IsKey("declaration.rows[2].ahcNumber"))
	assert.False(t, IsKey("pets[5].rabies.validTo"))
	assert.False(t, IsKey("owner.signature"))
}

func TestRequiredKeysAreInVocabulary(t *testing.T) {
	for _, k := range RequiredKeys() {
		assert.True(t, IsKey(k), "required key %s missing from vocabulary", k)
	}
}

func TestIndexedKeys(t *testing.T) {
	i, ok := IsPetKey("pets[3].microchip")
	require.True(t, ok)
	assert.Equal(t, 3, i)

	i, ok = IsRowKey("declaration.rows[1].transponder")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = IsPetKey("owner.fullName")
	assert.False(t, ok)
}

func TestSlotCategoryTable(t *testing.T) {
	seen := make(map[Category]bool)
	for n := 1; n <= SlotCount; n++ {
		c, ok := CategoryForSlot(n)
		require.True(t, ok)
		assert.True(t, IsCategory(c))
		assert.False(t, seen[c], "category %s bound twice", c)
		seen[c] = true

		back, ok := SlotForCategory(c)
		require.True(t, ok)
		assert.Equal(t, n, back)
	}
	assert.Len(t, seen, len(Categories()))

	_, ok := CategoryForSlot(0)
	assert.False(t, ok)
	_, ok = CategoryForSlot(21)
	assert.False(t, ok)

	c, _ := CategoryForSlot(13)
	assert.Equal(t, RabiesTitreOption, c)
	c, _ = CategoryForSlot(16)
	assert.Equal(t, DeclarationAuthorisedPerson, c)
}

func TestCategorySetSorted(t *testing.T) {
	s := NewCategorySet(DeclarationCarrier, ResponsibilityOwner, TapewormTreated)
	s.Add(ResponsibilityOwner)
	assert.Equal(t, []Category{ResponsibilityOwner, TapewormTreated, DeclarationCarrier}, s.Sorted())
	assert.True(t, s.Has(TapewormTreated))
	assert.False(t, s.Has(TapewormNotTreated))
}
