package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineItems_Normalize_Detailed(t *testing.T) {
	li := LineItems{Detailed: []LineItem{
		{Name: "a", Amount: -100.005},
		{Name: "b", Amount: 50},
	}}

	items := li.Normalize(0)
	assert.Len(t, items, 2)
	assert.Equal(t, 100.01, items[0].Amount)
	assert.Equal(t, 50.0, items[1].Amount)
}

func TestLineItems_Normalize_LegacyEvenSplit(t *testing.T) {
	li := LineItems{LegacyNames: []string{"Дизайн", "Чертежи", "Надзор"}}

	items := li.Normalize(100)
	assert.Len(t, items, 3)
	assert.Equal(t, 33.33, items[0].Amount)
	assert.Equal(t, 33.33, items[1].Amount)
	// Остаток округления относится на последнюю позицию.
	assert.Equal(t, 33.34, items[2].Amount)

	var sum float64
	for _, item := range items {
		sum += item.Amount
	}
	assert.InDelta(t, 100.0, sum, 0.0001)
}

func TestLineItems_Normalize_LegacyNegativeTotal(t *testing.T) {
	li := LineItems{LegacyNames: []string{"Дизайн", "Чертежи"}}

	items := li.Normalize(-99.99)
	assert.Equal(t, 50.0, items[0].Amount)
	assert.Equal(t, 49.99, items[1].Amount)
}

func TestLineItems_IsLegacy(t *testing.T) {
	assert.True(t, LineItems{LegacyNames: []string{"x"}}.IsLegacy())
	assert.False(t, LineItems{Detailed: []LineItem{{Name: "x"}}}.IsLegacy())
	assert.False(t, LineItems{}.IsLegacy())
}

func TestValidateLineItems(t *testing.T) {
	assert.Error(t, ValidateLineItems(LineItems{}))
	assert.Error(t, ValidateLineItems(LineItems{Detailed: []LineItem{{Name: ""}}}))
	assert.NoError(t, ValidateLineItems(LineItems{Detailed: []LineItem{{Name: "x", Amount: 1}}}))
	assert.NoError(t, ValidateLineItems(LineItems{LegacyNames: []string{"x"}}))
}

func TestChangeOrderStatus(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusVoided.IsTerminal())
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusPendingClient.IsTerminal())

	assert.True(t, StatusDraft.IsEditable())
	assert.True(t, StatusPendingInternal.IsEditable())
	assert.False(t, StatusPendingClient.IsEditable())

	_, err := NewChangeOrderStatus("shipped")
	assert.Error(t, err)
}
