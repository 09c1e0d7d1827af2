package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotal_ChargePositive(t *testing.T) {
	items := []LineItem{
		{Name: "Демонтаж", Amount: 200},
		{Name: "Монтаж", Amount: 300},
	}

	total := ComputeTotal(items, RequestedByClient)
	assert.Equal(t, 500.0, total)
}

func TestComputeTotal_InternalIsCredit(t *testing.T) {
	items := []LineItem{
		{Name: "Демонтаж", Amount: 200},
		{Name: "Монтаж", Amount: 300},
	}

	total := ComputeTotal(items, RequestedByInternal)
	assert.Equal(t, -500.0, total)
}

func TestComputeTotal_SignSymmetry(t *testing.T) {
	sets := [][]LineItem{
		{{Name: "a", Amount: 0.1}, {Name: "b", Amount: 0.2}},
		{{Name: "a", Amount: 1234.56}},
		{{Name: "a", Amount: 33.33}, {Name: "b", Amount: 66.67}, {Name: "c", Amount: 0.005}},
	}

	for _, items := range sets {
		charge := ComputeTotal(items, RequestedByClient)
		credit := ComputeTotal(items, RequestedByInternal)
		assert.Equal(t, -charge, credit)
	}
}

func TestComputeTotal_NormalizesNegativeLines(t *testing.T) {
	// Знак позиции не хранится: отрицательные строки берутся по модулю.
	items := []LineItem{
		{Name: "a", Amount: -200},
		{Name: "b", Amount: 300},
	}

	assert.Equal(t, 500.0, ComputeTotal(items, RequestedByGC))
	assert.Equal(t, -500.0, ComputeTotal(items, RequestedByInternal))
}

func TestComputeTotal_RoundsToCents(t *testing.T) {
	items := []LineItem{
		{Name: "a", Amount: 0.1},
		{Name: "b", Amount: 0.2},
	}

	assert.Equal(t, 0.3, ComputeTotal(items, RequestedByClient))
}

func TestComputeDeposit(t *testing.T) {
	assert.Equal(t, 250.0, ComputeDeposit(500, 50))
	assert.Equal(t, 0.0, ComputeDeposit(500, 0))
	assert.Equal(t, 166.67, ComputeDeposit(500, 33.333))

	// Аванс считается от модуля: кредитовый документ не даёт отрицательного аванса.
	assert.Equal(t, 250.0, ComputeDeposit(-500, 50))
}

func TestRequestedBy_IsCredit(t *testing.T) {
	assert.True(t, RequestedByInternal.IsCredit())
	assert.False(t, RequestedByClient.IsCredit())
	assert.False(t, RequestedByGC.IsCredit())
	assert.False(t, RequestedByArchitect.IsCredit())
}
