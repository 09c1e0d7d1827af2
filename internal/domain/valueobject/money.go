package valueobject

import "github.com/shopspring/decimal"

// ComputeTotal вычисляет итоговую сумму изменения по позициям.
// Суммы позиций берутся по модулю, знак определяется только инициатором:
// внутренние изменения — кредит (отрицательная сумма), остальные — доплата.
func ComputeTotal(items []LineItem, requestedBy RequestedBy) float64 {
	raw := decimal.Zero
	for _, item := range items {
		raw = raw.Add(decimal.NewFromFloat(item.Amount).Abs())
	}
	if requestedBy.IsCredit() {
		raw = raw.Neg()
	}
	return roundCurrency(raw)
}

// ComputeDeposit вычисляет сумму аванса: доля от модуля итога.
// Имеет смысл только при depositPct > 0.
func ComputeDeposit(amount float64, depositPct float64) float64 {
	if depositPct <= 0 {
		return 0
	}
	deposit := decimal.NewFromFloat(amount).Abs().
		Mul(decimal.NewFromFloat(depositPct)).
		Div(decimal.NewFromInt(100))
	return roundCurrency(deposit)
}

// roundCurrency округляет до двух знаков — все денежные значения в системе
// хранятся с точностью до цента.
func roundCurrency(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}
