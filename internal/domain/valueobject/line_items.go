package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/arcline/studio-backend/internal/pkg/apperror"
)

// LineItem — одна позиция изменения. Знак позиции не хранится: суммы позиций
// нормализуются по модулю, знак существует только на уровне итога.
type LineItem struct {
	Name        string
	Amount      float64
	Description string
}

// LineItems — позиции документа в одном из двух представлений.
// Исторические записи хранят только список названий услуг с равным
// распределением итоговой суммы; новые записи хранят детальные позиции.
type LineItems struct {
	Detailed    []LineItem
	LegacyNames []string
}

func (li LineItems) IsLegacy() bool {
	return len(li.Detailed) == 0 && len(li.LegacyNames) > 0
}

func (li LineItems) IsEmpty() bool {
	return len(li.Detailed) == 0 && len(li.LegacyNames) == 0
}

// Normalize приводит позиции к каноническому детальному виду. Для
// исторических записей итоговая сумма делится поровну между названиями,
// остаток от округления относится на последнюю позицию, чтобы сумма позиций
// всегда сходилась с итогом.
func (li LineItems) Normalize(storedTotal float64) []LineItem {
	if !li.IsLegacy() {
		items := make([]LineItem, len(li.Detailed))
		for i, item := range li.Detailed {
			items[i] = LineItem{
				Name:        item.Name,
				Amount:      roundCurrency(decimal.NewFromFloat(item.Amount).Abs()),
				Description: item.Description,
			}
		}
		return items
	}

	count := len(li.LegacyNames)
	total := decimal.NewFromFloat(storedTotal).Abs()
	share := total.DivRound(decimal.NewFromInt(int64(count)), 2)

	items := make([]LineItem, count)
	allocated := decimal.Zero
	for i, name := range li.LegacyNames {
		amount := share
		if i == count-1 {
			amount = total.Sub(allocated)
		}
		items[i] = LineItem{Name: name, Amount: roundCurrency(amount)}
		allocated = allocated.Add(amount)
	}
	return items
}

// ValidateLineItems проверяет позиции перед созданием или изменением записи.
func ValidateLineItems(li LineItems) error {
	if li.IsEmpty() {
		return apperror.New(apperror.ErrCodeValidation, "изменение должно содержать хотя бы одну позицию")
	}
	for _, item := range li.Detailed {
		if item.Name == "" {
			return apperror.New(apperror.ErrCodeValidation, "у позиции должно быть название")
		}
	}
	return nil
}
