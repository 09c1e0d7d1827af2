package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/arcline/studio-backend/internal/dto"
)

// Константы валидации
const (
	MinTitleLength       = 3
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxReasonLength      = 2000
	MaxNotesLength       = 2000
	MaxItemNameLength    = 200
	MaxItemDescLength    = 1000
	MaxLineItems         = 100
	MaxItemAmount        = 100000000.0 // 100 миллионов
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateChangeOrderTitle проверяет заголовок изменения.
func ValidateChangeOrderTitle(title string) error {
	return ValidateLength("заголовок", title, MinTitleLength, MaxTitleLength)
}

// ValidateChangeOrderDescription проверяет описание изменения.
func ValidateChangeOrderDescription(description string) error {
	return ValidateLength("описание", description, 1, MaxDescriptionLength)
}

// ValidateReason проверяет необязательное обоснование изменения.
func ValidateReason(reason *string) error {
	if reason == nil {
		return nil
	}
	return ValidateLength("обоснование", *reason, 0, MaxReasonLength)
}

// ValidateNotes проверяет необязательные заметки.
func ValidateNotes(notes *string) error {
	if notes == nil {
		return nil
	}
	return ValidateLength("заметки", *notes, 0, MaxNotesLength)
}

// ValidateLineItemRequests проверяет позиции запроса до конвертации в домен.
func ValidateLineItemRequests(items []dto.LineItemRequest) error {
	if len(items) > MaxLineItems {
		return fmt.Errorf("слишком много позиций: не более %d", MaxLineItems)
	}
	for i, item := range items {
		if err := ValidateLength(fmt.Sprintf("название позиции %d", i+1), item.Name, 1, MaxItemNameLength); err != nil {
			return err
		}
		if err := ValidateLength(fmt.Sprintf("описание позиции %d", i+1), item.Description, 0, MaxItemDescLength); err != nil {
			return err
		}
		if item.Amount > MaxItemAmount || item.Amount < -MaxItemAmount {
			return fmt.Errorf("сумма позиции %d выходит за допустимый диапазон", i+1)
		}
	}
	return nil
}
