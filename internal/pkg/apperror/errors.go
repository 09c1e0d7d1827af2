package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation     ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError  ErrorCode = "DATABASE_ERROR"
	ErrCodeGuardViolation ErrorCode = "GUARD_VIOLATION"
	ErrCodeDispatch       ErrorCode = "DISPATCH_FAILED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// GuardViolation возвращает ошибку нарушения предусловия жизненного цикла.
// Действие отклоняется до каких-либо изменений записи.
func GuardViolation(message string) *AppError {
	return New(ErrCodeGuardViolation, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeGuardViolation:
		return http.StatusConflict
	case ErrCodeDispatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsGuardViolation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeGuardViolation
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

var (
	ErrChangeOrderNotFound   = New(ErrCodeNotFound, "изменение к договору не найдено")
	ErrProjectNotFound       = New(ErrCodeNotFound, "проект не найден")
	ErrUserNotFound          = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized          = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden             = New(ErrCodeForbidden, "недостаточно прав")
	ErrEmptySignature        = New(ErrCodeValidation, "подпись пуста: нарисуйте подпись перед отправкой")
	ErrAlreadySigned         = New(ErrCodeGuardViolation, "документ уже подписан внутренней подписью")
	ErrSavedSignatureMissing = New(ErrCodeNotFound, "сохранённая подпись не найдена в профиле")

	// Ошибки конвейера отправки клиенту.
	ErrNoClientLinked = New(ErrCodeBadRequest, "к проекту не привязан клиент: укажите клиента в карточке проекта")
	ErrNoContactEmail = New(ErrCodeBadRequest, "у клиента нет контакта с email: добавьте email в карточке клиента")
	ErrDispatchFailed = New(ErrCodeDispatch, "не удалось отправить письмо клиенту")

	// Конкурентное изменение записи, обнаруженное хранилищем.
	ErrStoreConflict = New(ErrCodeConflict, "запись была изменена параллельно, повторите действие")
)
