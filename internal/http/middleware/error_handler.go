package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/arcline/studio-backend/internal/logger"
	"github.com/arcline/studio-backend/internal/pkg/apperror"
	"github.com/arcline/studio-backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			statusCode := http.StatusInternalServerError
			message := "внутренняя ошибка сервера"

			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			var appErr *apperror.AppError
			switch {
			case errors.As(err.Err, &appErr):
				statusCode = appErr.HTTPStatus
				message = appErr.Message
			case errors.Is(err.Err, repository.ErrChangeOrderNotFound):
				statusCode = http.StatusNotFound
				message = "изменение к договору не найдено"
			case errors.Is(err.Err, repository.ErrProjectNotFound):
				statusCode = http.StatusNotFound
				message = "проект не найден"
			case errors.Is(err.Err, repository.ErrStatusConflict):
				statusCode = http.StatusConflict
				message = "запись была изменена параллельно, повторите действие"
			default:
				// Если ошибка содержит понятное сообщение, используем его,
				// но только если это не внутренняя ошибка.
				errStr := err.Error()
				if errStr != "" && !containsInternalKeywords(errStr) {
					message = errStr
					if contains(errStr, "неверный") || contains(errStr, "невалид") {
						statusCode = http.StatusBadRequest
					} else if contains(errStr, "нет прав") || contains(errStr, "не авторизован") {
						statusCode = http.StatusForbidden
					}
				}
			}

			c.JSON(statusCode, gin.H{"error": message})
		}
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
