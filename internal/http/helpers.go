package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"shop/internal/core"
)

// User-facing messages.
const (
	msgProductNotFound   = "Товар не найден"
	msgInvalidWeight     = "Некорректный вес. Введите число."
	msgInsufficientFunds = "Недостаточно средств для покупки."
	msgUnavailable       = "Сервис временно недоступен"
	msgInternal          = "Внутренняя ошибка сервера"
	msgRateLimited       = "Слишком много запросов. Попробуйте позже."
	msgBadRequest        = "Некорректный формат запроса"
	msgPurchaseDone      = "Покупка совершена успешно! Ваш баланс: %.2f"
	msgBalanceRestored   = "Последняя покупка отменена. Баланс восстановлен."
)

var templateFuncs = template.FuncMap{
	"money": core.FormatMoney,
}

// failure describes how an error is presented to the client.
type failure struct {
	Status  int
	Code    string
	Message string
}

// classify maps a service error to its API status, code and user message.
func classify(err error) failure {
	switch {
	case errors.Is(err, core.ErrProductNotFound):
		return failure{http.StatusNotFound, "product_not_found", msgProductNotFound}
	case errors.Is(err, core.ErrInvalidWeight):
		return failure{http.StatusUnprocessableEntity, "invalid_weight", msgInvalidWeight}
	case errors.Is(err, core.ErrInsufficientFunds):
		return failure{http.StatusConflict, "insufficient_funds", msgInsufficientFunds}
	case errors.Is(err, core.ErrStorageUnavailable):
		return failure{http.StatusServiceUnavailable, "service_unavailable", msgUnavailable}
	default:
		return failure{http.StatusInternalServerError, "internal_error", msgInternal}
	}
}

// pageStatus is the status for an HTML page carrying err as a banner.
// Domain errors are ordinary outcomes of a form submission.
func pageStatus(err error) int {
	f := classify(err)
	if f.Status >= http.StatusInternalServerError {
		return f.Status
	}
	return http.StatusOK
}

func purchaseMessage(balance float64) string {
	return fmt.Sprintf(msgPurchaseDone, balance)
}

// sanitizeInput removes control characters. Whitespace is significant for
// product lookups and searches, so it is left alone.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
