package httperr

import (
	"cashflip/internal/service"
	"cashflip/pkg/resp"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// retryAfterSeconds - подсказка клиенту при занятой сессии
const retryAfterSeconds = "1"

// Status переводит ошибку сервиса в HTTP-статус и машинный код
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrPlayerNotInContext):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, service.ErrStateConflict):
		return http.StatusConflict, "state_conflict"
	case errors.Is(err, service.ErrTransient):
		return http.StatusServiceUnavailable, "try_again"
	case errors.Is(err, service.ErrIntegrity):
		return http.StatusInternalServerError, "integrity_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Write отвечает ошибкой; внутренние ошибки не раскрываем клиенту
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	status, code := Status(err)
	msg := err.Error()

	switch {
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", retryAfterSeconds)
	case code == "internal_error":
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
	case code == "integrity_error":
		log.Error("integrity error", zap.Error(err))
	}

	resp.WriteError(w, status, code, msg)
}
