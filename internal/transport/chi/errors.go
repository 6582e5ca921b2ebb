package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/mscatalog/internal/logger"
	"github.com/kailas-cloud/mscatalog/internal/source"
	"github.com/kailas-cloud/mscatalog/pkg/catalog"
)

// errorHandler classifies an error. ok is false when the error is not its kind.
type errorHandler func(err error) (status int, code ErrorCode, ok bool)

// defaultErrorHandlers is checked in order; the first match wins.
var defaultErrorHandlers = []errorHandler{
	sentinelHandler(catalog.ErrCircuitOpen, http.StatusServiceUnavailable, ErrorCodeEngineUnavailable),
	engineRejectedHandler,
	sentinelHandler(catalog.ErrTransport, http.StatusBadGateway, ErrorCodeEngineError),
	sentinelHandler(catalog.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
	sentinelHandler(catalog.ErrPushInProgress, http.StatusConflict, ErrorCodeConflict),
	sentinelHandler(catalog.ErrInvalidConfig, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(catalog.ErrUnsupportedFieldType, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(catalog.ErrInvalidFieldName, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(catalog.ErrInvalidFieldValue, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(catalog.ErrUnparsableDatetime, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(catalog.ErrMalformedFilter, http.StatusBadRequest, ErrorCodeValidationFailed),
	sentinelHandler(source.ErrMalformedDocument, http.StatusBadRequest, ErrorCodeBadRequest),
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(err error) (int, ErrorCode, bool) {
		if !errors.Is(err, sentinel) {
			return 0, "", false
		}
		return status, code, true
	}
}

// engineRejectedHandler maps an engine 4xx answer (bad query syntax, unknown field) to 400.
func engineRejectedHandler(err error) (int, ErrorCode, bool) {
	var te *catalog.TransportError
	if !errors.As(err, &te) || te.StatusCode < 400 || te.StatusCode >= 500 {
		return 0, "", false
	}
	return http.StatusBadRequest, ErrorCodeEngineRejected, true
}

// classify maps err to an HTTP status, code and client-safe message.
func classify(err error) (int, ErrorResponse) {
	for _, h := range defaultErrorHandlers {
		if status, code, ok := h(err); ok {
			return status, ErrorResponse{Code: code, Message: safeMessage(err, code)}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: ErrorCodeInternalError, Message: "internal error"}
}

// safeMessage keeps engine and validation details, which describe the caller's input,
// and hides everything else behind the sentinel text.
func safeMessage(err error, code ErrorCode) string {
	switch code {
	case ErrorCodeEngineRejected, ErrorCodeValidationFailed, ErrorCodeBadRequest:
		return err.Error()
	}
	for _, s := range []error{
		catalog.ErrCircuitOpen,
		catalog.ErrTransport,
		catalog.ErrNotFound,
		catalog.ErrPushInProgress,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)
	if status == http.StatusInternalServerError {
		s.log(r).Error("internal error", zap.Error(err))
	} else {
		s.log(r).Warn("request failed", zap.Int("status", status), zap.String("code", string(resp.Code)), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

// log returns the request-scoped logger set by the access log middleware.
func (s *Server) log(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the API error body. Middleware outside this package uses it too.
func WriteError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
