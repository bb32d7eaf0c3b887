package httptransport

import (
	"net/http"

	"pizzeria/internal/apperr"
)

// kindToStatus maps error classification kinds
// to HTTP status codes.
var kindToStatus = map[string]int{
	"timeout":  http.StatusGatewayTimeout,
	"canceled": http.StatusServiceUnavailable,
	"internal": http.StatusInternalServerError,
}

// errorKind returns the kind of an error.
func errorKind(err error) string {
	return apperr.Kind(err)
}

func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[errorKind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
