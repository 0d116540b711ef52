package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes missing from the map fall back to 500.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	// Input and lot definition errors -> 400 Bad Request
	"INVALID_INPUT":     http.StatusBadRequest,
	"INVALID_TITLE":     http.StatusBadRequest,
	"INVALID_PRICE":     http.StatusBadRequest,
	"INVALID_INCREMENT": http.StatusBadRequest,
	"INVALID_SCHEDULE":  http.StatusBadRequest,
	"INVALID_BUY_NOW":   http.StatusBadRequest,
	"INVALID_SELLER":    http.StatusBadRequest,
	"INVALID_BIDDER":    http.StatusBadRequest,
	"INVALID_LOT":       http.StatusBadRequest,
	"INVALID_ORIGIN":    http.StatusBadRequest,
	"INVALID_PARTY":     http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Eligibility gates -> 403 Forbidden
	"SELF_BIDDING":            http.StatusForbidden,
	"BIDDER_REJECTED":         http.StatusForbidden,
	"INSUFFICIENT_REPUTATION": http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:  http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	// Concurrency -> 409 Conflict
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"RESOLUTION_CONFLICT":  http.StatusConflict,

	// Bidding rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":       http.StatusUnprocessableEntity,
	"AUCTION_ENDED":       http.StatusUnprocessableEntity,
	"AUCTION_NOT_STARTED": http.StatusUnprocessableEntity,
	"BID_TOO_LOW":         http.StatusUnprocessableEntity,
	"BUY_NOW_EXCEEDED":    http.StatusUnprocessableEntity,
	"INVALID_STEP":        http.StatusUnprocessableEntity,
	"PROXY_DECREASE":      http.StatusUnprocessableEntity,
	"NO_LEADER":           http.StatusUnprocessableEntity,
	"PRICE_REGRESSION":    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
