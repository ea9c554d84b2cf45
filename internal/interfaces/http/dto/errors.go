package dto

import "net/http"

// Transport-level error codes. Domain codes (PRODUCT_NOT_FOUND, OUT_OF_STOCK, ...)
// pass through unchanged and are mapped to a status below.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeRouteNotFound    = "ROUTE_NOT_FOUND"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeTokenRevoked     = "TOKEN_REVOKED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Codes missing from the map are treated as internal errors.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// request shape
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	"INVALID_INPUT":            http.StatusBadRequest,
	"INVALID_LINE_ITEM":        http.StatusBadRequest,
	"INVALID_QUANTITY":         http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD":   http.StatusBadRequest,
	"INVALID_SHIPPING_ADDRESS": http.StatusBadRequest,
	"INVALID_STATUS":           http.StatusBadRequest,
	"INVALID_EMAIL":            http.StatusBadRequest,
	"INVALID_NAME":             http.StatusBadRequest,
	"INVALID_PASSWORD":         http.StatusBadRequest,
	"INVALID_PRODUCT":          http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,

	// stock
	"OUT_OF_STOCK": http.StatusBadRequest,

	// auth
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenInvalid:   http.StatusUnauthorized,
	ErrCodeTokenRevoked:   http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,

	// lookups
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeRouteNotFound:  http.StatusNotFound,
	"PRODUCT_NOT_FOUND":   http.StatusNotFound,
	"USER_NOT_FOUND":      http.StatusNotFound,
	"CART_ITEM_NOT_FOUND": http.StatusNotFound,
	"ENTRY_NOT_FOUND":     http.StatusNotFound,

	// conflicts
	"ALREADY_EXISTS":         http.StatusConflict,
	"EMAIL_TAKEN":            http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"DUPLICATE_ORDER_NUMBER": http.StatusConflict,
	ErrCodeDuplicateRequest:  http.StatusConflict,

	// state machine
	"INVALID_STATE":            http.StatusUnprocessableEntity,
	"INVALID_STATE_TRANSITION": http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
