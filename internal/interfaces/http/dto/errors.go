package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used when the request cannot be parsed
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when request fields fail validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidInput is used for domain-level input errors
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest    = "ERR_DUPLICATE_REQUEST"
)

// Ledger error codes, one per ledger domain error code
const (
	ErrCodeInvalidLineItem     = "ERR_INVALID_LINE_ITEM"
	ErrCodeInvalidAmount       = "ERR_INVALID_AMOUNT"
	ErrCodeOverpaymentRejected = "ERR_OVERPAYMENT_REJECTED"
	ErrCodeSaleNotFound        = "ERR_SALE_NOT_FOUND"
	ErrCodePaymentNotFound     = "ERR_PAYMENT_NOT_FOUND"
	ErrCodeClientNotFound      = "ERR_CLIENT_NOT_FOUND"
	ErrCodeClientHasSales      = "ERR_CLIENT_HAS_SALES"
	ErrCodeRaffleNumberTaken   = "ERR_RAFFLE_NUMBER_TAKEN"
	ErrCodeRaffleNotFound      = "ERR_RAFFLE_NOT_FOUND"
	ErrCodeSweepInProgress     = "ERR_SWEEP_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	ErrCodeInvalidLineItem:     http.StatusBadRequest,
	ErrCodeInvalidAmount:       http.StatusBadRequest,
	ErrCodeOverpaymentRejected: http.StatusUnprocessableEntity,
	ErrCodeClientHasSales:      http.StatusUnprocessableEntity,
	ErrCodeSaleNotFound:        http.StatusNotFound,
	ErrCodePaymentNotFound:     http.StatusNotFound,
	ErrCodeClientNotFound:      http.StatusNotFound,
	ErrCodeRaffleNotFound:      http.StatusNotFound,
	ErrCodeRaffleNumberTaken:   http.StatusConflict,
	ErrCodeSweepInProgress:     http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for a given error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code (SALE_NOT_FOUND) to its
// API form (ERR_SALE_NOT_FOUND). Codes already in API form are returned as is.
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeInternal
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}

// IsKnownErrorCode reports whether code has an HTTP status mapping
func IsKnownErrorCode(code string) bool {
	_, ok := ErrorCodeHTTPStatus[code]
	return ok
}
