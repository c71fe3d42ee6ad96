package apperror

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrNotAuthenticated() *AppError {
	return New("AUTH_001", "Sign in required", http.StatusUnauthorized)
}

// ---- Settlement Business Logic (SET) ----

func ErrSelfPurchase() *AppError {
	return New("SET_001", "You cannot purchase your own listing", http.StatusBadRequest)
}

// ErrWalletNotFound indicates an account in an invalid state. The party is
// recorded internally; the user sees a generic message.
func ErrWalletNotFound(party string) *AppError {
	return Wrap("SET_002", "Wallet unavailable", http.StatusNotFound,
		fmt.Errorf("%s wallet missing", party))
}

// ErrInsufficientFunds carries the exact shortfall in the wallet's own
// currency so the user can self-correct.
func ErrInsufficientFunds(required, available decimal.Decimal, currency string) *AppError {
	return New("SET_003",
		fmt.Sprintf("Insufficient funds: %s %s required, %s %s available",
			required.StringFixed(2), currency, available.StringFixed(2), currency),
		http.StatusPaymentRequired)
}

func ErrListingUnavailable() *AppError {
	return New("SET_004", "Listing is no longer available", http.StatusConflict)
}

func ErrLedgerWriteFailure(err error) *AppError {
	return Wrap("SET_005", "Purchase could not be completed", http.StatusInternalServerError, err)
}

func ErrListingNotFound() *AppError {
	return New("SET_006", "Listing not found", http.StatusNotFound)
}

func ErrInvalidAmount() *AppError {
	return New("SET_007", "Invalid amount", http.StatusBadRequest)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("SET_008", message, http.StatusBadRequest)
}

// ErrNotFound reports a missing entity by name.
func ErrNotFound(entity string) *AppError {
	return New("SET_009", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
