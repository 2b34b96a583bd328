package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/joelkehle/xperience-reports/internal/ledger"
	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/session"
	"github.com/joelkehle/xperience-reports/internal/wallet"
)

const (
	CodeValidation          = "validation"
	CodeNotFound            = "not_found"
	CodeUnknownReportType   = "unknown_report_type"
	CodeInvalidFormInput    = "invalid_form_input"
	CodeInsufficientBalance = "insufficient_balance"
	CodeUnsupportedWallet   = "unsupported_wallet"
	CodeInternal            = "internal"
)

// Error is the body of every failed response.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
	Status  int      `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation, CodeUnknownReportType, CodeUnsupportedWallet:
		return http.StatusBadRequest
	case CodeInvalidFormInput:
		return http.StatusUnprocessableEntity
	case CodeInsufficientBalance:
		return http.StatusPaymentRequired
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: statusForCode(code)}
}

func newValidationJSONError(err error) *Error {
	return newError(CodeValidation, "invalid json: "+err.Error())
}

// toAPIError maps domain errors onto API codes. Anything unrecognised is
// internal.
func toAPIError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var invalid *reports.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		e := newError(CodeInvalidFormInput, err.Error())
		e.Missing = invalid.Missing
		e.Invalid = invalid.Invalid
		return e
	case errors.Is(err, reports.ErrInvalidFormInput):
		return newError(CodeInvalidFormInput, err.Error())
	case errors.Is(err, reports.ErrUnknownReportType):
		return newError(CodeUnknownReportType, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return newError(CodeInsufficientBalance, "no tokens left in this session")
	case errors.Is(err, session.ErrSessionNotFound):
		return newError(CodeNotFound, err.Error())
	case errors.Is(err, wallet.ErrUnsupportedWallet):
		return newError(CodeUnsupportedWallet, err.Error()+"; supported: "+strings.Join(wallet.SupportedTypes(), ", "))
	default:
		return newError(CodeInternal, err.Error())
	}
}
