package reports

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownReportType = errors.New("unknown report type")
	ErrInvalidFormInput  = errors.New("invalid form input")
)

// InvalidInputError lists the fields that failed validation. It matches
// ErrInvalidFormInput with errors.Is.
type InvalidInputError struct {
	Type    ReportType
	Missing []string
	Invalid []string
}

func (e *InvalidInputError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidFormInput, e.Type, strings.Join(parts, "; "))
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidFormInput }
