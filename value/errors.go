package value

import (
	"errors"
	"fmt"
)

// ConversionErrorCode categorizes row reconstruction failures.
type ConversionErrorCode string

const (
	// ErrCodeTypeMismatch indicates a value of the wrong kind was supplied.
	ErrCodeTypeMismatch ConversionErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnexpectedNull indicates Null was supplied for a non-nullable field.
	ErrCodeUnexpectedNull ConversionErrorCode = "UNEXPECTED_NULL"

	// ErrCodeWrongNumberOfValues indicates a row had too few or too many values.
	ErrCodeWrongNumberOfValues ConversionErrorCode = "WRONG_NUMBER_OF_VALUES"
)

// ConversionError is raised when reconstructing a typed row from raw values.
//
// During an initial fetch these errors surface to the caller. During an
// incremental merge they are deliberately swallowed and the affected output is
// left at its last-known-good value; see the subscription package.
type ConversionError struct {
	Code ConversionErrorCode

	// Expected and Got carry kind names for TYPE_MISMATCH.
	Expected string
	Got      string

	// ExpectedCount and GotCount carry lengths for WRONG_NUMBER_OF_VALUES.
	ExpectedCount int
	GotCount      int
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	switch e.Code {
	case ErrCodeTypeMismatch:
		return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
	case ErrCodeUnexpectedNull:
		return "unexpected null value"
	case ErrCodeWrongNumberOfValues:
		return fmt.Sprintf("wrong number of values: expected %d, got %d", e.ExpectedCount, e.GotCount)
	default:
		return fmt.Sprintf("conversion error: %s", e.Code)
	}
}

// ErrTypeMismatch builds a TYPE_MISMATCH conversion error.
func ErrTypeMismatch(expected, got Kind) *ConversionError {
	return &ConversionError{Code: ErrCodeTypeMismatch, Expected: expected.String(), Got: got.String()}
}

// ErrUnexpectedNull builds an UNEXPECTED_NULL conversion error.
func ErrUnexpectedNull() *ConversionError {
	return &ConversionError{Code: ErrCodeUnexpectedNull}
}

// ErrWrongNumberOfValues builds a WRONG_NUMBER_OF_VALUES conversion error.
func ErrWrongNumberOfValues(expected, got int) *ConversionError {
	return &ConversionError{Code: ErrCodeWrongNumberOfValues, ExpectedCount: expected, GotCount: got}
}

// AsConversionError unwraps err to a *ConversionError if one is in the chain.
func AsConversionError(err error) (*ConversionError, bool) {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
