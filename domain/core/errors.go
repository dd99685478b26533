package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrInvalidDistribution = errors.New("invalid probability distribution")
	ErrDimensionMismatch   = errors.New("amplitude vector dimension mismatch")
	ErrInvalidWidthConfig  = errors.New("invalid width configuration")
	ErrInvalidCounts       = errors.New("invalid measurement counts")

	// Registration errors
	ErrDuplicateTrial   = errors.New("trial already registered")
	ErrMissingIdealData = errors.New("no ideal heavy set registered for trial")
	ErrUnknownWidth     = errors.New("width index out of range")

	// Statistics errors
	ErrNoData           = errors.New("no experimental data accumulated")
	ErrInsufficientData = errors.New("insufficient data for confidence bound")
)

// Error constructors with context
func NewInvalidDistributionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDistribution, reason)
}

func NewDimensionMismatchError(got, want int) error {
	return fmt.Errorf("%w: got %d amplitudes, want %d", ErrDimensionMismatch, got, want)
}

func NewDuplicateTrialError(key TrialKey) error {
	return fmt.Errorf("%w: %s", ErrDuplicateTrial, key)
}

func NewMissingIdealDataError(key TrialKey) error {
	return fmt.Errorf("%w: %s", ErrMissingIdealData, key)
}

func NewUnknownWidthError(widthIndex, numWidths int) error {
	return fmt.Errorf("%w: index %d with %d configured widths", ErrUnknownWidth, widthIndex, numWidths)
}

func NewNoDataError(widthIndex int) error {
	return fmt.Errorf("%w: width index %d", ErrNoData, widthIndex)
}

func NewInsufficientDataError(totalShots int) error {
	return fmt.Errorf("%w: %d total shots", ErrInsufficientData, totalShots)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidDistribution) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidWidthConfig) ||
		errors.Is(err, ErrInvalidCounts)
}

func IsRegistrationError(err error) bool {
	return errors.Is(err, ErrDuplicateTrial) ||
		errors.Is(err, ErrMissingIdealData) ||
		errors.Is(err, ErrUnknownWidth)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrInsufficientData)
}
