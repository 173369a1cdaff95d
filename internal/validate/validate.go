package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidationError is a field-scoped message meant to be shown next to the input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Message returns the text of a validation error, or "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

const cellRange = `([A-Z]+\d*|\d+)(:([A-Z]+\d*|\d+))?`

var rangeRegex = regexp.MustCompile(`^` + cellRange + `((,| |, |;|; |)` + cellRange + `)*$`)

// Range checks spreadsheet range syntax like "A1:B2", "A:A, C1" or "1:5".
// Callers upper-case the value first, lowercase letters are rejected here.
func Range(value string) error {
	if value == "" {
		return nil
	}
	if !rangeRegex.MatchString(value) {
		return invalid("Invalid range")
	}
	return nil
}

// Text checks the character count of value. A zero bound is not enforced.
func Text(value string, minLength, maxLength int) error {
	length := utf8.RuneCountInString(value)
	if minLength > 0 && length < minLength {
		return invalid("Field must contain %d characters or more", minLength)
	}
	if maxLength > 0 && length > maxLength {
		return invalid("Field must contain %d characters or less", maxLength)
	}
	return nil
}

// Int checks an integer input against optional bounds. The bound checks run
// before the "is a number" check, so an out of range number reports its bound.
func Int(value string, min, max *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	parsed := err == nil

	if min != nil && parsed && n < *min {
		return invalid("Number must be %d or above", *min)
	}
	if max != nil && parsed && n > *max {
		return invalid("Number must be %d or below", *max)
	}
	if !parsed {
		return invalid("Must be a number")
	}
	return nil
}

var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Clock checks a 24-hour "HH:MM" time as produced by a time input.
func Clock(value string) error {
	if !clockRegex.MatchString(value) {
		return invalid("Invalid time")
	}
	return nil
}
