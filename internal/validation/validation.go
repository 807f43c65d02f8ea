// Package validation provides the field and range checks applied to user input
// before anything is persisted.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation limits.
const (
	MinUsernameLength    = 3
	MaxUsernameLength    = 50
	MaxEmailLength       = 120
	MinPasswordLength    = 8
	MaxCategoryLength    = 50
	MaxTitleLength       = 100
	MaxDescriptionLength = 255
	MaxLocationLength    = 255
)

// MaxAmount is the exclusive upper bound of an expense amount.
var MaxAmount = decimal.New(1, 10)

// PasswordSymbols is the set of symbols a password must draw at least one from.
const PasswordSymbols = `!@#$%^&*(),.?":{}|<>`

// Sentinel errors. Every *Error matches exactly one of them with errors.Is.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrWeakCredential = errors.New("weak credential")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Error describes a rejected field.
type Error struct {
	Field   string
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports whether target is the sentinel this error belongs to.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...), kind: ErrInvalidInput}
}

func weak(message string) error {
	return &Error{Field: "password", Message: message, kind: ErrWeakCredential}
}

// Expense checks the amount and category of an expense.
func Expense(amount decimal.Decimal, category string) error {
	if !amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return invalid("amount", "must be less than %s", MaxAmount)
	}
	return Category(category)
}

// Category checks a required expense category.
func Category(category string) error {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return invalid("category", "is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxCategoryLength {
		return invalid("category", "must be at most %d characters", MaxCategoryLength)
	}
	return nil
}

// Event checks that an event interval is non-empty.
func Event(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return invalid("start_time", "start and end time are required")
	}
	if !start.Before(end) {
		return invalid("end_time", "must be after start_time")
	}
	return nil
}

// EventTitle checks a required event title.
func EventTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return invalid("title", "must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// Password checks password complexity.
func Password(pw string) error {
	if len(pw) < MinPasswordLength {
		return weak(fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}

	switch {
	case !upper:
		return weak("must contain at least one uppercase letter")
	case !lower:
		return weak("must contain at least one lowercase letter")
	case !digit:
		return weak("must contain at least one number")
	case !symbol:
		return weak("must contain at least one special character")
	}
	return nil
}

// Username checks the length and alphabet of a username.
func Username(u string) error {
	n := utf8.RuneCountInString(u)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return invalid("username", "must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(u) {
		return invalid("username", "may only contain letters, numbers and underscores")
	}
	return nil
}

// Email parses a bare address and returns it with a lowercased domain.
func Email(e string) (string, error) {
	e = strings.TrimSpace(e)
	if e == "" {
		return "", invalid("email", "is required")
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Name != "" || addr.Address != e {
		return "", invalid("email", "is not a valid address")
	}

	at := strings.LastIndexByte(addr.Address, '@')
	local, domain := addr.Address[:at], addr.Address[at+1:]
	if !strings.Contains(domain, ".") {
		return "", invalid("email", "is not a valid address")
	}

	normalized := local + "@" + strings.ToLower(domain)
	if utf8.RuneCountInString(normalized) > MaxEmailLength {
		return "", invalid("email", "must be at most %d characters", MaxEmailLength)
	}
	return normalized, nil
}

// OptionalText checks the length of an optional free-text field.
func OptionalText(field string, value *string, max int) error {
	if value == nil {
		return nil
	}
	if utf8.RuneCountInString(*value) > max {
		return invalid(field, "must be at most %d characters", max)
	}
	return nil
}
