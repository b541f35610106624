// Package validation holds field validators for user input. All
// checks run before any write occurs.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email address is not valid")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name must be at most 100 characters")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks an email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword checks password strength
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateName checks a display name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// ValidateProfile checks the onboarding form. Every field is required;
// the user is re-prompted until all are present.
func ValidateProfile(schoolName, region, role string) error {
	if strings.TrimSpace(schoolName) == "" {
		return errors.New("school name is required")
	}
	if strings.TrimSpace(region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(role) == "" {
		return errors.New("role is required")
	}
	return nil
}

// ValidateReceiptName checks a receipt display title
func ValidateReceiptName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("receipt name is required")
	}
	if utf8.RuneCountInString(name) > 200 {
		return errors.New("receipt name must be at most 200 characters")
	}
	return nil
}
