package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z ]+$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^[0-9]{9}$`)
)

// ValidateName accepts letters and spaces only.
func ValidateName(name string) error {
	if !nameRe.MatchString(strings.TrimSpace(name)) {
		return errors.New("name must contain only letters and spaces")
	}
	return nil
}

// ValidateEmail checks the address shape.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return errors.New("invalid email format")
	}
	return nil
}

// NormalizePhone accepts the nine digits after the 03 prefix (with or
// without the prefix) and returns the full number.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	if len(p) == 11 && strings.HasPrefix(p, "03") {
		p = p[2:]
	}
	if !phoneRe.MatchString(p) {
		return "", errors.New("phone must be 9 digits after 03")
	}
	return "03" + p, nil
}

// ValidatePassword requires at least 8 characters with an upper-case
// letter, a lower-case letter, a digit and a special character.
func ValidatePassword(pw string) error {
	if len(pw) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return errors.New("password must contain an uppercase letter")
	case !lower:
		return errors.New("password must contain a lowercase letter")
	case !digit:
		return errors.New("password must contain a number")
	case !special:
		return errors.New("password must contain a special character")
	}
	return nil
}
