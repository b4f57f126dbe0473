// Package validation holds the field rules applied to signup and profile input.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 8

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func Phone(s string) bool {
	return countDigits(s) == 10
}

func Aadhaar(s string) bool {
	return countDigits(s) == 12
}

func Email(s string) bool {
	if strings.Count(s, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") || strings.Contains(domain, "..") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	tld := domain[strings.LastIndex(domain, ".")+1:]
	return utf8.RuneCountInString(tld) >= 2
}

// Password checks the complexity policy and returns the first unmet rule.
func Password(s string) (bool, string) {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return false, "Password must be at least 8 characters long."
	}

	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			special = true
		}
	}

	switch {
	case !lower:
		return false, "Password must contain at least one lowercase letter."
	case !upper:
		return false, "Password must contain at least one uppercase letter."
	case !digit:
		return false, "Password must contain at least one digit."
	case !special:
		return false, "Password must contain at least one special character."
	}
	return true, "Password is strong."
}

// RegisterValidators exposes Email as the email_strict struct tag. Empty
// values pass so the tag combines with omitempty and required.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("email_strict", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || Email(s)
	})
}
