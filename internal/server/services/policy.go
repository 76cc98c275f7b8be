package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// PasswordPolicy is the minimum strength a signup password must meet.
type PasswordPolicy struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSpecial   bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   true,
	}
}

// Check returns an error wrapping common.ErrWeakCredential naming the first
// unmet requirement. The password itself never appears in the message.
func (p PasswordPolicy) Check(password string) error {
	n := utf8.RuneCountInString(password)
	if n < p.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrWeakCredential, p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return fmt.Errorf("%w: password must be at most %d characters", common.ErrWeakCredential, p.MaxLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
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
	case p.RequireUppercase && !upper:
		return fmt.Errorf("%w: password must contain an uppercase letter", common.ErrWeakCredential)
	case p.RequireLowercase && !lower:
		return fmt.Errorf("%w: password must contain a lowercase letter", common.ErrWeakCredential)
	case p.RequireNumbers && !digit:
		return fmt.Errorf("%w: password must contain a digit", common.ErrWeakCredential)
	case p.RequireSpecial && !special:
		return fmt.Errorf("%w: password must contain a special character", common.ErrWeakCredential)
	}
	return nil
}

type signupFields struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,max=254,email"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateSignupFields expects name trimmed and email normalised.
func validateSignupFields(name, email string) error {
	err := validate.Struct(signupFields{Name: name, Email: email})
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", common.ErrInvalidInput, field)
	case "max":
		return fmt.Errorf("%w: %s is too long", common.ErrInvalidInput, field)
	default:
		return fmt.Errorf("%w: %s is malformed", common.ErrInvalidInput, field)
	}
}
