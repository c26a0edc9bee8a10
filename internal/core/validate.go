package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mikey/contact-relay/internal/utils"
)

var fieldValidator = validator.New(validator.WithRequiredStructEnabled())

// Validator normalises and checks contact form input
type Validator struct {
	text         *utils.TextProcessor
	check        *validator.Validate
	requireToken bool
}

// NewValidator creates a new validator. requireToken should follow whether
// human verification is enabled.
func NewValidator(text *utils.TextProcessor, requireToken bool) *Validator {
	return &Validator{
		text:         text,
		check:        fieldValidator,
		requireToken: requireToken,
	}
}

// Validate returns the normalised submission or a 422 *Error describing the
// first failing field
func (v *Validator) Validate(in FormInput) (*Submission, error) {
	name := v.text.NormalizeField(in.Name)
	email := v.text.NormalizeField(in.Email)
	message := v.text.NormalizeField(in.Message)

	if err := v.field(name, MaxNameLength, "Name", "Name is required."); err != nil {
		return nil, err
	}

	if email == "" {
		return nil, NewValidationError("Email is required.")
	}
	if v.check.Var(email, fmt.Sprintf("max=%d", MaxEmailLength)) != nil || !IsValidEmail(email) {
		return nil, NewValidationError("A valid email address is required.")
	}

	if err := v.field(message, MaxMessageLength, "Message", "Message is required."); err != nil {
		return nil, err
	}

	// name ends up in Subject and Reply-To
	name = v.text.StripLineBreaks(name)

	if v.requireToken && v.check.Var(in.Token, "required") != nil {
		return nil, NewValidationError("Please complete the security check.")
	}

	return &Submission{
		Name:    name,
		Email:   email,
		Message: message,
		Token:   in.Token,
	}, nil
}

// field applies required and a rune-counted max to a normalised value
func (v *Validator) field(value string, limit int, label, missing string) error {
	err := v.check.Var(value, fmt.Sprintf("required,max=%d", limit))
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 && errs[0].Tag() == "max" {
		return NewValidationError(fmt.Sprintf("%s must be %d characters or fewer.", label, limit))
	}
	return NewValidationError(missing)
}

// IsValidEmail reports whether s is a bare ASCII addr-spec with a dotted domain
func IsValidEmail(s string) bool {
	if s == "" || !isASCII(s) {
		return false
	}
	if fieldValidator.Var(s, "email") != nil {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.Contains(domain, "..")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
