package core

import (
	"strings"
	"testing"

	"github.com/mikey/contact-relay/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestValidator(requireToken bool) *Validator {
	return NewValidator(utils.NewTextProcessor(zap.NewNop()), requireToken)
}

func validInput() FormInput {
	return FormInput{
		Name:    "Jane Doe",
		Email:   "jane@example.org",
		Message: "Hello there",
		Token:   "tok",
	}
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	e := AsError(err)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, 422, e.Status)
	assert.Equal(t, message, e.Message)
}

func TestValidateAccepts(t *testing.T) {
	sub, err := newTestValidator(true).Validate(FormInput{
		Name:    "  Jane Doe  ",
		Email:   " jane@example.org ",
		Message: "\n Hello there \n",
		Token:   "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", sub.Name)
	assert.Equal(t, "jane@example.org", sub.Email)
	assert.Equal(t, "Hello there", sub.Message)
	assert.Equal(t, "tok", sub.Token)
}

func TestValidateName(t *testing.T) {
	v := newTestValidator(false)

	in := validInput()
	in.Name = "   "
	_, err := v.Validate(in)
	assertValidationError(t, err, "Name is required.")

	in.Name = strings.Repeat("a", 100)
	_, err = v.Validate(in)
	assert.NoError(t, err)

	in.Name = strings.Repeat("a", 101)
	_, err = v.Validate(in)
	assertValidationError(t, err, "Name must be 100 characters or fewer.")

	// limits count characters, not bytes
	in.Name = strings.Repeat("é", 100)
	_, err = v.Validate(in)
	assert.NoError(t, err)
}

func TestValidateEmail(t *testing.T) {
	v := newTestValidator(false)

	in := validInput()
	in.Email = ""
	_, err := v.Validate(in)
	assertValidationError(t, err, "Email is required.")

	for _, bad := range []string{
		"not-an-email",
		"user@",
		"@example.com",
		"user@localhost",
		"user@example..com",
		"Jane <jane@example.org>",
		"a@b.com, c@d.com",
		"üser@example.com",
		strings.Repeat("a", 250) + "@example.com",
	} {
		in.Email = bad
		_, err = v.Validate(in)
		assertValidationError(t, err, "A valid email address is required.")
	}

	in.Email = "user@example.com"
	_, err = v.Validate(in)
	assert.NoError(t, err)
}

func TestValidateMessage(t *testing.T) {
	v := newTestValidator(false)

	in := validInput()
	in.Message = " \t "
	_, err := v.Validate(in)
	assertValidationError(t, err, "Message is required.")

	in.Message = strings.Repeat("m", 5000)
	_, err = v.Validate(in)
	assert.NoError(t, err)

	in.Message = strings.Repeat("m", 5001)
	_, err = v.Validate(in)
	assertValidationError(t, err, "Message must be 5000 characters or fewer.")
}

func TestValidateReportsFirstFailingField(t *testing.T) {
	_, err := newTestValidator(true).Validate(FormInput{})
	assertValidationError(t, err, "Name is required.")

	_, err = newTestValidator(true).Validate(FormInput{Name: "Jane"})
	assertValidationError(t, err, "Email is required.")
}

func TestValidateStripsLineBreaksFromName(t *testing.T) {
	in := validInput()
	in.Name = "Evil\r\nBcc: x@y.com"

	sub, err := newTestValidator(false).Validate(in)
	require.NoError(t, err)
	assert.Equal(t, "Evil Bcc: x@y.com", sub.Name)
	assert.NotContains(t, sub.Name, "\r")
	assert.NotContains(t, sub.Name, "\n")
}

func TestValidateKeepsMessageLineBreaks(t *testing.T) {
	in := validInput()
	in.Message = "line one\nline two"

	sub, err := newTestValidator(false).Validate(in)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", sub.Message)
}

func TestValidateToken(t *testing.T) {
	in := validInput()
	in.Token = ""

	_, err := newTestValidator(true).Validate(in)
	assertValidationError(t, err, "Please complete the security check.")

	_, err = newTestValidator(false).Validate(in)
	assert.NoError(t, err)
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co.uk", true},
		{"not-an-email", false},
		{"", false},
		{"user@example", false},
		{"user@.example.com", false},
		{"user@example.com.", false},
		{"<user@example.com>", false},
		{"üser@example.com", false},
		{"user@exämple.com", false},
		{"user@example..com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}
