package login

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the sign-in schema accepts.
const MinPasswordLength = 8

// Form keys.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

const (
	MsgEmailRequired    = "O email é obrigatório"
	MsgEmailInvalid     = "Email inválido"
	MsgPasswordRequired = "A senha é obrigatória"
	MsgPasswordTooShort = "A senha deve ter pelo menos 8 caracteres"
	MsgPasswordMismatch = "As senhas não coincidem"

	// MsgInvalidCredentials is the single form-level message for any
	// sign-in failure that is not a schema error.
	MsgInvalidCredentials = "Email ou senha inválidos"
	MsgEmailTaken         = "Já existe uma conta com este email"
)

// validEmail accepts a bare address only; display-name forms such as
// "Ana <ana@example.com>" are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Credentials is what the sign-in form posts.
type Credentials struct {
	Email    string
	Password string
}

// FieldErrors maps a form key to its single message.
type FieldErrors map[string]string

// SchemaError reports credentials that failed the form schema, before any
// authentication call was made.
type SchemaError struct {
	Fields FieldErrors
}

func (e *SchemaError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for _, k := range []string{FieldEmail, FieldPassword, FieldConfirmPassword} {
		if _, ok := e.Fields[k]; ok {
			keys = append(keys, k)
		}
	}
	return "invalid " + strings.Join(keys, ", ")
}

// Validate checks c against the sign-in schema.
// POST: returns nil or a *SchemaError holding one message per failing field
func Validate(c Credentials) error {
	errs := FieldErrors{}
	email := strings.TrimSpace(c.Email)
	switch {
	case email == "":
		errs[FieldEmail] = MsgEmailRequired
	case !validEmail(email):
		errs[FieldEmail] = MsgEmailInvalid
	}
	switch {
	case c.Password == "":
		errs[FieldPassword] = MsgPasswordRequired
	case utf8.RuneCountInString(c.Password) < MinPasswordLength:
		errs[FieldPassword] = MsgPasswordTooShort
	}
	if len(errs) > 0 {
		return &SchemaError{Fields: errs}
	}
	return nil
}

// ValidateSignup applies the sign-in schema plus the confirmation match.
func ValidateSignup(c Credentials, confirm string) error {
	var errs FieldErrors
	var se *SchemaError
	if err := Validate(c); errors.As(err, &se) {
		errs = se.Fields
	} else {
		errs = FieldErrors{}
	}
	if confirm != c.Password {
		errs[FieldConfirmPassword] = MsgPasswordMismatch
	}
	if len(errs) > 0 {
		return &SchemaError{Fields: errs}
	}
	return nil
}

// AuthFunc performs the actual authentication once the schema passed.
type AuthFunc func(ctx context.Context, c Credentials) error

// Outcome is what the sign-in page renders after a submission.
type Outcome struct {
	Fields    FieldErrors
	FormError string
}

// OK reports a successful sign-in.
func (o Outcome) OK() bool {
	return len(o.Fields) == 0 && o.FormError == ""
}

// Submit validates c, calls auth, and converts every failure into display
// state. Schema errors become field messages; anything else becomes the
// generic form-level message. Errors are never returned to the caller.
func Submit(ctx context.Context, c Credentials, auth AuthFunc) Outcome {
	err := Validate(c)
	if err == nil {
		err = auth(ctx, c)
	}
	return Classify(err, MsgInvalidCredentials)
}

// Classify turns err into an Outcome, using formMsg for non-schema failures.
func Classify(err error, formMsg string) Outcome {
	if err == nil {
		return Outcome{}
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return Outcome{Fields: se.Fields}
	}
	return Outcome{FormError: formMsg}
}
