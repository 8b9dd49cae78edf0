package login

import (
	"context"
	"errors"
	"testing"
)

// TestValidate tests the sign-in schema field by field.
func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  FieldErrors
	}{
		{"valid", Credentials{"ana@example.com", "12345678"}, nil},
		{"empty email", Credentials{"", "12345678"}, FieldErrors{FieldEmail: MsgEmailRequired}},
		{"bad email", Credentials{"ana@", "12345678"}, FieldErrors{FieldEmail: MsgEmailInvalid}},
		{"no at sign", Credentials{"ana.example.com", "12345678"}, FieldErrors{FieldEmail: MsgEmailInvalid}},
		{"display name", Credentials{"Ana <ana@example.com>", "12345678"}, FieldErrors{FieldEmail: MsgEmailInvalid}},
		{"padded email", Credentials{"  ana@example.com ", "12345678"}, nil},
		{"empty password", Credentials{"ana@example.com", ""}, FieldErrors{FieldPassword: MsgPasswordRequired}},
		{"short password", Credentials{"ana@example.com", "1234567"}, FieldErrors{FieldPassword: MsgPasswordTooShort}},
		{"both", Credentials{" ", ""}, FieldErrors{FieldEmail: MsgEmailRequired, FieldPassword: MsgPasswordRequired}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.creds)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %v", err)
			}
			if len(se.Fields) != len(tc.want) {
				t.Fatalf("got %v, want %v", se.Fields, tc.want)
			}
			for k, v := range tc.want {
				if se.Fields[k] != v {
					t.Errorf("%s = %q, want %q", k, se.Fields[k], v)
				}
			}
		})
	}
}

// TestValidateSignup tests the confirmation rule.
func TestValidateSignup(t *testing.T) {
	c := Credentials{"ana@example.com", "12345678"}
	if err := ValidateSignup(c, "12345678"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	var se *SchemaError
	if !errors.As(ValidateSignup(c, "87654321"), &se) || se.Fields[FieldConfirmPassword] != MsgPasswordMismatch {
		t.Fatalf("expected mismatch error")
	}
}

// TestSubmit tests schema failures and auth failures are told apart.
func TestSubmit(t *testing.T) {
	calls := 0
	auth := func(ctx context.Context, c Credentials) error {
		calls++
		if c.Password != "correct-horse" {
			return errors.New("invalid email or password")
		}
		return nil
	}

	out := Submit(context.Background(), Credentials{"bad", "short"}, auth)
	if calls != 0 {
		t.Fatal("auth must not run when the schema fails")
	}
	if out.FormError != "" || out.Fields[FieldEmail] != MsgEmailInvalid {
		t.Fatalf("schema outcome = %+v", out)
	}

	out = Submit(context.Background(), Credentials{"ana@example.com", "wrong-pass"}, auth)
	if out.FormError != MsgInvalidCredentials || len(out.Fields) != 0 {
		t.Fatalf("auth failure outcome = %+v", out)
	}

	out = Submit(context.Background(), Credentials{"ana@example.com", "correct-horse"}, auth)
	if !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}
	if calls != 2 {
		t.Fatalf("auth calls = %d, want 2", calls)
	}
}
