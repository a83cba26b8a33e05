package main

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T, db *DB) *Auth {
	t.Helper()
	a, err := NewAuth(db, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	return a
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAuth(t, openTestDB(t))
	cases := []struct {
		name, user, pass string
		want             error
	}{
		{"short name", "a", "secret", ErrBadUsername},
		{"long name", strings.Repeat("x", 17), "secret", ErrBadUsername},
		{"short password", "alice", "abc", ErrBadPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := a.Register(tc.user, tc.pass); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegisterLoginValidate(t *testing.T) {
	a := newTestAuth(t, openTestDB(t))

	id, token, err := a.Register("  alice ", "secret")
	if err != nil {
		t.Fatal(err)
	}
	gotID, name, err := a.ValidateToken(token)
	if err != nil || gotID != id || name != "alice" {
		t.Errorf("ValidateToken = %d, %q, %v", gotID, name, err)
	}

	if _, _, err := a.Register("alice", "secret"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate register: %v", err)
	}
	if _, _, err := a.Login("alice", "wrong", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, _, err := a.Login("nobody", "secret", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown user: %v", err)
	}
	loginID, _, err := a.Login("alice", "secret", "1.2.3.4")
	if err != nil || loginID != id {
		t.Errorf("Login = %d, %v", loginID, err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	a := newTestAuth(t, openTestDB(t))
	if _, _, err := a.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v", err)
	}

	other := newTestAuth(t, openTestDB(t))
	_, foreign, err := other.Register("mallory", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.ValidateToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed by another key accepted: %v", err)
	}
}

func TestSigningKeyPersists(t *testing.T) {
	db := openTestDB(t)
	first := newTestAuth(t, db)
	_, token, err := first.Register("alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	second := newTestAuth(t, db)
	if _, _, err := second.ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart: %v", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := newTestAuth(t, openTestDB(t))
	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("x", "y", "9.9.9.9")
	}
	if _, _, err := a.Login("x", "y", "9.9.9.9"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("expected rate limit, got %v", err)
	}
	if _, _, err := a.Login("x", "y", "8.8.8.8"); errors.Is(err, ErrTooManyAttempts) {
		t.Error("other addresses should not be limited")
	}
}
