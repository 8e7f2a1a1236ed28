package mocks

import (
	"errors"
	"strings"

	"github.com/taskhive/taskhive-api/internal/service/auth"
)

// ErrPasswordMismatch is the default comparison failure.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordVerifier implements auth.PasswordVerifier for testing.
// The default treats a hash of the form "hashed:<password>" as a match,
// pairing with MockUserStore's default Create behavior.
type MockPasswordVerifier struct {
	CompareFn func(hashedPassword, password string) error
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// Compare implements the auth.PasswordVerifier interface.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if strings.TrimPrefix(hashedPassword, "hashed:") == password {
		return nil
	}
	return ErrPasswordMismatch
}
