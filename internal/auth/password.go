package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("auth: password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored hash. The
// comparison is constant-time by construction.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("auth: password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// enumerationGuardHash is a throwaway bcrypt digest compared against when a
// login targets an unknown email, so the miss costs roughly the same as a
// wrong password and response timing does not reveal which case occurred.
var enumerationGuardHash = mustHash("thisisme-enumeration-guard")

func mustHash(s string) string {
	h, err := HashPassword(s)
	if err != nil {
		panic(err)
	}
	return h
}
