package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier interface {
	Compare(hashedPassword, password string) error
}

// BcryptVerifier implements PasswordVerifier with bcrypt.
type BcryptVerifier struct{}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare returns nil on a match. An empty hash never matches.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
