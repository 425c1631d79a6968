package security

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the account does not exist so that an
// unknown identifier costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("alugabv-dummy-password"), bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPasswordCheck spends one bcrypt comparison without a real hash.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
