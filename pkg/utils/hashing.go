package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashSecret produces the bcrypt hash operators store as CRON_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

func CompareSecret(hashedSecret string, plainSecret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(plainSecret))
}
