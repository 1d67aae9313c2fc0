package auth

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateAPIKey builds a fresh bot API key, readable prefix first.
func GenerateAPIKey(botIdentifier string) string {
	return slug.Make(botIdentifier) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
