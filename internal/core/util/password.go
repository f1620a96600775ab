package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor; tests lower it to bcrypt.MinCost.
var PasswordCost = bcrypt.DefaultCost

func GenerateEncrypt(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}

	encrypted, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)

	if err != nil {
		return "", err
	}

	return string(encrypted), nil
}

func ComparePassword(password, encrypted string) error {
	return bcrypt.CompareHashAndPassword([]byte(encrypted), []byte(password))
}

func PasswordMatches(password, encrypted string) bool {
	return ComparePassword(password, encrypted) == nil
}
