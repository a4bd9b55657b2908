package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Границы совпадают со схемами бэкенда.
const (
	nameMin     = 2
	nameMax     = 50
	passwordMin = 8
	passwordMax = 64
	promptMin   = 5
	promptMax   = 500
)

func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}

	return email, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < nameMin || n > nameMax {
		return "", ErrInvalidName
	}

	return name, nil
}

func validatePassword(pw string) error {
	if pw == "" {
		return ErrEmptyPassword
	}

	if n := utf8.RuneCountInString(pw); n < passwordMin || n > passwordMax {
		return ErrInvalidPassword
	}

	return nil
}
