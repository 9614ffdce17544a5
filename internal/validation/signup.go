package validation

import (
	"errors"
	"fmt"
	"strings"
)

// MinPasswordLen минимальная длина пароля при регистрации
const MinPasswordLen = 6

var (
	ErrFullNameTooShort = errors.New("please enter your full name (at least two names)")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ValidatePassword проверяет пароль и его подтверждение
func ValidatePassword(password, confirm string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// SplitFullName делит полное имя на имя и фамилию.
// Все, что после первого слова, считается фамилией
func SplitFullName(full string) (first, last string, err error) {
	parts := strings.Fields(full)
	if len(parts) < 2 {
		return "", "", ErrFullNameTooShort
	}
	return parts[0], strings.Join(parts[1:], " "), nil
}

// NormalizePhone убирает пробелы, дефисы и скобки
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}

// IsPhone reports whether phone is '+' followed by 8-15 digits, ignoring
// spaces, dashes and parentheses
func IsPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}
