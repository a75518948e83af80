package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	maxUsernameLen = 150
	maxEmailLen    = 254
)

var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwertyui":   {},
	"qwerty123":  {},
	"iloveyou":   {},
	"11111111":   {},
	"abc12345":   {},
	"letmein1":   {},
	"welcome1":   {},
	"passw0rd":   {},
	"sunshine":   {},
	"football":   {},
	"baseball":   {},
	"princess":   {},
	"password12": {},
}

// ValidatePassword checks length, rejects all-digit and very common passwords,
// and rejects passwords that contain the username.
func ValidatePassword(password, username string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", minPasswordLen)
	}
	if n > maxPasswordLen {
		return fmt.Errorf("This password is too long. It must contain at most %d characters.", maxPasswordLen)
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("This password is entirely numeric.")
	}

	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return errors.New("This password is too common.")
	}

	if username != "" && len(username) >= 3 && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return errors.New("The password is too similar to the username.")
	}

	return nil
}

// ValidateUsername checks the username charset and length.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New(MsgRequired)
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return fmt.Errorf("Ensure this value has at most %d characters.", maxUsernameLen)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}

// ValidateEmail checks basic email format. An empty email is allowed.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > maxEmailLen {
		return fmt.Errorf("Ensure this value has at most %d characters.", maxEmailLen)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("Enter a valid email address.")
	}
	return nil
}
