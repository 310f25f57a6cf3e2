package service

import (
	"regexp"

	apperr "flagforge/pkg/errors"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperr.New(apperr.InvalidUsername)
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return apperr.New(apperr.InvalidEmail)
	}
	return nil
}

// bcrypt only reads the first 72 bytes, so longer passwords are rejected
// instead of silently truncated.
func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return apperr.New(apperr.InvalidPassword)
	}
	return nil
}
