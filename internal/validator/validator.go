package validator

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidWalletNumber = errors.New("invalid wallet number")
	ErrInvalidKeyName      = errors.New("invalid key name")
	ErrInvalidPermissions  = errors.New("invalid permissions")
	ErrInvalidExpiry       = errors.New("invalid expiry, must be one of: 1H, 1D, 1M, 1Y")
)

var (
	emailRegex        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	walletNumberRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

var allowedPermissions = map[string]struct{}{
	"read":     {},
	"deposit":  {},
	"transfer": {},
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateWalletNumber(number string) error {
	if !walletNumberRegex.MatchString(number) {
		return ErrInvalidWalletNumber
	}
	return nil
}

func ValidateKeyName(name string) error {
	if len(name) == 0 || len(name) > 100 {
		return ErrInvalidKeyName
	}
	return nil
}

func ValidatePermissions(permissions []string) error {
	if len(permissions) == 0 {
		return ErrInvalidPermissions
	}
	seen := make(map[string]struct{}, len(permissions))
	for _, permission := range permissions {
		if _, ok := allowedPermissions[permission]; !ok {
			return ErrInvalidPermissions
		}
		if _, dup := seen[permission]; dup {
			return ErrInvalidPermissions
		}
		seen[permission] = struct{}{}
	}
	return nil
}

// ParseExpiry resolves one of the fixed expiry windows relative to now.
func ParseExpiry(expiry string, now time.Time) (time.Time, error) {
	switch expiry {
	case "1H":
		return now.Add(time.Hour), nil
	case "1D":
		return now.AddDate(0, 0, 1), nil
	case "1M":
		return now.AddDate(0, 1, 0), nil
	case "1Y":
		return now.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, ErrInvalidExpiry
	}
}
