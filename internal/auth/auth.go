// Package auth provides credential verification for terminal sessions.
//
// It intentionally avoids policy decisions and storage concerns.
package auth

import (
	"errors"

	"github.com/danmuck/scipnet/internal/deepwell"
	logs "github.com/danmuck/smplog"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// UserSource supplies user records for credential checks.
type UserSource interface {
	UserByID(id int64) (deepwell.User, error)
}

// Authenticate checks a user id / password pair against src. On a failed
// attempt it returns the offending field name ("user_id" when no such user
// exists, "password" on a hash mismatch) with ErrUnauthorized; other errors
// are storage failures.
func Authenticate(src UserSource, userID int64, password string) (deepwell.User, string, error) {
	user, err := src.UserByID(userID)
	if errors.Is(err, deepwell.ErrNotFound) {
		logs.Warnf("auth.Authenticate unknown user_id=%d", userID)
		return deepwell.User{}, "user_id", ErrUnauthorized
	}
	if err != nil {
		return deepwell.User{}, "", err
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		logs.Warnf("auth.Authenticate bad password user_id=%d", userID)
		return deepwell.User{}, "password", ErrUnauthorized
	}
	return user, "", nil
}

// VerifyPassword compares a stored bcrypt hash with a candidate password.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrUnauthorized
	}
	return nil
}
