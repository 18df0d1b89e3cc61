package members

import (
	"crypto/subtle"
	"strings"

	apperrors "github.com/robodex/robodex-backend/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(stored, p) {
			return true
		}
	}
	return false
}

// CheckPassword compares candidate with a stored bcrypt hash, or with a
// legacy plaintext value in constant time.
func CheckPassword(stored, candidate string) bool {
	if stored == "" {
		return false
	}
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// ValidateNewPassword applies the password change rules.
func ValidateNewPassword(current, next string, minLength int) error {
	if len(next) < minLength {
		return apperrors.Wrapf(apperrors.ErrPasswordTooShort, "minimum %d characters", minLength)
	}
	if next == current {
		return apperrors.ErrPasswordUnchanged
	}
	return nil
}
