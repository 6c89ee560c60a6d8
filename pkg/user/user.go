package user

import (
	"strings"
	"time"
)

// User is the identity record. A user with no password hash cannot
// authenticate via password login.
type User struct {
	ID             int64
	Email          string
	Name           string
	HashedPassword *string
	EmailVerified  bool
	IsAdmin        bool
	Locale         string
	Timezone       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NormalizeEmail lower-cases an email address. Uniqueness is enforced on
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
