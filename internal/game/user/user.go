// Package user defines the owner of companions and inventories.
package user

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already taken")

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// User owns companions and inventory stacks. Credentials are handled outside
// this service.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// ValidateUsername checks that name is 3-32 letters, digits or underscores.
func ValidateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return fmt.Errorf("username %q must be 3-32 letters, digits or underscores", name)
	}
	return nil
}
