// Package validation holds input checks shared by the auth and ledger layers.
package validation

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEmail is returned for anything that is not a bare address.
var ErrInvalidEmail = errors.New("invalid email address")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Email accepts a bare addr-spec such as "bob@example.com". Display-name
// forms like "Bob <bob@example.com>" are rejected, since invites are
// matched against the stored address verbatim.
func Email(email string) error {
	if err := instance().Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
