package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/storage"
)

// Sentinel errors returned by Ledger operations. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")

	// ErrNotAMember is the single no-access signal for group reads. It does
	// not reveal whether the group exists.
	ErrNotAMember = fmt.Errorf("%w: not a member of this group", ErrForbidden)

	ErrInvalidToken  = errors.New("invalid invite token")
	ErrExpired       = errors.New("invite has expired")
	ErrNotPending    = errors.New("invite is no longer pending")
	ErrEmailMismatch = errors.New("invite was sent to a different email")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translate maps storage.ErrNotFound to ErrNotFound and leaves other errors alone.
func translate(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
