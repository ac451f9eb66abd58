package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
)

// toConnectError maps ledger and auth errors onto Connect codes.
// Unexpected errors are logged and surfaced as Internal without detail.
func toConnectError(op string, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrMissingName):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrForbidden),
		errors.Is(err, ledger.ErrEmailMismatch):
		code = connect.CodePermissionDenied
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrInvalidToken):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrNotPending),
		errors.Is(err, ledger.ErrExpired):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, auth.ErrEmailExists):
		code = connect.CodeAlreadyExists
	case errors.Is(err, auth.ErrInvalidCredentials):
		code = connect.CodeUnauthenticated
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	return connect.NewError(code, err)
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}
