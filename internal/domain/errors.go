package domain

import "errors"

// Engine errors. All of them are recoverable at the caller boundary and
// a failing operation leaves the session exactly as it was.
//
// A crashed account is a session state, not an error: it is reported through
// the account_crashed flag of every response.
var (
	// ErrInvalidCapital is returned when a session is started below the minimum capital.
	ErrInvalidCapital = errors.New("invalid initial capital")

	// ErrInvalidDistribution is returned for malformed or unnormalizable outcome weights.
	ErrInvalidDistribution = errors.New("invalid outcome distribution")

	// ErrUnknownStrategy is returned when a strategy key is not in the catalog.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrInvalidParameter is returned when a risk percent, trade count or
	// strategy parameter is outside its declared domain.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrAlreadyCrashed is returned when trading is attempted on a crashed account.
	ErrAlreadyCrashed = errors.New("account already crashed")

	// ErrSessionNotStarted is returned when trading is attempted before start.
	ErrSessionNotStarted = errors.New("session not started")
)
