package pgs

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports structural damage in one of the database files:
	// malformed lines, out-of-range ids, missing or redundant entries.
	// Such damage is never repaired automatically.
	ErrFormat = errors.New("account database format error")

	// ErrLock reports that the exclusive database lock could not be
	// obtained within the timeout budget.
	ErrLock = errors.New("account database is locked")

	// ErrAddUser reports that no free user id is available.
	ErrAddUser = errors.New("unable to add user")

	// ErrAddGroup reports that no free group id is available.
	ErrAddGroup = errors.New("unable to add group")

	// ErrPrecondition reports an operation invoked against state that
	// does not admit it, such as adding a user whose name is taken.
	ErrPrecondition = errors.New("operation precondition violated")

	// ErrClosed reports use of a session after Close.
	ErrClosed = errors.New("account database session is closed")
)

func formatErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func precondErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
