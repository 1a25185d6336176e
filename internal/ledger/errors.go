package ledger

import "fmt"

// Code identifies a user-facing ledger rejection.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeSourceNotFound      Code = "source_not_found"
	CodeDestinationNotFound Code = "destination_not_found"
	CodeDestinationClosed   Code = "destination_closed"
	CodeOwnerMismatch       Code = "owner_mismatch"
	CodeBelowMinimumBalance Code = "below_minimum_balance"
	CodeValidation          Code = "validation"
	CodeAccountClosed       Code = "account_closed"
	CodeNonZeroBalance      Code = "non_zero_balance"
	CodeTermChanged         Code = "term_changed"
)

// Error is returned for every rejection the caller should show to the
// user. Anything else coming out of this package is an infrastructure
// failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code. ErrNotFound also matches the source and destination
// variants.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == CodeNotFound {
		switch e.Code {
		case CodeNotFound, CodeSourceNotFound, CodeDestinationNotFound:
			return true
		}
	}
	return e.Code == t.Code
}

var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "account not found"}
	ErrSourceNotFound      = &Error{Code: CodeSourceNotFound, Message: "source account not found"}
	ErrDestinationNotFound = &Error{Code: CodeDestinationNotFound, Message: "destination account not found"}
	ErrDestinationClosed   = &Error{Code: CodeDestinationClosed, Message: "destination account is closed"}
	ErrOwnerMismatch       = &Error{Code: CodeOwnerMismatch, Message: "accounts belong to different users"}
	ErrBelowMinimumBalance = &Error{Code: CodeBelowMinimumBalance, Message: "balance would drop below the account minimum"}
	ErrValidation          = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrAccountClosed       = &Error{Code: CodeAccountClosed, Message: "account is closed"}
	ErrNonZeroBalance      = &Error{Code: CodeNonZeroBalance, Message: "account balance must be zero to close"}
	ErrTermChanged         = &Error{Code: CodeTermChanged, Message: "the term advanced, retry with the current term"}
)

func validationf(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}
