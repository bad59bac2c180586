package errors

import "fmt"

// InvalidParamErr reports a user supplied value that cannot be parsed, e.g. "amount must be a number".
func InvalidParamErr(param, want string, err error) error {
	return E(Invalid, param+" must be "+want, err)
}

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid response body", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return ValidationFailedErr(ve.Err())
}

// ConflictErr returns a formatted error for a state transition the record cannot take
func ConflictErr(resource, id, reason string) error {
	return E(Conflict, fmt.Sprintf("%s %s %s", resource, id, reason), nil)
}

// UnavailableErr wraps a transport level failure
func UnavailableErr(op string, err error) error {
	return E(Unavailable, op+" failed", err)
}
