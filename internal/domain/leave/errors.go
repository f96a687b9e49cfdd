package leave

import "errors"

var (
	ErrNotFound      = errors.New("leave request not found")
	ErrTerminalState = errors.New("leave request already decided")
	ErrNotLinked     = errors.New("session is not linked to an employee")
	ErrInvalidPolicy = errors.New("invalid leave amend policy")
)
