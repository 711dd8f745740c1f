package assert

import "fmt"

// Error is the panic value of a failed assertion.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// IsTrue panics when ok is false. Use it for invariants whose violation is a
// programming error, never for bad input.
func IsTrue(ok bool, message string, args ...any) {
	if !ok {
		panic(&Error{Msg: fmt.Sprintf(message, args...)})
	}
}
