package diff

import "fmt"

// NotInvertibleError is returned by Operation.Inverse when the operation did
// not retain enough prior state to undo itself. Callers that need guaranteed
// rollback must snapshot the table before applying destructive operations.
type NotInvertibleError struct {
	Op         string
	Table      string
	Column     string
	Constraint string
	Reason     string
}

func (e *NotInvertibleError) Error() string {
	msg := fmt.Sprintf("%s on table %q is not invertible: %s", e.Op, e.Table, e.Reason)
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	if e.Constraint != "" {
		msg += fmt.Sprintf(" (constraint %q)", e.Constraint)
	}
	return msg
}
