package applications

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller lacks an administrative role in
// the owning company.
var ErrForbidden = errors.New("caller is not an administrator of the owning company")

// errFrozen labels rejected updates in metrics; callers see ValidationError.
var errFrozen = errors.New("published record is frozen")

// ValidationError rejects a request naming the violated field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
