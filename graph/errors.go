package graph

import (
	"errors"
	"fmt"
)

// Rejections for structurally invalid mutations. These are expected outcomes
// that callers translate into client-visible responses; they never abort the
// process and never leave partial writes behind.
var (
	ErrParentsAlreadySet    = errors.New("person already has parents recorded")
	ErrSpouseAlreadySet     = errors.New("person already has a spouse")
	ErrDeleteSelfOwned      = errors.New("cannot delete an account's own claimed identity")
	ErrDeleteHasChildren    = errors.New("cannot delete a person with descendants")
	ErrDeleteDualLinked     = errors.New("cannot delete a person linked through both parents and a spouse")
	ErrPersonAlreadyClaimed = errors.New("person is already claimed by an account")
	ErrUnknownRelationship  = errors.New("unknown relationship kind")
)

// IsInvariantViolation reports whether err is one of the structural-rule
// rejections above.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrParentsAlreadySet) ||
		errors.Is(err, ErrSpouseAlreadySet) ||
		errors.Is(err, ErrDeleteSelfOwned) ||
		errors.Is(err, ErrDeleteHasChildren) ||
		errors.Is(err, ErrDeleteDualLinked) ||
		errors.Is(err, ErrPersonAlreadyClaimed)
}

// IntegrityError signals that a relationship the engine is supposed to keep
// consistent was found broken on read, e.g. a recorded parent pair where only
// one parent record exists. It indicates prior corruption and is never
// retriable or silently repaired.
type IntegrityError struct {
	PersonID string
	Detail   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity error for person %s: %s", e.PersonID, e.Detail)
}

// IsIntegrityError reports whether err wraps an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
