package refstore

import "emperror.dev/errors"

var (
	// ErrNotInitialized is returned when an operation requires a trunk
	// branch to be set and none has been.
	ErrNotInitialized = errors.Sentinel("repository not initialized: run `diamond init`")

	// ErrInvalidArgument is returned for self-parenting and other
	// caller-level mistakes.
	ErrInvalidArgument = errors.Sentinel("invalid argument")
)

// MissingBranchError is returned when an operation references a branch that
// does not currently exist in the VCS.
type MissingBranchError struct {
	Name string
}

func (e *MissingBranchError) Error() string {
	return "branch does not exist: " + e.Name
}

// CorruptedRefError is returned when a parent blob's content fails validation.
type CorruptedRefError struct {
	Branch string
	Reason string
}

func (e *CorruptedRefError) Error() string {
	return "corrupted stack metadata for branch " + e.Branch + ": " + e.Reason
}
