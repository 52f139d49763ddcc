package remote

import "errors"

var (
	// ErrProjectNotFound is returned when the requested project does not exist
	// on the remote.
	ErrProjectNotFound = errors.New("project not found on remote")

	// ErrBranchNotFound is returned when the requested branch does not exist
	// in the project.
	ErrBranchNotFound = errors.New("branch not found on remote")

	// ErrFileNotFound is returned when a path is not present on the branch.
	ErrFileNotFound = errors.New("file not found on remote branch")

	// ErrFileExists is returned by NewFile when the path is already present.
	ErrFileExists = errors.New("file already exists on remote branch")

	// ErrLockNotHeld is returned when releasing a lock owned by someone else.
	ErrLockNotHeld = errors.New("lock not held by caller")

	// ErrInvalidProjectType is returned when creating a project of an unknown type.
	ErrInvalidProjectType = errors.New("invalid project type")
)
