// Package migrate implements in-place table migration: relocating an
// existing table's data files into a target table's layout and committing
// the result as one atomic snapshot.
package migrate

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when the source table is missing from
	// its catalog.
	ErrSourceNotFound = errors.New("source table does not exist")

	// ErrDestinationExists is returned when a relocation target path is
	// already occupied, e.g. by a prior partial attempt. Files are never
	// silently overwritten.
	ErrDestinationExists = errors.New("destination path already exists")

	// ErrDropSourceFailed marks a migration whose commit succeeded but whose
	// source table could not be removed from its catalog. The migration is
	// logically complete; only the source cleanup is outstanding.
	ErrDropSourceFailed = errors.New("source table drop failed after commit")
)

// ValidationError reports a pre-flight incompatibility between source and
// target. It is raised before any filesystem mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedFormatError reports a partition whose storage marker matches no
// known file format.
type UnsupportedFormatError struct {
	Marker string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported partition format: %q", e.Marker)
}

// CommitError wraps a failure of the target table's snapshot commit.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return "commit rejected: " + e.Err.Error()
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
