package statement

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error categories for statement operations.
var (
	// ErrProtocol is returned when an operation is invoked out of
	// lifecycle order, such as refining an already compiled statement.
	ErrProtocol = errors.New("statement lifecycle violation")

	// ErrArgument is returned when a clause or clause value is invalid.
	ErrArgument = errors.New("invalid statement argument")

	// ErrBinding is returned when placeholder binding fails or named
	// placeholders are still unbound at execution time.
	ErrBinding = errors.New("statement binding error")

	// ErrNoConnection is returned when the schema has no database driver.
	ErrNoConnection = errors.New("no database connection")

	// ErrLookup is returned when a registered name does not resolve,
	// such as an unknown result shape or column type.
	ErrLookup = errors.New("unknown name")
)

// StateError reports an operation invoked in the wrong lifecycle phase.
type StateError struct {
	Op     string
	Status Status
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s() when statement status is %s", e.Op, e.Status)
}

// Is reports whether the target is ErrProtocol.
func (e *StateError) Is(target error) bool {
	return target == ErrProtocol
}

// BindError reports named placeholders that have no bound value at
// execution time. Missing holds every unbound name, sorted.
type BindError struct {
	Missing []string
}

// NewBindError creates a BindError with the missing names sorted.
func NewBindError(missing []string) *BindError {
	sorted := append([]string(nil), missing...)
	sort.Strings(sorted)
	return &BindError{Missing: sorted}
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("unbound placeholder(s): %s", strings.Join(e.Missing, ", "))
}

// Is reports whether the target is ErrBinding.
func (e *BindError) Is(target error) bool {
	return target == ErrBinding
}

// IsProtocol checks if an error is a lifecycle ordering violation.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// IsUnbound checks if an error reports unbound placeholders.
func IsUnbound(err error) bool {
	return errors.Is(err, ErrBinding)
}
