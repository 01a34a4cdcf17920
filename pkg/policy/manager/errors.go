package manager

import "fmt"

// LoadError represents an error that occurred while loading a policy set
// file from disk: file system failures, size limits, or encoding problems.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load policy set file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load policy set file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a request referenced a policy set that is not
// published in the registry.
type NotFoundError struct {
	// Name is the requested policy set name
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy set %q not found", e.Name)
}

// DuplicateSetError indicates two policy files declare the same set name.
type DuplicateSetError struct {
	// Name is the duplicated policy set name
	Name string

	// FirstFile and SecondFile are the conflicting sources
	FirstFile  string
	SecondFile string
}

// Error implements the error interface.
func (e *DuplicateSetError) Error() string {
	return fmt.Sprintf("policy set %q declared in both %q and %q", e.Name, e.FirstFile, e.SecondFile)
}
