// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidRepoFormat is returned when a repository argument is not in
// 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrNotFound is returned by local read paths that require the entity to
// exist (e.g. an explicit info lookup).
type ErrNotFound struct {
	Repo string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("repository %q not found in local store", e.Repo)
}

// ErrUnknownRepository is returned when a local write operation references a
// repository that has not been added yet. Callers are expected to run 'add'
// first.
type ErrUnknownRepository struct {
	Repo string
}

func (e *ErrUnknownRepository) Error() string {
	return fmt.Sprintf("repository %q is not tracked locally, add it first", e.Repo)
}

// ErrRemoteNotFound is returned when the upstream repository does not exist.
// Nothing is written locally.
type ErrRemoteNotFound struct {
	Repo string
}

func (e *ErrRemoteNotFound) Error() string {
	return fmt.Sprintf("repository %q does not exist on GitHub", e.Repo)
}

// ErrRemoteUnavailable wraps a transport, auth or server failure from the
// remote API. The operation is safe to retry.
type ErrRemoteUnavailable struct {
	Repo string
	Err  error
}

func (e *ErrRemoteUnavailable) Error() string {
	return fmt.Sprintf("github api unavailable for %q: %v", e.Repo, e.Err)
}

func (e *ErrRemoteUnavailable) Unwrap() error {
	return e.Err
}
