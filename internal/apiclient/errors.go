package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Match them with errors.Is.
var (
	// ErrNetwork means the request never completed.
	ErrNetwork = errors.New("upstream unreachable")
	// ErrRemote means the upstream answered with a non-success status.
	ErrRemote = errors.New("upstream returned an error")
	// ErrNotFound means the upstream answered 404.
	ErrNotFound = errors.New("upstream resource not found")
	// ErrMissingID is returned before any call when a product id is empty.
	ErrMissingID = errors.New("product id is required")
)

// NetworkError reports a request that never completed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the class and the transport cause.
func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// RemoteError reports a non-success response, or a success response whose body
// could not be decoded.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// Is matches ErrRemote always and ErrNotFound for 404 responses.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
