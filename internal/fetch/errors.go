package fetch

import "fmt"

// TransportError represents a network failure or a non-success HTTP
// response. Retrying may help; policy for that belongs to the scheduler,
// not to this package.
type TransportError struct {
	URL        string
	StatusCode int   // 0 when the request never produced a response
	Err        error // underlying transport error, if any
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthExpiredError means the server answered with a login page: the session
// token is no longer valid. Distinguished from TransportError because
// retrying the same token cannot succeed; the caller should abort the run
// and have the session refreshed.
type AuthExpiredError struct {
	URL string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("fetch %s: session expired (login page returned)", e.URL)
}
