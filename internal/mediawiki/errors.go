package mediawiki

import (
	"errors"
	"fmt"
)

var (
	// ErrDeserialize is wrapped by every error caused by a response body that
	// is not well formed for the endpoint it came from.
	ErrDeserialize = errors.New("mediawiki: malformed response")
	// ErrTransport is wrapped when the http request itself failed.
	ErrTransport = errors.New("mediawiki: transport failed")
	// ErrUnknownRetrieval means the wiki said the page exists but returned no
	// revision content for it.
	ErrUnknownRetrieval = errors.New("mediawiki: page exists but no revision content was returned")
	// ErrNoToken means the token probe did not carry an edit token.
	ErrNoToken = errors.New("mediawiki: no edit token in response")
)

// AuthError is returned when the wiki rejects a login.
type AuthError struct {
	// Result is the login result code, ex. "WrongPass" or "Throttled".
	Result string
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("mediawiki: login failed: %s", e.Result)
	}
	return fmt.Sprintf("mediawiki: login failed: %s (%s)", e.Result, e.Reason)
}

// HttpError is returned once a read has failed with a non 200 status (or no
// response at all) on every allowed attempt.
type HttpError struct {
	Status   int
	Attempts int
	Err      error
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mediawiki: request failed after %d attempts (last status %d): %v", e.Attempts, e.Status, e.Err)
	}
	return fmt.Sprintf("mediawiki: request failed after %d attempts (last status %d)", e.Attempts, e.Status)
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

// APIError is the `error` object of an api.php response.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: api error %s: %s", e.Code, e.Info)
}

const (
	codeBadToken     = "badtoken"
	codeMaxlag       = "maxlag"
	codeEditConflict = "editconflict"
	codeNoToken      = "notoken"
)

// IsAPIError reports whether err carries an api error with the given code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
