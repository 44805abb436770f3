package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnknownPrincipal occurs when a salt is requested for a user that does not exist.
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrAuthenticationFailed indicates a rejected login. Unknown users and
	// wrong digests both map to it.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrUnauthenticated indicates a missing, malformed, expired or revoked session token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates an authenticated caller without access to the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrMethodNotAllowed indicates the wrong verb on an endpoint.
	ErrMethodNotAllowed = errors.New("method not allowed")
)
