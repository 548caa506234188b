// Package client is a Go client for the eventphotos HTTP API.
//
// HTTPClient keeps the session the way a browser does: the refresh token
// lives in a cookie jar and the access token is sent as a bearer header.
// When a call is rejected with 401 the client rotates the pair through
// /api/refresh once and repeats the call. If the refresh itself fails the
// session is dropped and ErrUnauthorized is returned, so callers only need to
// send the user back to login.
//
// Non-2xx responses surface as *APIError, which unwraps to the sentinels in
// internal/common (and to ErrUnauthorized/ErrUnavailable) for errors.Is.
// Transport failures are reported as ErrUnavailable.
package client
