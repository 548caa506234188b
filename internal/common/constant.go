package common

// Cookie names used to carry the session on browser requests.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// AuthorizationHeaderName carries "Bearer <access token>" on API calls.
const AuthorizationHeaderName = "Authorization"

// BCryptCost is the work factor for password hashes.
const BCryptCost = 10

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 6
