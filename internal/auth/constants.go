package auth

// HTTP headers carrying the session token.
const (
	// AuthorizationHeader carries "Bearer <token>".
	AuthorizationHeader = "Authorization"

	// TokenHeader carries the raw token. Login responses set it too.
	TokenHeader = "X-Token"

	// BearerScheme is the Authorization scheme for session tokens.
	BearerScheme = "Bearer"
)

// Session token claims.
const (
	tokenIssuer   = "alexander-library"
	tokenAudience = "alexander-library-api"

	claimEmail = "email"
	claimName  = "name"
)
