package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// BearerTokenType is echoed as token_type in every token response.
	BearerTokenType = "bearer"
)
