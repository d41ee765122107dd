package common

const (
	// AuthorizationHeaderName is the HTTP header carrying the access token.
	AuthorizationHeaderName = "Authorization"

	// AuthorizationMetadataKey is the gRPC metadata key carrying the access
	// token. gRPC lowercases all metadata keys.
	AuthorizationMetadataKey = "authorization"

	// BearerPrefix precedes the token in the Authorization value. It is
	// optional on input.
	BearerPrefix = "Bearer "
)
