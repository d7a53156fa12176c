// Package api holds the wire types shared by the server and the client
// remote-storage adapter.
package api

// LoginRequest asks for an access token in exchange for the access key.
type LoginRequest struct {
	AccessKey string `json:"access_key"`
}

// LoginResponse carries the issued JWT.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // always "Bearer"
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
