package api

// KeysResponse lists the keys matching a pattern query.
type KeysResponse struct {
	Keys []string `json:"keys"`
}

// ExistsResponse reports key presence without transferring the value.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}
