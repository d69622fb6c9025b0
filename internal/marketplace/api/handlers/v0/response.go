package v0

// Response is a generic wrapper for Huma responses
type Response[T any] struct {
	Body T
}

// OKResponse is the acknowledgement body for fire-and-forget operations.
type OKResponse struct {
	OK bool `json:"ok"`
}
