package common

// ComposeLookupRequest asks for the platforms of every image in a compose file
type ComposeLookupRequest struct {
	// Required: docker-compose.yaml content
	Compose string `json:"compose" validate:"required"`
}
