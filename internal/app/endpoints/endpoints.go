package endpoints

// Endpoints groups every endpoint the HTTP router mounts.
type Endpoints struct {
	SearchEndpoint SearchEndpoint
}
