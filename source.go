package mosaicc

import "context"

// FrameRequest identifies which display is asking for content. Constructed
// once at startup and reused for every fetch.
type FrameRequest struct {
	DisplayID string
}

// FrameSource fetches display content from a Mosaic server.
type FrameSource interface {
	// Connect verifies the server is reachable. Bounded by ctx.
	Connect(ctx context.Context) error
	// Fetch retrieves the current payload for the requesting display.
	// Failures are *FetchError values carrying the fault category.
	Fetch(ctx context.Context, req FrameRequest) (*Payload, error)
	// HealthCheck reports whether the server currently responds.
	HealthCheck(ctx context.Context) bool
}

// DisplayInfo is the registration record for a display.
type DisplayInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ClientType string `json:"client_type"`
}

// DisplayRegistrar is implemented by sources that support the server's
// optional multi-display registration endpoint.
type DisplayRegistrar interface {
	Register(ctx context.Context, info DisplayInfo) error
}
