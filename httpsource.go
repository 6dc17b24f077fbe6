package mosaicc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPSourceOpts are options for an HTTPSource.
type HTTPSourceOpts struct {
	// ServerURL is the base URL of the Mosaic server, without a trailing
	// slash.
	ServerURL string
	// FetchTimeout bounds every request. Defaults to 10s.
	FetchTimeout time.Duration
	// Logger is the logger to use. Defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPSource talks the Mosaic wire contract: frame content is polled with
// a plain GET and all metadata travels in X-Frame-* response headers, the
// body being raw RGB bytes with no framing of its own.
type HTTPSource struct {
	opts   HTTPSourceOpts
	client *http.Client
}

var _ FrameSource = (*HTTPSource)(nil)
var _ DisplayRegistrar = (*HTTPSource)(nil)

// NewHTTPSource creates a new HTTPSource.
func NewHTTPSource(opts HTTPSourceOpts) *HTTPSource {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &HTTPSource{
		opts:   opts,
		client: &http.Client{Timeout: opts.FetchTimeout},
	}
}

// Connect verifies the server is reachable via its status endpoint.
func (s *HTTPSource) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.ServerURL+"/api/status", nil)
	if err != nil {
		return &FetchError{Category: FaultConnection, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &FetchError{
			Category: FaultConnection,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("status endpoint returned %s", resp.Status),
		}
	}
	return nil
}

// HealthCheck reports whether the server responds on its status endpoint.
func (s *HTTPSource) HealthCheck(ctx context.Context) bool {
	return s.Connect(ctx) == nil
}

// Register announces this display to the server. The endpoint exists for
// multi-display setups and servers may not implement it.
func (s *HTTPSource) Register(ctx context.Context, info DisplayInfo) error {
	body, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal display info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.ServerURL+"/api/displays", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("registration request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registration returned %s", resp.Status)
	}
	return nil
}

// Fetch retrieves the current payload for the display.
func (s *HTTPSource) Fetch(ctx context.Context, freq FrameRequest) (*Payload, error) {
	fetchURL := s.opts.ServerURL + "/frame"
	if freq.DisplayID != "" {
		fetchURL += "?display=" + url.QueryEscape(freq.DisplayID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, &FetchError{Category: FaultConnection, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		// The client cannot tell a permanently broken server from a
		// temporarily degraded one, so every failure status takes the
		// same retry path as an unreachable server.
		return nil, &FetchError{
			Category: FaultConnection,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("server returned %s", resp.Status),
		}
	}

	h := resp.Header
	p := &Payload{
		Width:      headerInt(h, "X-Frame-Width", 64),
		Height:     headerInt(h, "X-Frame-Height", 32),
		FrameCount: headerInt(h, "X-Frame-Count", 1),
		FrameDelay: time.Duration(headerInt(h, "X-Frame-Delay-Ms", 100)) * time.Millisecond,
		Dwell:      time.Duration(headerInt(h, "X-Dwell-Secs", 10)) * time.Second,
		Brightness: clampByte(headerInt(h, "X-Brightness", 200)),
		AppName:    h.Get("X-App-Name"),
	}
	if p.AppName == "" {
		p.AppName = "unknown"
	}

	p.Pixels, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	s.opts.Logger.Debug(
		"fetched payload",
		"app", p.AppName,
		"frames", p.FrameCount,
		"size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"bytes", len(p.Pixels))

	return p, nil
}

func classifyTransport(err error) error {
	cat := FaultConnection

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		cat = FaultTimeout
	}

	return &FetchError{Category: cat, Err: err}
}

func headerInt(h http.Header, key string, fallback int) int {
	v := h.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func clampByte(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
