package mosaicc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// minFrameDelay and minDwell are the floors applied to server-declared
// timings so a bad payload cannot turn the loop into a busy spin or into
// fetch-per-iteration polling.
const (
	minFrameDelay = 10 * time.Millisecond
	minDwell      = time.Second
)

// Opts are options for a Client.
type Opts struct {
	// Source fetches content from the Mosaic server.
	Source FrameSource
	// Screen is the matrix the client drives. The client owns it
	// exclusively for its whole lifetime.
	Screen Screen
	// Clock is the time source. Defaults to SystemClock().
	Clock Clock
	// Logger is the logger to use. Defaults to slog.Default().
	Logger *slog.Logger

	// DisplayID identifies this display to the server. If empty, an
	// ephemeral UUID is generated at construction.
	DisplayID string
	// DisplayName is the human-readable name sent during registration.
	DisplayName string

	// ConnectTimeout bounds each connect attempt. Defaults to 30s.
	ConnectTimeout time.Duration
	// RetryDelay is the fixed delay between retries within a fault
	// episode. Repeated failures do not back off; every retry waits the
	// same interval. Defaults to 2s.
	RetryDelay time.Duration
	// MaxAttempts is the number of failed fetches in one episode before
	// the client re-verifies the server via the connect path. Zero means
	// never. Defaults to 3.
	MaxAttempts int
}

// Status is a point-in-time snapshot of the client, served by the local
// status endpoint.
type Status struct {
	State               string `json:"state"`
	App                 string `json:"app,omitempty"`
	Fault               string `json:"fault,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// Client drives one matrix from one Mosaic server: it polls for content,
// plays fetched animations at their declared cadence, and falls back to
// per-category diagnostic patterns with fixed-interval retries on faults.
type Client struct {
	opts   Opts
	logger *slog.Logger
	clock  Clock

	width  int
	height int

	pb       Playback
	patterns map[FaultCategory][]byte

	statusMu sync.Mutex
	status   Status
}

type clientState int

const (
	stateConnecting clientState = iota
	stateFetching
	statePlaying
	stateFaulted
)

func (s clientState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateFetching:
		return "fetching"
	case statePlaying:
		return "playing"
	case stateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("clientState(%d)", int(s))
	}
}

// faultState tracks one fault episode: from the first failure of a category
// until the next success.
type faultState struct {
	category FaultCategory
	failures int
	resume   clientState // stateConnecting or stateFetching
}

// New creates a new Client. The screen must already be initialized; a
// display that cannot be brought up cannot show recovery feedback, so that
// failure is the caller's to treat as fatal.
func New(opts Opts) (*Client, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("missing frame source")
	}
	if opts.Screen == nil {
		return nil, fmt.Errorf("missing screen")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}

	if opts.DisplayID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate display id: %w", err)
		}
		opts.DisplayID = id.String()
		opts.Logger.Info(
			"no display id configured, using ephemeral id",
			"display_id", opts.DisplayID)
	}
	if opts.DisplayName == "" {
		opts.DisplayName = opts.DisplayID
	}

	w, h := opts.Screen.Size()

	return &Client{
		opts:     opts,
		logger:   opts.Logger,
		clock:    opts.Clock,
		width:    w,
		height:   h,
		patterns: make(map[FaultCategory][]byte),
		status:   Status{State: stateConnecting.String()},
	}, nil
}

// Status returns a snapshot of the client's current state. Safe to call
// from other goroutines.
func (c *Client) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

// Run drives the client until ctx is cancelled. The loop is single-threaded
// and cooperative: cancellation is checked at the top of every iteration,
// and every blocking call is bounded. Run returns nil on clean shutdown.
func (c *Client) Run(ctx context.Context) error {
	c.logger.Info(
		"starting mosaic client",
		"display_id", c.opts.DisplayID,
		"size", fmt.Sprintf("%dx%d", c.width, c.height))

	defer c.teardown()

	st := stateConnecting
	var fault *faultState
	req := FrameRequest{DisplayID: c.opts.DisplayID}

	for {
		if ctx.Err() != nil {
			c.logger.Info("shutting down")
			return nil
		}

		switch st {
		case stateConnecting:
			c.setStatus(func(s *Status) { s.State = st.String() })

			cctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
			err := c.opts.Source.Connect(cctx)
			cancel()
			if err != nil {
				st, fault = c.fail(fault, stateConnecting, err)
				break
			}

			c.logger.Info("connected to server")
			c.register(ctx)
			st = stateFetching

		case stateFetching:
			c.setStatus(func(s *Status) { s.State = st.String() })

			payload, err := c.opts.Source.Fetch(ctx, req)
			var set FrameSet
			if err == nil {
				set, err = DecodeFrames(payload, c.width, c.height)
			}
			if err != nil {
				st, fault = c.fail(fault, stateFetching, err)
				break
			}

			c.opts.Screen.SetBrightness(payload.Brightness)

			delay := payload.FrameDelay
			if delay < minFrameDelay {
				delay = minFrameDelay
			}
			dwell := payload.Dwell
			if dwell < minDwell {
				dwell = minDwell
			}
			c.pb.Load(set, delay, dwell, c.clock.Now())

			if fault != nil {
				c.logger.Info(
					"recovered from fault",
					"category", fault.category.String(),
					"failures", fault.failures)
				fault = nil
			}

			c.logger.Debug(
				"loaded frame set",
				"app", payload.AppName,
				"frames", len(set),
				"frame_delay", delay,
				"dwell", dwell)

			c.setStatus(func(s *Status) {
				s.State = statePlaying.String()
				s.App = payload.AppName
				s.Fault = ""
				s.ConsecutiveFailures = 0
			})
			st = statePlaying

		case statePlaying:
			tick := c.pb.Tick(c.clock.Now())
			switch {
			case tick.DwellExpired:
				st = stateFetching
			case tick.Frame != nil:
				if err := c.opts.Screen.Render(tick.Frame); err != nil {
					// A failed hardware write skips this frame only;
					// playback continues on the next tick.
					c.logger.Warn(
						"frame render failed, skipping frame",
						"error", err)
				}
			default:
				c.clock.Sleep(ctx, c.nextSleep())
			}

		case stateFaulted:
			if err := c.opts.Screen.Render(c.pattern(fault.category)); err != nil {
				c.logger.Warn(
					"fault pattern render failed",
					"error", err)
			}

			c.clock.Sleep(ctx, c.opts.RetryDelay)

			st = fault.resume
			if c.opts.MaxAttempts > 0 && fault.resume == stateFetching && fault.failures >= c.opts.MaxAttempts {
				// A whole episode of failed fetches; re-verify the
				// server before polling again.
				c.logger.Warn(
					"fetch retries exhausted, re-checking server",
					"failures", fault.failures)
				st = stateConnecting
			}
		}
	}
}

// fail records a failure and routes the loop into the faulted state. A new
// episode starts when the category changes; otherwise the running episode
// keeps counting. The retry delay never grows with the failure count.
func (c *Client) fail(fault *faultState, from clientState, err error) (clientState, *faultState) {
	cat := Categorize(err)
	if fault == nil || fault.category != cat {
		fault = &faultState{category: cat}
	}
	fault.failures++
	fault.resume = from

	c.logger.Error(
		"entering fault state",
		"category", cat.String(),
		"consecutive_failures", fault.failures,
		"retry_in", c.opts.RetryDelay,
		"error", err)

	c.setStatus(func(s *Status) {
		s.State = stateFaulted.String()
		s.Fault = cat.String()
		s.ConsecutiveFailures = fault.failures
	})

	return stateFaulted, fault
}

// register announces the display to servers that support it. Failure is
// logged and otherwise ignored.
func (c *Client) register(ctx context.Context) {
	reg, ok := c.opts.Source.(DisplayRegistrar)
	if !ok {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := reg.Register(rctx, DisplayInfo{
		ID:         c.opts.DisplayID,
		Name:       c.opts.DisplayName,
		Width:      c.width,
		Height:     c.height,
		ClientType: "mosaicc",
	})
	if err != nil {
		c.logger.Warn(
			"display registration failed",
			"error", err)
		return
	}

	c.logger.Debug("display registered")
}

func (c *Client) pattern(cat FaultCategory) []byte {
	buf, ok := c.patterns[cat]
	if !ok {
		buf = FaultPattern(cat, c.width, c.height)
		c.patterns[cat] = buf
	}
	return buf
}

func (c *Client) nextSleep() time.Duration {
	d := c.pb.NextEvent(c.clock.Now())
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

func (c *Client) setStatus(update func(*Status)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	update(&c.status)
}

func (c *Client) teardown() {
	if err := c.opts.Screen.Teardown(); err != nil {
		c.logger.Warn(
			"screen teardown failed",
			"error", err)
	}
}
