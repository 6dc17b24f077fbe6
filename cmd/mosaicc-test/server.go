package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"dev.acmcsuf.com/mosaicc"
	"golang.org/x/time/rate"
	"gopkg.in/typ.v4/sync2"
	"libdb.so/hrt"
)

// server speaks the Mosaic wire contract with locally generated content, so
// the client can be exercised end to end without a production server.
type server struct {
	apps   []app
	width  int
	height int
	dwell  time.Duration
	start  time.Time
	logger *slog.Logger

	limiter  *rate.Limiter
	displays sync2.Map[string, mosaicc.DisplayInfo]
	previews sync2.Map[string, chan []byte]
}

// currentApp cycles through the builtin apps, one per dwell period, so
// well-behaved clients see new content on every fetch.
func (s *server) currentApp() app {
	n := int(time.Since(s.start)/s.dwell) % len(s.apps)
	return s.apps[n]
}

func (s *server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "frame rate limited", http.StatusTooManyRequests)
		return
	}

	a := s.currentApp()
	pixels := a.render(s.width, s.height)

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("X-Frame-Width", strconv.Itoa(s.width))
	h.Set("X-Frame-Height", strconv.Itoa(s.height))
	h.Set("X-Frame-Count", strconv.Itoa(a.frames))
	h.Set("X-Frame-Delay-Ms", strconv.Itoa(int(a.delay/time.Millisecond)))
	h.Set("X-Dwell-Secs", strconv.Itoa(int(s.dwell/time.Second)))
	h.Set("X-Brightness", "200")
	h.Set("X-App-Name", a.name)
	w.Write(pixels)

	s.broadcastPreview(pixels[:s.width*s.height*3])

	s.logger.Debug(
		"frame served",
		"display", r.URL.Query().Get("display"),
		"app", a.name,
		"frames", a.frames)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) registerDisplay(ctx context.Context, info mosaicc.DisplayInfo) (hrt.None, error) {
	if info.ID == "" {
		return hrt.Empty, hrt.NewHTTPError(http.StatusBadRequest, "missing display id")
	}

	s.displays.Store(info.ID, info)

	s.logger.Info(
		"display registered",
		"id", info.ID,
		"name", info.Name,
		"size", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"client_type", info.ClientType)

	return hrt.Empty, nil
}

type listDisplaysRequest struct{}

func (s *server) listDisplays(ctx context.Context, _ listDisplaysRequest) ([]mosaicc.DisplayInfo, error) {
	infos := []mosaicc.DisplayInfo{}
	s.displays.Range(func(_ string, info mosaicc.DisplayInfo) bool {
		infos = append(infos, info)
		return true
	})
	return infos, nil
}
