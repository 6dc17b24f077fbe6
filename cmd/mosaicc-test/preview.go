package main

import (
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/gofrs/uuid/v5"
)

// handlePreviewWS streams the first frame of every served payload to the
// connected socket as a binary message, so a person can watch what clients
// are rendering without hardware. The handler blocks for the connection's
// lifetime: returning would cancel the request context and tear the
// connection down.
func (s *server) handlePreviewWS(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id := uuid.Must(uuid.NewV7()).String()
	frames := make(chan []byte, 1)
	s.previews.Store(id, frames)

	logger := s.logger.With("preview", id, "addr", conn.RemoteAddr())
	logger.Info("preview connected")

	defer func() {
		s.previews.Delete(id)
		conn.Close()
		logger.Info("preview disconnected")
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case buf := <-frames:
			if err := wsutil.WriteServerBinary(conn, buf); err != nil {
				logger.Debug(
					"failed to write preview frame",
					"error", err)
				return
			}
		}
	}
}

// broadcastPreview fans a frame out to every preview connection. Slow
// consumers drop frames rather than blocking the frame endpoint.
func (s *server) broadcastPreview(frame []byte) {
	s.previews.Range(func(_ string, ch chan []byte) bool {
		select {
		case ch <- frame:
		default:
		}
		return true
	})
}
