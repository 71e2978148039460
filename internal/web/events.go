package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sheetboard/sheetboard/internal/logging"
)

// handleEvents is the long-lived version notification stream (SSE). Each
// connection registers a subscriber and polls it on a fixed interval; when
// the cache version moves (or a publish forces a notify) the new version is
// emitted as a data event. Idle connections receive a comment event before
// intermediary proxies time them out.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.hub.Subscribe()
	// Removal must happen on every exit path, including an abnormal
	// connection drop surfacing as context cancellation.
	defer sub.Close()

	logger := logging.FromContext(r.Context())
	logger.Debug("subscriber connected", "subscribers", s.hub.Count())
	defer logger.Debug("subscriber disconnected")

	ticker := time.NewTicker(s.cfg.Events.Poll)
	defer ticker.Stop()

	lastEvent := time.Now()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if version, changed := sub.Poll(); changed {
				fmt.Fprintf(w, "data: %d\n\n", version)
				flusher.Flush()
				lastEvent = time.Now()
			} else if time.Since(lastEvent) >= s.cfg.Events.KeepAlive {
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
				lastEvent = time.Now()
			}
		}
	}
}
