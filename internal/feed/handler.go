package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"driftpursuit/arena/internal/logging"
)

// StatusFunc returns a JSON encodable status document.
type StatusFunc func() any

// NewMux exposes the viewer socket at /ws, a liveness probe at /livez and
// the host status at /status, all behind trace propagation.
func NewMux(hub *Hub, logger *logging.Logger, status StatusFunc) http.Handler {
	if logger == nil {
		logger = logging.L()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "alive",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		frames, dropped := hub.Stats()
		doc := map[string]any{
			"viewers":          hub.ClientCount(),
			"frames_published": frames,
			"viewers_dropped":  dropped,
		}
		if status != nil {
			doc["host"] = status()
		}
		writeJSON(w, http.StatusOK, doc)
	})
	return logging.HTTPTraceMiddleware(logger)(mux)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}
