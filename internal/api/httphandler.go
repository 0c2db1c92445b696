package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"hookstate/internal/flow"
	"hookstate/internal/types"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Deps flow.Deps
}

func NewHandler(deps flow.Deps) *Handler {
	return &Handler{Deps: deps}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/hook", h.handleHook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// handleHook runs one invocation per request. The body is a flow.Event.
func (h *Handler) handleHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	var ev flow.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	res, err := flow.HandleEvent(r.Context(), h.Deps, ev)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"unit":   ev.Unit,
			"hook":   ev.Hook,
			"client": clientIP(r),
		}).Warn("Hook invocation failed")
		code := http.StatusInternalServerError
		if errors.Is(err, types.ErrInvalidEvent) {
			code = http.StatusBadRequest
		}
		if err := writeJSON(w, code, map[string]any{
			"invocation": res.Invocation,
			"outcome":    res.Outcome,
			"error":      err.Error(),
		}); err != nil {
			http.Error(w, "failed to write response", http.StatusInternalServerError)
		}
		return
	}
	if err := writeJSON(w, http.StatusOK, res); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

// clientIP extracts the real client IP from X-Forwarded-For or RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
