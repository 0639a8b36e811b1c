package httpapi

import "net/http"

// healthz is a liveness probe.
func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports storage readiness when the store supports the check.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if rc, ok := s.store.(ReadyChecker); ok {
		if err := rc.Ready(r.Context()); err != nil {
			toJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	toJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
