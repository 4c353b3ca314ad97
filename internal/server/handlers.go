package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles GET /health - liveness plus database quick checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	databases := make(map[string]string)

	check := func(name string, err error) {
		if err != nil {
			databases[name] = "error: " + err.Error()
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			return
		}
		databases[name] = "ok"
	}

	if s.leadsDB != nil {
		check(s.leadsDB.Name(), s.leadsDB.QuickCheck(r.Context()))
	}
	if s.metricsDB != nil {
		check(s.metricsDB.Name(), s.metricsDB.QuickCheck(r.Context()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"databases": databases,
	})
}
