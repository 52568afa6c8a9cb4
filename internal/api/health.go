package api

import "net/http"

// health is the liveness probe. It carries no dependency checks: the process
// serving the request is the only resource this service needs to be alive.
func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
