package httpapi

import (
	"net/http"
	"time"
)

// NewHandler serves the trigger API:
//
//	GET  /health   liveness
//	GET  /status   current run flag and last report
//	POST /run      start a run in the background
//	GET  /events   run state transitions as server-sent events
func NewHandler(d Deps) http.Handler {
	mux := http.NewServeMux()

	hh := HealthHandler{Started: time.Now(), Hub: d.Hub}
	rh := RunHandler{Runner: d.Runner, Base: d.BaseContext}
	eh := EventsHandler{Hub: d.Hub}

	mux.HandleFunc("/health", only(hh.Health, http.MethodGet))
	mux.HandleFunc("/status", only(rh.Status, http.MethodGet))
	mux.HandleFunc("/run", only(rh.Run, http.MethodPost))
	mux.HandleFunc("/events", only(eh.Stream, http.MethodGet))

	// Request IDs outermost so recovery and access logs can report them.
	return withRequestID(withRecovery(withAccessLog(mux)))
}
