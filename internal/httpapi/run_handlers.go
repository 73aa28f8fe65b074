package httpapi

import (
	"context"
	"log"
	"net/http"

	"jobalert-engine/internal/pipeline"
)

type RunHandler struct {
	Runner RunController
	Base   context.Context
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Runner.Status())
}

type runAccepted struct {
	Accepted  bool   `json:"accepted"`
	RequestID string `json:"request_id"`
}

// Run starts a pipeline run in the background and returns immediately. A
// run already in progress is reported as a conflict instead of queued.
func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Status().Running {
		status, code := runProblem(pipeline.ErrRunInProgress)
		problem(w, r, status, code, "a run is already in progress")
		return
	}

	base := h.Base
	if base == nil {
		base = context.Background()
	}
	id := requestID(r.Context())
	go func() {
		rep, err := h.Runner.Run(base)
		if err != nil {
			_, code := runProblem(err)
			log.Printf("[http] id=%s triggered run=%s ended %s: %v", id, rep.RunID, code, err)
		}
	}()

	respond(w, http.StatusAccepted, runAccepted{Accepted: true, RequestID: id})
}
