package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"jobalert-engine/internal/pipeline"
	"jobalert-engine/internal/store"
)

// Problem is the error body of every non-2xx response.
type Problem struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type problemBody struct {
	Error Problem `json:"error"`
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

func problem(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	respond(w, status, problemBody{Error: Problem{
		Code:      code,
		Message:   msg,
		RequestID: requestID(r.Context()),
	}})
}

// runProblem maps a run start error onto a status and code.
func runProblem(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		return http.StatusConflict, "run_in_progress"
	case errors.Is(err, store.ErrLeaseHeld):
		return http.StatusConflict, "store_locked"
	default:
		return http.StatusInternalServerError, "run_failed"
	}
}

// only restricts a handler to the given methods.
func only(h http.HandlerFunc, methods ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				h(w, r)
				return
			}
		}
		problem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported on "+r.URL.Path)
	}
}
