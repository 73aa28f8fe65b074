package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"jobalert-engine/internal/events"
)

const keepAlive = 20 * time.Second

// EventsHandler streams run events as server-sent events named by type.
type EventsHandler struct {
	Hub *events.Hub
}

func (h EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		problem(w, r, http.StatusNotFound, "events_disabled", "event stream is only available in serve mode")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		problem(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.Hub.Subscribe()
	defer cancel()

	fmt.Fprint(w, "retry: 5000\n\n")
	if err := writeEvent(w, events.New("", events.TypeHello, nil)); err != nil {
		return
	}
	flusher.Flush()

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				log.Printf("[http] id=%s sse write: %v", requestID(r.Context()), err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e events.Event) error {
	b, err := e.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, b)
	return err
}
