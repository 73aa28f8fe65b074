package httpapi

import (
	"net/http"
	"time"

	"jobalert-engine/internal/events"
)

type HealthHandler struct {
	Started time.Time
	Hub     *events.Hub
}

type health struct {
	OK          bool   `json:"ok"`
	Uptime      string `json:"uptime"`
	Subscribers int    `json:"subscribers"`
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := health{OK: true, Uptime: time.Since(h.Started).Round(time.Second).String()}
	if h.Hub != nil {
		out.Subscribers = h.Hub.Subscribers()
	}
	respond(w, http.StatusOK, out)
}
