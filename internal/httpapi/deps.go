package httpapi

import (
	"context"

	"jobalert-engine/internal/events"
	"jobalert-engine/internal/pipeline"
)

// RunController is the slice of *pipeline.Runner the API needs.
type RunController interface {
	Run(ctx context.Context) (pipeline.Report, error)
	Status() pipeline.Status
}

type Deps struct {
	Runner RunController
	Hub    *events.Hub

	// BaseContext bounds runs started over HTTP; cancelled on shutdown.
	BaseContext context.Context
}
