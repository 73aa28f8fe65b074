package scrape

import (
	"jobalert-engine/internal/scrape/generic"
	"jobalert-engine/internal/scrape/greenhouse"
	"jobalert-engine/internal/scrape/lever"
	"jobalert-engine/internal/scrape/parse"
	"jobalert-engine/internal/scrape/smartrecruiters"
)

// DefaultParsers registers one strategy per supported site kind.
func DefaultParsers() *parse.Registry {
	return parse.NewRegistry(
		generic.New(),
		greenhouse.New(),
		lever.New(),
		smartrecruiters.New(),
	)
}
