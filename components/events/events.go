// components/events/events.go
//
// Event intake component.  The site posts one JSON event per resource
// change to POST /events; see internal/invalidate for the body.
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/yanizio/cleanurls/internal/component"
)

var _ component.Component = (*Comp)(nil)

type Comp struct {
	host component.Host
}

func init() { component.Register(&Comp{}) }

func (c *Comp) Name() string { return "events" }

func (c *Comp) Init(h component.Host) error {
	c.host = h
	return nil
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/events", c.host.Invalidator().Handler())
	return r
}
