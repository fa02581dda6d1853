package registry

import (
	"github.com/cascadehq/cascade/pkg/automation/httprequest"
	"github.com/cascadehq/cascade/pkg/automation/log"
)

// RegisterDefaultHandlers registers all built-in automation handlers.
func (r *Registry) RegisterDefaultHandlers() {
	r.RegisterHandler(log.NewFactory())
	r.RegisterHandler(httprequest.NewFactory())
}
