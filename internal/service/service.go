// Package service hosts named services behind one shared dispatch pipeline.
//
// A service implements Service and, optionally, Initializer, Coster and
// DirectWriter. The Hub negotiates the response format, answers help
// requests, checks readiness and quota, runs the service and renders exactly
// one OK, HELP or ERROR envelope as XML or JSON. In direct mode the service
// writes the response itself.
package service

import (
	"net/http"

	"xjsf/internal/models"
	"xjsf/internal/param"

	"go.uber.org/atomic"
)

// Response formats
const (
	FormatXML    = "xml"
	FormatJSON   = "json"
	FormatDirect = "direct"
)

// Parameters every service accepts.
var (
	FormatParam = param.Choice("responseFormat",
		"Response format. Unknown values fall back to xml.", FormatXML,
		param.Value{Name: FormatXML, Description: "structured XML envelope"},
		param.Value{Name: FormatJSON, Description: "structured JSON envelope"},
		param.Value{Name: FormatDirect, Description: "service-specific output, when supported"},
	)
	HelpParam = param.Bool("help", "Describe the service instead of running it.", false)
)

// Service is the business logic behind one service name.
type Service interface {
	Descriptor() *Descriptor
	// Respond runs the service for a structured response. The returned
	// payload is stamped and rendered by the hub.
	Respond(r *http.Request) (models.Payload, error)
}

// Initializer is implemented by services that need warm-up time. Requests
// are refused while InitProgress is below 1.
type Initializer interface {
	InitProgress() float64
}

// Coster is implemented by services whose requests do not cost 1 unit.
// A cost of 0 skips client resolution and quota entirely.
type Coster interface {
	UsageCost(r *http.Request) int
}

// DirectWriter is implemented by services that support direct output. The
// service owns the status, content type and body.
type DirectWriter interface {
	ServeDirect(w http.ResponseWriter, r *http.Request) error
}

// Progress tracks initialisation. Embed it to implement Initializer.
type Progress struct {
	v atomic.Float64
}

// Set records progress, clamped to [0, 1].
func (p *Progress) Set(f float64) {
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	p.v.Store(f)
}

func (p *Progress) Done() { p.v.Store(1) }

func (p *Progress) InitProgress() float64 { return p.v.Load() }

// Ready marks p complete and returns it, for services with nothing to load.
func Ready() *Progress {
	p := &Progress{}
	p.Done()
	return p
}
