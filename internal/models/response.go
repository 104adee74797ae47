// Package models - Response envelopes and transport error bodies.
// This file defines the structured bodies returned by hosted services and the
// JSON bodies used for transport-level failures outside the dispatch pipeline.
//
// Response Design Principles:
// - Every service envelope carries the service name and the echoed request
// - One Go type per message kind, tagged for both XML and JSON
// - Conditions raised by the pipeline travel in-band with HTTP 200
// - Transport-level failures use ErrorResponse with a real HTTP status
package models

import (
	"encoding/json"
	"encoding/xml"
	"net/url"
	"slices"
	"time"
)

// Envelope status values
const (
	EnvelopeOK    = "ok"
	EnvelopeHelp  = "help"
	EnvelopeError = "error"
)

// Payload is anything a service can return from its structured handler.
// Implementations embed Envelope.
type Payload interface {
	Stamp(status, service string, request RequestParams)
}

// Envelope is the frame shared by every structured response. The XML root
// element name follows the status ("response", "help" or "error").
type Envelope struct {
	XMLName xml.Name      `json:"-"`
	Status  string        `xml:"status,attr" json:"status"`
	Service string        `xml:"service,attr" json:"service"`
	Request RequestParams `xml:"request" json:"request"`
}

func (e *Envelope) Stamp(status, service string, request RequestParams) {
	root := "response"
	if status != EnvelopeOK {
		root = status
	}
	e.XMLName = xml.Name{Local: root}
	e.Status = status
	e.Service = service
	e.Request = request
}

// Result is a convenience payload for services whose answer is a single value.
type Result struct {
	Envelope
	Value string `xml:"value" json:"value"`
}

// RequestParams echoes the request's input parameters. XML renders one
// <param name="..."> element per value; JSON renders an object whose values
// are strings, or arrays of strings for repeated parameters.
type RequestParams struct {
	Params []RequestParam `xml:"param"`
}

type RequestParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// NewRequestParams flattens form values in name order.
func NewRequestParams(values url.Values) RequestParams {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	var params []RequestParam
	for _, name := range names {
		for _, v := range values[name] {
			params = append(params, RequestParam{Name: name, Value: v})
		}
	}
	return RequestParams{Params: params}
}

// Get returns the first value for name.
func (p RequestParams) Get(name string) string {
	for _, param := range p.Params {
		if param.Name == name {
			return param.Value
		}
	}
	return ""
}

func (p RequestParams) Values() url.Values {
	values := url.Values{}
	for _, param := range p.Params {
		values.Add(param.Name, param.Value)
	}
	return values
}

func (p RequestParams) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	for name, vs := range p.Values() {
		if len(vs) == 1 {
			out[name] = vs[0]
		} else {
			out[name] = vs
		}
	}
	return json.Marshal(out)
}

func (p *RequestParams) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	values := url.Values{}
	for name, msg := range raw {
		var single string
		if err := json.Unmarshal(msg, &single); err == nil {
			values.Add(name, single)
			continue
		}
		var many []string
		if err := json.Unmarshal(msg, &many); err != nil {
			return err
		}
		values[name] = many
	}
	*p = NewRequestParams(values)
	return nil
}

// ErrorMessage is the ERROR envelope. Code is one of the ErrorCode* constants.
type ErrorMessage struct {
	Envelope
	Error     string   `xml:"message" json:"error"`
	Code      string   `xml:"code,attr" json:"code"`
	Parameter string   `xml:"parameter,attr,omitempty" json:"parameter,omitempty"`
	Progress  *float64 `xml:"progress,attr,omitempty" json:"progress,omitempty"`
	Trace     string   `xml:"trace,omitempty" json:"trace,omitempty"`
}

// HelpMessage is the HELP envelope.
type HelpMessage struct {
	Envelope
	Description ServiceDescription `xml:"description" json:"description"`
}

// ServiceDescription is the machine-readable help for one service.
type ServiceDescription struct {
	Name             string                 `xml:"name,attr" json:"name"`
	Group            string                 `xml:"group,attr" json:"group"`
	Direct           bool                   `xml:"direct,attr" json:"direct"`
	Summary          string                 `xml:"summary" json:"summary"`
	Details          string                 `xml:"details,omitempty" json:"details,omitempty"`
	BaseParameters   []ParameterDescription `xml:"baseParameters>parameter" json:"base_parameters"`
	GlobalParameters []ParameterDescription `xml:"globalParameters>parameter,omitempty" json:"global_parameters,omitempty"`
	Groups           []GroupDescription     `xml:"parameterGroups>group,omitempty" json:"parameter_groups,omitempty"`
	Examples         []ExampleDescription   `xml:"examples>example,omitempty" json:"examples,omitempty"`
}

type ParameterDescription struct {
	Name        string             `xml:"name,attr" json:"name"`
	Type        string             `xml:"type,attr" json:"type"`
	Default     string             `xml:"default,attr,omitempty" json:"default,omitempty"`
	Description string             `xml:"description" json:"description"`
	Values      []ValueDescription `xml:"values>value,omitempty" json:"values,omitempty"`
}

type ValueDescription struct {
	Name        string `xml:"name,attr" json:"name"`
	Description string `xml:",chardata" json:"description,omitempty"`
}

type GroupDescription struct {
	Name        string                 `xml:"name,attr" json:"name"`
	Description string                 `xml:"description" json:"description"`
	Parameters  []ParameterDescription `xml:"parameter" json:"parameters"`
}

type ExampleDescription struct {
	Description string        `xml:"description" json:"description"`
	URL         string        `xml:"url" json:"url"`
	Request     RequestParams `xml:"request" json:"request"`
}

// ErrorResponse is the JSON body for failures the pipeline never sees:
// burst-guard rejections, recovered middleware panics, unknown routes.
type ErrorResponse struct {
	Error     string            `json:"error"`                // Error type (always "error")
	Message   string            `json:"message"`              // Human-readable error description
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Extra context
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
	StatusUnknown   = "unknown"   // Status indeterminate
)

// Error Codes
//
// The first group travels in-band inside ErrorMessage envelopes; the second
// is used by transport-level ErrorResponse bodies.
const (
	ErrorCodeNotReady          = "NOT_READY"          // service still initialising
	ErrorCodeQuotaExceeded     = "QUOTA_EXCEEDED"     // client usage limit reached
	ErrorCodeInvalidParameter  = "INVALID_PARAMETER"  // unparseable request argument
	ErrorCodeUnknownClient     = "UNKNOWN_CLIENT"     // claimed identity could not be verified
	ErrorCodeFault             = "FAULT"              // anything else
	ErrorCodeUnsupportedFormat = "UNSUPPORTED_FORMAT" // direct output requested but not offered
	ErrorCodeUnknownService    = "UNKNOWN_SERVICE"    // no service registered under the name

	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Route doesn't exist
	ErrorCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"  // 405: Route exists for other methods
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED" // 429: Burst guard rejected the request
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// NewErrorMessage builds an unstamped ERROR envelope.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Error: message}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
