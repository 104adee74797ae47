package service

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"xjsf/internal/logger"
	"xjsf/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// exchange is the state of one dispatch.
type exchange struct {
	w       http.ResponseWriter
	r       *http.Request
	service string
	request models.RequestParams
	format  string
	outcome Outcome
}

// Dispatch runs the pipeline for the service registered under name.
//
// Every condition except a failure inside a direct-mode handler is
// answered in-band and Dispatch returns nil. A non-nil error means the
// direct handler failed; the response may already be partially written.
func (h *Hub) Dispatch(w http.ResponseWriter, r *http.Request, name string) error {
	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "service.dispatch",
		trace.WithAttributes(attribute.String("xjsf.service", name)))
	defer span.End()
	r = r.WithContext(ctx)

	// Every outcome, direct output included, may be read cross-origin.
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// A malformed body still leaves the query values in r.Form.
	formErr := r.ParseForm()

	ex := &exchange{
		w:       w,
		r:       r,
		service: name,
		request: models.NewRequestParams(r.Form),
		format:  negotiate(r),
	}
	ex.outcome = Outcome{Service: name, Format: ex.format}

	err := h.run(ex, formErr)

	ex.outcome.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("xjsf.format", ex.outcome.Format),
		attribute.String("xjsf.outcome", ex.outcome.Status),
	)
	if ex.outcome.Code != "" {
		span.SetAttributes(attribute.String("xjsf.error_code", ex.outcome.Code))
	}
	if ex.outcome.Code == models.ErrorCodeFault || err != nil {
		span.SetStatus(codes.Error, ex.outcome.Code)
	}
	if err != nil {
		span.RecordError(err)
	}
	if h.observer != nil {
		h.observer.ObserveDispatch(ctx, ex.outcome)
	}

	logger.FromContext(ctx).Debug("Dispatched request",
		"service", name,
		"format", ex.outcome.Format,
		"outcome", ex.outcome.Status,
		"code", ex.outcome.Code,
		"client", ex.outcome.Client,
		"duration", ex.outcome.Duration,
	)
	return err
}

func negotiate(r *http.Request) string {
	format, _ := FormatParam.Value(r.Form)
	return format
}

func (h *Hub) run(ex *exchange, formErr error) error {
	svc, ok := h.Service(ex.service)
	if !ok {
		return h.fail(ex, UnknownService(ex.service))
	}

	// An unparseable help flag is treated as absent.
	if help, _ := HelpParam.Value(ex.r.Form); help {
		msg := &models.HelpMessage{Description: Describe(svc)}
		msg.Stamp(models.EnvelopeHelp, ex.service, ex.request)
		ex.outcome.Status = models.EnvelopeHelp
		return h.render(ex, http.StatusOK, msg)
	}

	if formErr != nil {
		return h.fail(ex, Fault(fmt.Errorf("failed to parse request: %w", formErr)))
	}

	if err := protect(func() error { return h.admit(ex, svc) }); err != nil {
		return h.fail(ex, classify(err))
	}

	if ex.format == FormatDirect {
		dw, ok := svc.(DirectWriter)
		if !ok {
			return h.fail(ex, UnsupportedFormat(ex.service, FormatDirect))
		}
		ex.outcome.Status = FormatDirect
		if err := protect(func() error { return dw.ServeDirect(ex.w, ex.r) }); err != nil {
			ex.outcome.Code = models.ErrorCodeFault
			h.logFault(ex, err)
			return fmt.Errorf("direct output of %s failed: %w", ex.service, err)
		}
		return nil
	}

	var payload models.Payload
	err := protect(func() error {
		var err error
		payload, err = svc.Respond(ex.r)
		if err == nil && payload == nil {
			err = errors.New("service returned no payload")
		}
		return err
	})
	if err != nil {
		return h.fail(ex, classify(err))
	}

	payload.Stamp(models.EnvelopeOK, ex.service, ex.request)
	ex.outcome.Status = models.EnvelopeOK
	return h.render(ex, http.StatusOK, payload)
}

// admit checks readiness, then charges the caller.
func (h *Hub) admit(ex *exchange, svc Service) error {
	if init, ok := svc.(Initializer); ok {
		// NaN is not ready.
		if progress := init.InitProgress(); !(progress >= 1) {
			return NotReady(progress)
		}
	}

	cost := 1
	if c, ok := svc.(Coster); ok {
		cost = c.UsageCost(ex.r)
	}
	if cost <= 0 {
		return nil
	}

	client, err := h.resolver.Resolve(ex.r)
	if err != nil {
		if h.policy == models.RejectPolicySkip {
			logger.FromContext(ex.r.Context()).Warn("Serving unidentified client without quota",
				"service", ex.service, "error", err)
			return nil
		}
		return UnknownClient(err)
	}
	ex.outcome.Client = client.ID()

	if client.Consume(cost) {
		return QuotaExceeded()
	}
	return nil
}

// fail renders e as an ERROR envelope. Direct mode has no envelope of its
// own, so conditions raised before the handler runs are sent as XML.
func (h *Hub) fail(ex *exchange, e *Error) error {
	ex.outcome.Status = models.EnvelopeError
	ex.outcome.Code = e.Code
	if e.Code == models.ErrorCodeFault {
		h.logFault(ex, e)
	}

	msg := e.envelope(h.exposeTraces)
	msg.Stamp(models.EnvelopeError, ex.service, ex.request)
	return h.render(ex, e.Status(), msg)
}

func (h *Hub) logFault(ex *exchange, err error) {
	logger.FromContext(ex.r.Context()).Error("Service fault",
		"service", ex.service,
		"format", ex.format,
		"error", err,
	)
}

// render encodes p into a buffer first so an encoding failure can still be
// answered with a FAULT envelope.
func (h *Hub) render(ex *exchange, status int, p models.Payload) error {
	format := ex.format
	if format == FormatDirect {
		format = FormatXML
	}

	body, contentType, err := encode(format, p)
	if err != nil {
		ex.outcome.Status = models.EnvelopeError
		ex.outcome.Code = models.ErrorCodeFault
		h.logFault(ex, err)

		msg := Fault(fmt.Errorf("failed to render response: %w", err)).envelope(h.exposeTraces)
		msg.Stamp(models.EnvelopeError, ex.service, ex.request)
		if body, contentType, err = encode(format, msg); err != nil {
			return err
		}
		status = http.StatusOK
	}

	header := ex.w.Header()
	header.Set("Content-Type", contentType)
	ex.w.WriteHeader(status)
	if _, err := ex.w.Write(body); err != nil {
		logger.FromContext(ex.r.Context()).Debug("Client went away", "service", ex.service, "error", err)
	}
	return nil
}

func encode(format string, p any) ([]byte, string, error) {
	var buf bytes.Buffer
	if format == FormatJSON {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "application/json; charset=utf-8", nil
	}

	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, "", err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), "application/xml; charset=utf-8", nil
}

// protect runs fn, turning a panic into a *panicError. http.ErrAbortHandler
// is re-raised so the server can drop the connection.
func protect(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return fn()
}
