// Package caller calls services hosted by an xjsf server. Requests are sent
// as forms and answered in JSON.
package caller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xjsf/internal/version"
)

// ServiceError is an ERROR envelope, or a transport error body, returned
// by the server.
type ServiceError struct {
	Message    string
	Code       string
	Parameter  string
	StatusCode int
	Body       []byte
}

func (e *ServiceError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("%s (%s, parameter %s)", e.Message, e.Code, e.Parameter)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type Caller struct {
	baseURL   string
	client    *http.Client
	cookies   []*http.Cookie
	userAgent string
}

type Option func(*Caller)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Caller) { cl.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Caller) {
		client := *cl.client
		client.Timeout = d
		cl.client = &client
	}
}

// WithCookie sends c with every call, typically a credential cookie.
func WithCookie(c *http.Cookie) Option {
	return func(cl *Caller) { cl.cookies = append(cl.cookies, c) }
}

// New returns a caller for the services under baseURL, for example
// "http://localhost:8080/services".
func New(baseURL string, opts ...Option) *Caller {
	c := &Caller{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: version.GetInfo().UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope covers both the ERROR envelope and the transport ErrorResponse.
type envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Parameter string `json:"parameter"`
}

// Call invokes service with params and decodes the response into out, which
// may be nil. responseFormat is always json.
func (c *Caller) Call(ctx context.Context, service string, params url.Values, out any) error {
	form := url.Values{}
	for k, vs := range params {
		form[k] = append([]string(nil), vs...)
	}
	form.Set("responseFormat", "json")

	target := c.baseURL + "/" + url.PathEscape(service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", service, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &ServiceError{
				Message:    http.StatusText(resp.StatusCode),
				StatusCode: resp.StatusCode,
				Body:       body,
			}
		}
		return fmt.Errorf("failed to decode response from %s: %w", service, err)
	}
	if env.Error != "" {
		msg := env.Error
		if env.Message != "" {
			msg = env.Message
		}
		return &ServiceError{
			Message:    msg,
			Code:       env.Code,
			Parameter:  env.Parameter,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", service, err)
	}
	return nil
}
