package core

import (
	"fmt"
	"strings"
)

// HTTPMethod is one of the request methods a collection can store.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodPatch   HTTPMethod = "PATCH"
	MethodDelete  HTTPMethod = "DELETE"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
)

// Methods lists every supported method in canonical order.
var Methods = []HTTPMethod{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodHead,
	MethodOptions,
}

// ParseMethod converts s to an HTTPMethod, ignoring case.
func ParseMethod(s string) (HTTPMethod, error) {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", &ValidationError{Kind: ErrInvalidMethod, Detail: s}
}

func (m HTTPMethod) String() string { return string(m) }

// Request is a single named HTTP request definition.
// An empty Body means the request has no body.
type Request struct {
	Name    string
	Method  HTTPMethod
	URL     string
	Headers map[string]string
	Body    string
}

// NewRequest creates a GET request with no headers.
func NewRequest(name, url string) Request {
	return Request{
		Name:    name,
		Method:  MethodGet,
		URL:     url,
		Headers: make(map[string]string),
	}
}

// WithMethod returns a copy of r using method.
func (r Request) WithMethod(method HTTPMethod) Request {
	c := r.Clone()
	c.Method = method
	return c
}

// WithHeader returns a copy of r with the header set.
func (r Request) WithHeader(key, value string) Request {
	c := r.Clone()
	c.Headers[key] = value
	return c
}

// WithBody returns a copy of r with body set.
func (r Request) WithBody(body string) Request {
	c := r.Clone()
	c.Body = body
	return c
}

// WithName returns a copy of r renamed to name.
func (r Request) WithName(name string) Request {
	c := r.Clone()
	c.Name = name
	return c
}

// HasBody reports whether the request carries a body.
func (r Request) HasBody() bool {
	return r.Body != ""
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	r.Headers = headers
	return r
}

// Validate checks that the request has a name and an absolute http(s) URL
// with a host part.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Kind: ErrEmptyField, Field: "name"}
	}

	if strings.TrimSpace(r.URL) == "" {
		return &ValidationError{Kind: ErrEmptyField, Field: "url"}
	}

	var rest string
	switch {
	case strings.HasPrefix(r.URL, "http://"):
		rest = strings.TrimPrefix(r.URL, "http://")
	case strings.HasPrefix(r.URL, "https://"):
		rest = strings.TrimPrefix(r.URL, "https://")
	default:
		return &ValidationError{
			Kind:   ErrInvalidURL,
			Field:  "url",
			Detail: "URL must start with http:// or https://: " + r.URL,
		}
	}

	if rest == "" || rest == "/" {
		return &ValidationError{
			Kind:   ErrInvalidURL,
			Field:  "url",
			Detail: "URL must contain a domain: " + r.URL,
		}
	}

	return nil
}

func (r Request) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)", r.Method, r.URL, r.Name)
	if len(r.Headers) > 0 {
		fmt.Fprintf(&b, " with %d header(s)", len(r.Headers))
	}
	if r.HasBody() {
		b.WriteString(" with body")
	}
	return b.String()
}
