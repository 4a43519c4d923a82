// Package contract holds the HTTP side of a contract: request and response
// patterns, scenarios built from them, and the feature that groups
// scenarios for test generation and stub routing.
package contract

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/getmockd/contractd/pkg/value"
)

// Header names the engine treats specially.
const (
	ContentTypeHeader = "Content-Type"
	SOAPActionHeader  = "SOAPAction"
	// ResultHeader lets a system under test flag a response as a failed
	// test regardless of its content.
	ResultHeader = "X-Contractd-Result"
)

// Breadcrumbs used at the top of HTTP failure paths.
const (
	RequestCrumb   = "REQUEST"
	ResponseCrumb  = "RESPONSE"
	PathCrumb      = "PATH"
	MethodCrumb    = "METHOD"
	HeadersCrumb   = "HEADERS"
	QueryCrumb     = "QUERY-PARAMS"
	BodyCrumb      = "BODY"
	MultipartCrumb = "MULTIPART-FORMDATA"
	StatusCrumb    = "STATUS"
	FactsCrumb     = "FACTS"
)

// DynamicHeaders vary from request to request and are never compared as
// fixed values.
var DynamicHeaders = []string{
	"Authorization",
	"User-Agent",
	"Cookie",
	"Referer",
	"Accept-Language",
	"Host",
	"If-Modified-Since",
	"If-None-Match",
	"Cache-Control",
	"Content-Length",
	"Range",
	"X-Forwarded-For",
	"Date",
	"Server",
	"Expires",
	"Last-Modified",
	"ETag",
	"Vary",
	"Access-Control-Allow-Credentials",
	"Access-Control-Max-Age",
	"Access-Control-Request-Headers",
	"Access-Control-Request-Method",
}

// WithoutDynamicHeaders returns a copy of headers without any of
// DynamicHeaders, compared case-insensitively.
func WithoutDynamicHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if slices.ContainsFunc(DynamicHeaders, func(d string) bool { return strings.EqualFold(d, k) }) {
			continue
		}
		out[k] = v
	}
	return out
}

// HTTPRequest is a request as the engine sees it, detached from any
// transport.
type HTTPRequest struct {
	Method            string
	Path              string
	Headers           map[string]string
	QueryParams       url.Values
	Body              value.Value
	FormFields        map[string]string
	MultiPartFormData []MultiPartFormDataValue
}

// BodyOrEmpty returns the body, or an empty string value when there is
// none.
func (r HTTPRequest) BodyOrEmpty() value.Value {
	if r.Body == nil {
		return value.StringValue("")
	}
	return r.Body
}

// Header looks up a header case-insensitively.
func (r HTTPRequest) Header(name string) (string, bool) {
	return lookupHeader(r.Headers, name)
}

// WithHeader returns a copy of r with the header set.
func (r HTTPRequest) WithHeader(name, val string) HTTPRequest {
	r.Headers = withHeader(r.Headers, name, val)
	return r
}

// URL renders the path and query string.
func (r HTTPRequest) URL() string {
	if len(r.QueryParams) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.QueryParams.Encode()
}

func (r HTTPRequest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.Method, r.URL())
	writeHeaders(&b, r.Headers)
	if r.Body != nil {
		if lit := r.Body.StringLiteral(); lit != "" {
			b.WriteString("\n\n")
			b.WriteString(r.Body.DisplayableValue())
		}
	}
	for _, part := range r.MultiPartFormData {
		b.WriteString("\n\n")
		b.WriteString(part.String())
	}
	return b.String()
}

// HTTPResponse is a response as the engine sees it.
type HTTPResponse struct {
	Status  int
	Headers map[string]string
	Body    value.Value
}

// BodyOrEmpty returns the body, or an empty string value when there is
// none.
func (r HTTPResponse) BodyOrEmpty() value.Value {
	if r.Body == nil {
		return value.StringValue("")
	}
	return r.Body
}

// Header looks up a header case-insensitively.
func (r HTTPResponse) Header(name string) (string, bool) {
	return lookupHeader(r.Headers, name)
}

// WithHeader returns a copy of r with the header set.
func (r HTTPResponse) WithHeader(name, val string) HTTPResponse {
	r.Headers = withHeader(r.Headers, name, val)
	return r
}

// Is4xx reports whether the status is a client error.
func (r HTTPResponse) Is4xx() bool { return r.Status >= 400 && r.Status < 500 }

func (r HTTPResponse) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", r.Status)
	writeHeaders(&b, r.Headers)
	if r.Body != nil && r.Body.StringLiteral() != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Body.DisplayableValue())
	}
	return b.String()
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func withHeader(headers map[string]string, name, val string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		if !strings.EqualFold(k, name) {
			out[k] = v
		}
	}
	out[name] = val
	return out
}

func writeHeaders(b *strings.Builder, headers map[string]string) {
	for _, k := range sortedKeys(headers) {
		fmt.Fprintf(b, "\n%s: %s", k, headers[k])
	}
}

// MultiPartFormDataValue is one part of a multipart/form-data body.
type MultiPartFormDataValue interface {
	PartName() string
	String() string
}

// MultiPartContentValue is an inline part.
type MultiPartContentValue struct {
	Name        string
	Content     value.Value
	ContentType string
}

func (v MultiPartContentValue) PartName() string { return v.Name }

func (v MultiPartContentValue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content-Disposition: form-data; name=%q", v.Name)
	if v.ContentType != "" {
		fmt.Fprintf(&b, "\nContent-Type: %s", v.ContentType)
	}
	if v.Content != nil {
		b.WriteString("\n\n")
		b.WriteString(v.Content.StringLiteral())
	}
	return b.String()
}

// MultiPartFileValue is a part that uploads a file.
type MultiPartFileValue struct {
	Name            string
	Filename        string
	ContentType     string
	ContentEncoding string
	Content         []byte
}

func (v MultiPartFileValue) PartName() string { return v.Name }

func (v MultiPartFileValue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content-Disposition: form-data; name=%q; filename=%q", v.Name, strings.TrimPrefix(v.Filename, "@"))
	if v.ContentType != "" {
		fmt.Fprintf(&b, "\nContent-Type: %s", v.ContentType)
	}
	if v.ContentEncoding != "" {
		fmt.Fprintf(&b, "\nContent-Encoding: %s", v.ContentEncoding)
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
