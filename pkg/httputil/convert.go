package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/value"
)

// MaxBodySize bounds the request and response bodies read into memory.
const MaxBodySize = 10 << 20

// ErrBodyTooLarge is returned when a body exceeds MaxBodySize.
var ErrBodyTooLarge = errors.New("body too large")

func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

// RequestFrom converts an incoming request. Form and multipart bodies
// become form fields and parts; any other body is read with value.Parsed.
func RequestFrom(r *http.Request) (contract.HTTPRequest, error) {
	req := contract.HTTPRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: flattenHeaders(r.Header),
	}
	if q := r.URL.Query(); len(q) > 0 {
		req.QueryParams = q
	}
	if r.Body == nil {
		return req, nil
	}

	mediaType, params, _ := mime.ParseMediaType(r.Header.Get(contract.ContentTypeHeader))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		data, err := readBody(r.Body)
		if err != nil {
			return req, err
		}
		form, err := url.ParseQuery(string(data))
		if err != nil {
			return req, fmt.Errorf("invalid form body: %w", err)
		}
		req.FormFields = make(map[string]string, len(form))
		for k := range form {
			req.FormFields[k] = form.Get(k)
		}
	case "multipart/form-data":
		parts, err := readMultipart(multipart.NewReader(r.Body, params["boundary"]))
		if err != nil {
			return req, err
		}
		req.MultiPartFormData = parts
	default:
		data, err := readBody(r.Body)
		if err != nil {
			return req, err
		}
		if len(data) > 0 {
			req.Body = value.Parsed(string(data))
		}
	}
	return req, nil
}

func readMultipart(mr *multipart.Reader) ([]contract.MultiPartFormDataValue, error) {
	var out []contract.MultiPartFormDataValue
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		data, err := readBody(part)
		if err != nil {
			return nil, err
		}
		if part.FileName() != "" {
			out = append(out, contract.MultiPartFileValue{
				Name:            part.FormName(),
				Filename:        part.FileName(),
				ContentType:     part.Header.Get(contract.ContentTypeHeader),
				ContentEncoding: part.Header.Get("Content-Encoding"),
				Content:         data,
			})
			continue
		}
		out = append(out, contract.MultiPartContentValue{
			Name:        part.FormName(),
			Content:     value.Parsed(string(data)),
			ContentType: part.Header.Get(contract.ContentTypeHeader),
		})
	}
}

// WriteResponse writes resp to w. A JSON body without a Content-Type gets
// application/json.
func WriteResponse(w http.ResponseWriter, resp contract.HTTPResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	body := ""
	if resp.Body != nil {
		body = resp.Body.StringLiteral()
		if _, ok := resp.Header(contract.ContentTypeHeader); !ok {
			if ct := contentTypeFor(resp.Body); ct != "" {
				w.Header().Set(contract.ContentTypeHeader, ct)
			}
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if body != "" {
		_, _ = io.WriteString(w, body)
	}
}

func contentTypeFor(v value.Value) string {
	switch v.(type) {
	case *value.JSONObjectValue, *value.JSONArrayValue:
		return "application/json"
	case *value.XMLNode:
		return "application/xml"
	case value.StringValue:
		return "text/plain"
	}
	return ""
}

// NewRequest builds the outgoing request for req against baseURL.
func NewRequest(ctx context.Context, baseURL string, req contract.HTTPRequest) (*http.Request, error) {
	target := strings.TrimSuffix(baseURL, "/") + req.URL()

	var body io.Reader
	contentType := ""
	switch {
	case len(req.MultiPartFormData) > 0:
		buf, ct, err := encodeMultipart(req.MultiPartFormData)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case len(req.FormFields) > 0:
		form := url.Values{}
		for k, v := range req.FormFields {
			form.Set(k, v)
		}
		body, contentType = strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
	case req.Body != nil && req.Body.StringLiteral() != "":
		body, contentType = strings.NewReader(req.Body.StringLiteral()), contentTypeFor(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	out, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		out.Header.Set(k, v)
	}
	if contentType != "" && out.Header.Get(contract.ContentTypeHeader) == "" {
		out.Header.Set(contract.ContentTypeHeader, contentType)
	}
	return out, nil
}

func encodeMultipart(parts []contract.MultiPartFormDataValue) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		switch part := p.(type) {
		case contract.MultiPartFileValue:
			fw, err := mw.CreateFormFile(part.Name, strings.TrimPrefix(part.Filename, "@"))
			if err != nil {
				return nil, "", err
			}
			if _, err := fw.Write(part.Content); err != nil {
				return nil, "", err
			}
		case contract.MultiPartContentValue:
			content := ""
			if part.Content != nil {
				content = part.Content.StringLiteral()
			}
			if err := mw.WriteField(part.Name, content); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// ResponseFrom reads resp and closes its body.
func ResponseFrom(resp *http.Response) (contract.HTTPResponse, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := readBody(resp.Body)
	if err != nil {
		return contract.HTTPResponse{}, err
	}
	out := contract.HTTPResponse{Status: resp.StatusCode, Headers: flattenHeaders(resp.Header)}
	if len(data) > 0 {
		out.Body = value.Parsed(string(data))
	}
	return out, nil
}
