package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/logging"
	"github.com/getmockd/contractd/pkg/util"
	"github.com/getmockd/contractd/pkg/value"
)

// ServeFunc answers one contract request.
type ServeFunc func(contract.HTTPRequest) contract.HTTPResponse

// Handler serves fn over HTTP.
func Handler(fn ServeFunc, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, err := RequestFrom(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, ErrBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			logger.Warn("unreadable request", append([]any{"method", r.Method, "path", r.URL.Path}, logging.ErrorAttrs(err)...)...)
			WriteError(w, status, "bad_request", err.Error())
			return
		}
		resp := fn(req)
		WriteResponse(w, resp)
		logger.Debug("served",
			"method", req.Method,
			"path", req.Path,
			"status", resp.Status,
			"duration", time.Since(start),
			"body", util.TruncateBody(resp.BodyOrEmpty().StringLiteral(), 0),
		)
	})
}

// FeatureHandler serves the responses the feature's scenarios generate.
// Requests no scenario accepts get a 400 with the match report.
func FeatureHandler(f *contract.Feature, logger *slog.Logger) http.Handler {
	return Handler(func(req contract.HTTPRequest) contract.HTTPResponse {
		stub, err := f.LookupResponse(req)
		if err == nil {
			return stub.Response
		}
		return errorResponse(err)
	}, logger)
}

func errorResponse(err error) contract.HTTPResponse {
	var nm *contract.NoMatchError
	if errors.As(err, &nm) {
		return jsonResponse(http.StatusBadRequest, map[string]any{
			"error":   "no_match",
			"message": nm.Error(),
			"details": nm.Failures.Report(),
		})
	}
	return jsonResponse(http.StatusInternalServerError, map[string]any{
		"error":   "internal",
		"message": err.Error(),
	})
}

func jsonResponse(status int, body map[string]any) contract.HTTPResponse {
	data, _ := json.Marshal(body)
	return contract.HTTPResponse{
		Status:  status,
		Headers: map[string]string{contract.ContentTypeHeader: "application/json"},
		Body:    value.Parsed(string(data)),
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response with an error code and a
// human-readable message.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}
