package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/logging"
	"github.com/getmockd/contractd/pkg/util"
	"github.com/getmockd/contractd/pkg/value"
)

// DefaultStatePath is where Executor posts the server state a scenario
// expects.
const DefaultStatePath = "/_contractd/state"

// Executor runs contract tests against a live HTTP service.
type Executor struct {
	BaseURL   string
	StatePath string
	Client    *http.Client
	Headers   map[string]string
	Logger    *slog.Logger
}

// NewExecutor returns an executor for baseURL with a 30 second timeout.
func NewExecutor(baseURL string) *Executor {
	return &Executor{
		BaseURL:   baseURL,
		StatePath: DefaultStatePath,
		Client:    &http.Client{Timeout: 30 * time.Second},
		Logger:    logging.Nop(),
	}
}

var _ contract.TestExecutor = (*Executor)(nil)

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger
}

// Execute sends req and returns the service's response.
func (e *Executor) Execute(ctx context.Context, req contract.HTTPRequest) (contract.HTTPResponse, error) {
	for k, v := range e.Headers {
		if _, set := req.Header(k); !set {
			req = req.WithHeader(k, v)
		}
	}
	httpReq, err := NewRequest(ctx, e.BaseURL, req)
	if err != nil {
		return contract.HTTPResponse{}, err
	}

	start := time.Now()
	resp, err := e.Client.Do(httpReq)
	if err != nil {
		return contract.HTTPResponse{}, err
	}
	out, err := ResponseFrom(resp)
	if err != nil {
		return contract.HTTPResponse{}, err
	}
	e.logger().Debug("executed",
		"method", req.Method,
		"url", req.URL(),
		"status", out.Status,
		"duration", time.Since(start),
		"body", util.TruncateBody(out.BodyOrEmpty().StringLiteral(), 0),
	)
	return out, nil
}

// SetServerState posts facts as a JSON object to StatePath. Nothing is sent
// when there are no facts.
func (e *Executor) SetServerState(ctx context.Context, facts map[string]value.Value) error {
	if len(facts) == 0 || e.StatePath == "" {
		return nil
	}
	native := make(map[string]any, len(facts))
	for k, v := range facts {
		native[k] = v.Native()
	}
	data, err := json.Marshal(native)
	if err != nil {
		return fmt.Errorf("encoding server state: %w", err)
	}
	target := strings.TrimSuffix(e.BaseURL, "/") + e.StatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set(contract.ContentTypeHeader, "application/json")
	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("setting server state: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("setting server state: %s returned %d", target, resp.StatusCode)
	}
	return nil
}
