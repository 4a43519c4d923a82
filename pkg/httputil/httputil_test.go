package httputil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/value"
)

func TestRequestFrom(t *testing.T) {
	t.Parallel()

	t.Run("json body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/pets?tag=a&tag=b", strings.NewReader(`{"name":"Rex"}`))
		r.Header.Set("Content-Type", "application/json")

		req, err := RequestFrom(r)
		require.NoError(t, err)
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "/pets", req.Path)
		assert.Equal(t, []string{"a", "b"}, req.QueryParams["tag"])
		assert.Equal(t, `{"name":"Rex"}`, req.Body.StringLiteral())
		ct, _ := req.Header("content-type")
		assert.Equal(t, "application/json", ct)
	})

	t.Run("form body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("user=ann&pin=12"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		req, err := RequestFrom(r)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"user": "ann", "pin": "12"}, req.FormFields)
		assert.Nil(t, req.Body)
	})

	t.Run("multipart body", func(t *testing.T) {
		t.Parallel()
		buf, ct, err := encodeMultipart([]contract.MultiPartFormDataValue{
			contract.MultiPartContentValue{Name: "meta", Content: value.StringValue("hello")},
			contract.MultiPartFileValue{Name: "upload", Filename: "@pets.csv", Content: []byte("a,b")},
		})
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodPost, "/upload", buf)
		r.Header.Set("Content-Type", ct)

		req, err := RequestFrom(r)
		require.NoError(t, err)
		require.Len(t, req.MultiPartFormData, 2)
		assert.Equal(t, "meta", req.MultiPartFormData[0].PartName())
		file, ok := req.MultiPartFormData[1].(contract.MultiPartFileValue)
		require.True(t, ok)
		assert.Equal(t, "pets.csv", file.Filename)
		assert.Equal(t, []byte("a,b"), file.Content)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", MaxBodySize+1)))
		_, err := RequestFrom(r)
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}

func TestWriteResponse(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	body, err := value.ParseJSON(`{"id": 10}`)
	require.NoError(t, err)

	WriteResponse(rec, contract.HTTPResponse{Status: 201, Headers: map[string]string{"X-Trace": "t1"}, Body: body})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "t1", rec.Header().Get("X-Trace"))
	assert.JSONEq(t, `{"id": 10}`, rec.Body.String())
}

func TestNewRequest(t *testing.T) {
	t.Parallel()
	body, err := value.ParseJSON(`{"name":"Rex"}`)
	require.NoError(t, err)

	req, err := NewRequest(context.Background(), "http://svc.local/api/", contract.HTTPRequest{
		Method:  "PUT",
		Path:    "/pets/1",
		Headers: map[string]string{"X-Tenant": "7"},
		Body:    body,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://svc.local/api/pets/1", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "7", req.Header.Get("X-Tenant"))
	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Rex"}`, string(data))
}

func petFeature() *contract.Feature {
	return contract.NewFeature("pets", contract.Scenario{
		Name:     "get pet",
		Request:  &contract.HTTPRequestPattern{Method: "GET", Path: contract.MustHTTPPathPattern("/pets/(id:number)")},
		Response: &contract.HTTPResponsePattern{Status: 200, Body: pattern.MustParsePattern(`{"id": "(number)", "name": "(string)"}`)},
	})
}

func TestFeatureHandler(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(FeatureHandler(petFeature(), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pets/3")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "name")

	miss, err := http.Get(srv.URL + "/owners")
	require.NoError(t, err)
	defer miss.Body.Close()
	assert.Equal(t, http.StatusBadRequest, miss.StatusCode)
}

func TestExecutor(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var state map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+DefaultStatePath, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewDecoder(r.Body).Decode(&state)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("/", FeatureHandler(petFeature(), nil))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewExecutor(srv.URL)
	ex.Headers = map[string]string{"X-Tenant": "7"}

	res := petFeature().ExecuteTests(context.Background(), ex, nil)
	assert.True(t, res.Success(), res.Report())

	require.NoError(t, ex.SetServerState(context.Background(), map[string]value.Value{"exists": value.BooleanValue(true)}))
	mu.Lock()
	assert.Equal(t, map[string]any{"exists": true}, state)
	mu.Unlock()

	bad := NewExecutor(srv.URL)
	bad.StatePath = "/missing-state"
	assert.Error(t, bad.SetServerState(context.Background(), map[string]value.Value{"x": value.Null}))
}
