package stateful

import (
	"fmt"
	"sync"
	"testing"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pet(t *testing.T, text string) *value.JSONObjectValue {
	t.Helper()
	obj, err := value.ParseJSONObject(text)
	require.NoError(t, err)
	return obj
}

func TestStubCache_ConcurrentAdds(t *testing.T) {
	cache := NewStubCache()
	const writers = 10

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := pet(t, fmt.Sprintf(`{"id": %d, "name": "pet-%d"}`, i, i))
			cache.AddResponse("/pets", body, DefaultIDKey, fmt.Sprint(i))
		}(i)
	}
	wg.Wait()

	require.Equal(t, writers, cache.Len())
	for i := range writers {
		got, found := cache.FindResponseFor("/pets", DefaultIDKey, fmt.Sprint(i))
		require.True(t, found, "id %d", i)
		assert.Equal(t, fmt.Sprintf(`{"id":%d,"name":"pet-%d"}`, i, i), got.Body.StringLiteral())
	}
}

func TestStubCache_ConcurrentSameID(t *testing.T) {
	cache := NewStubCache()
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache.AddResponse("/pets", pet(t, fmt.Sprintf(`{"id": 1, "writer": %d}`, i)), DefaultIDKey, "1")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestStubCache_AddKeepsFirst(t *testing.T) {
	cache := NewStubCache()
	cache.AddResponse("/pets", pet(t, `{"id": 1, "name": "rex"}`), DefaultIDKey, "1")
	cache.AddResponse("/pets", pet(t, `{"id": 1, "name": "max"}`), DefaultIDKey, "1")
	cache.AddResponse("/owners", pet(t, `{"id": 1, "name": "ann"}`), DefaultIDKey, "1")

	assert.Equal(t, 2, cache.Len())
	got, found := cache.FindResponseFor("/pets", DefaultIDKey, "1")
	require.True(t, found)
	name, _ := got.Body.Get("name")
	assert.Equal(t, "rex", name.StringLiteral())
}

func TestStubCache_UpdateAndDelete(t *testing.T) {
	cache := NewStubCache()
	cache.AddResponse("/pets", pet(t, `{"id": 1, "name": "rex"}`), DefaultIDKey, "1")

	cache.UpdateResponse("/pets", pet(t, `{"id": 1, "name": "max"}`), DefaultIDKey, "1")
	got, found := cache.FindResponseFor("/pets", DefaultIDKey, "1")
	require.True(t, found)
	name, _ := got.Body.Get("name")
	assert.Equal(t, "max", name.StringLiteral())
	assert.Equal(t, 1, cache.Len())

	cache.DeleteResponse("/pets", DefaultIDKey, "1")
	_, found = cache.FindResponseFor("/pets", DefaultIDKey, "1")
	assert.False(t, found)
	cache.DeleteResponse("/pets", DefaultIDKey, "1")
	assert.Equal(t, 0, cache.Len())
}

func TestStubCache_NestedIDKey(t *testing.T) {
	cache := NewStubCache()
	cache.AddResponse("/orders", pet(t, `{"order": {"ref": "A1"}, "total": 3}`), "order.ref", "A1")
	_, found := cache.FindResponseFor("/orders", "order.ref", "A1")
	assert.True(t, found)
}

func TestStubCache_FindAllResponsesFor(t *testing.T) {
	cache := NewStubCache()
	cache.AddResponse("/pets", pet(t, `{"id": 1, "name": "rex", "type": "dog"}`), DefaultIDKey, "1")
	cache.AddResponse("/pets", pet(t, `{"id": 2, "name": "tom", "type": "cat"}`), DefaultIDKey, "2")
	cache.AddResponse("/pets", pet(t, `{"id": 3, "name": "fin"}`), DefaultIDKey, "3")
	cache.AddResponse("/owners", pet(t, `{"id": 4, "type": "dog"}`), DefaultIDKey, "4")

	tests := []struct {
		name      string
		selection []string
		filter    map[string]string
		want      string
	}{
		{"everything", nil, nil, `[{"id":1,"name":"rex","type":"dog"},{"id":2,"name":"tom","type":"cat"},{"id":3,"name":"fin"}]`},
		{"filter skips records without the key", nil, map[string]string{"type": "dog"}, `[{"id":1,"name":"rex","type":"dog"},{"id":3,"name":"fin"}]`},
		{"selected attributes", []string{"id", "name"}, map[string]string{"type": "cat"}, `[{"id":2,"name":"tom"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cache.FindAllResponsesFor("/pets", tt.selection, tt.filter)
			assert.Equal(t, tt.want, got.StringLiteral())
		})
	}
}

func TestStubCache_AddAcceptedResponse(t *testing.T) {
	cache := NewStubCache()
	req := contract.HTTPRequest{
		Method:  "POST",
		Path:    "/reports",
		Headers: map[string]string{"X-Tenant": "1"},
		Body:    pet(t, `{"kind": "sales"}`),
	}
	resp := contract.HTTPResponse{Status: 202, Headers: map[string]string{"Location": "/reports/r1"}}
	final := pet(t, `{"id": "r1", "status": "done"}`)

	cache.AddAcceptedResponse("/reports", final, resp, req, DefaultIDKey, "r1")

	got, found := cache.FindResponseFor("/reports", DefaultIDKey, "r1")
	require.True(t, found)
	assert.Equal(t, []string{DefaultIDKey, RequestBodyKey, ResponseBodyKey, StatusCodeKey, MethodKey, RequestHeadersKey, ResponseHeadersKey}, got.Body.Keys())

	status, _ := got.Body.Get(StatusCodeKey)
	assert.Equal(t, "202", status.StringLiteral())
	headers, _ := got.Body.Get(RequestHeadersKey)
	assert.Equal(t, `[{"name":"X-Tenant","value":"1"}]`, headers.StringLiteral())
	reqBody, _ := got.Body.Get(RequestBodyKey)
	assert.Equal(t, `{"kind":"sales"}`, reqBody.StringLiteral())
}
