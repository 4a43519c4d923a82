package stateful

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/value"
)

// Keys of an accepted-response record.
const (
	DefaultIDKey       = "id"
	RequestBodyKey     = "requestBody"
	ResponseBodyKey    = "responseBody"
	StatusCodeKey      = "statusCode"
	MethodKey          = "method"
	RequestHeadersKey  = "requestHeaders"
	ResponseHeadersKey = "responseHeaders"
)

// CachedResponse is one stored resource.
type CachedResponse struct {
	Path string
	Body *value.JSONObjectValue
}

// StubCache holds stored resources in insertion order.
type StubCache struct {
	mu        sync.Mutex
	responses []CachedResponse
}

// NewStubCache returns an empty cache.
func NewStubCache() *StubCache {
	return &StubCache{}
}

// IDValueFor returns the string form of the value at idKey in body, or ""
// when there is none.
func IDValueFor(idKey string, body *value.JSONObjectValue) string {
	v, ok := body.FindFirstChildByPath(idKey)
	if !ok {
		return ""
	}
	return v.StringLiteral()
}

// AddResponse stores body under path unless a resource with the same id is
// already stored there.
func (c *StubCache) AddResponse(path string, body *value.JSONObjectValue, idKey, idValue string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(path, body, idKey, idValue)
}

func (c *StubCache) add(path string, body *value.JSONObjectValue, idKey, idValue string) {
	if _, found := c.find(path, idKey, idValue); found {
		return
	}
	c.responses = append(c.responses, CachedResponse{Path: path, Body: body})
}

// AddAcceptedResponse stores the record of an asynchronous (202) exchange:
// the final body's id alongside the request and response that produced it.
func (c *StubCache) AddAcceptedResponse(path string, finalBody *value.JSONObjectValue, resp contract.HTTPResponse, req contract.HTTPRequest, idKey, idValue string) {
	requestBody, ok := req.Body.(*value.JSONObjectValue)
	if !ok {
		requestBody = value.NewJSONObject()
	}
	responseID, found := finalBody.FindFirstChildByPath(DefaultIDKey)
	if !found {
		responseID = value.StringValue("")
	}
	record := value.NewJSONObject(
		value.Field{Key: DefaultIDKey, Value: responseID},
		value.Field{Key: RequestBodyKey, Value: requestBody},
		value.Field{Key: ResponseBodyKey, Value: finalBody},
		value.Field{Key: StatusCodeKey, Value: value.Parsed(strconv.Itoa(resp.Status))},
		value.Field{Key: MethodKey, Value: value.StringValue(req.Method)},
		value.Field{Key: RequestHeadersKey, Value: headersList(req.Headers)},
		value.Field{Key: ResponseHeadersKey, Value: headersList(resp.Headers)},
	)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(path, record, idKey, idValue)
}

// headersList renders headers as the JSON text of a [{name, value}] list.
func headersList(headers map[string]string) value.Value {
	type header struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	list := make([]header, 0, len(headers))
	for _, name := range sortedNames(headers) {
		list = append(list, header{Name: name, Value: headers[name]})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return value.StringValue("")
	}
	return value.Parsed(string(data))
}

// UpdateResponse replaces the resource with the given id.
func (c *StubCache) UpdateResponse(path string, body *value.JSONObjectValue, idKey, idValue string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(path, idKey, idValue)
	c.add(path, body, idKey, idValue)
}

// FindResponseFor returns the first resource under path whose idKey value
// is idValue.
func (c *StubCache) FindResponseFor(path, idKey, idValue string) (CachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, found := c.find(path, idKey, idValue)
	if !found {
		return CachedResponse{}, false
	}
	return c.responses[i], true
}

func (c *StubCache) find(path, idKey, idValue string) (int, bool) {
	for i, r := range c.responses {
		if r.Path == path && IDValueFor(idKey, r.Body) == idValue {
			return i, true
		}
	}
	return -1, false
}

// FindAllResponsesFor lists the resources under path that satisfy filter,
// each narrowed to attributeSelection when that is non-empty.
func (c *StubCache) FindAllResponsesFor(path string, attributeSelection []string, filter map[string]string) *value.JSONArrayValue {
	c.mu.Lock()
	defer c.mu.Unlock()

	var items []value.Value
	for _, r := range c.responses {
		if r.Path != path || !satisfiesFilter(r.Body, filter) {
			continue
		}
		items = append(items, selectAttributes(r.Body, attributeSelection))
	}
	return value.NewJSONArray(items...)
}

// DeleteResponse removes the resource with the given id, if stored.
func (c *StubCache) DeleteResponse(path, idKey, idValue string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(path, idKey, idValue)
}

func (c *StubCache) remove(path, idKey, idValue string) {
	if i, found := c.find(path, idKey, idValue); found {
		c.responses = append(c.responses[:i], c.responses[i+1:]...)
	}
}

// Len is the number of stored resources.
func (c *StubCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.responses)
}
