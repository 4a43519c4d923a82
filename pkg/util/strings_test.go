package util

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		maxSize int
		want    string
	}{
		{"short body", "hello", 10, "hello"},
		{"exact size", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello...(truncated)"},
		{"keeps runes whole", "héllo", 2, "h...(truncated)"},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TruncateBody(tt.input, tt.maxSize))
		})
	}
}

func TestTruncateBody_DefaultMaxSize(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", MaxLogBodySize+1)
	got := TruncateBody(long, 0)
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Len(t, got, MaxLogBodySize+len("...(truncated)"))
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("config", "examples"), ResolvePath(filepath.Join("config", "contractd.yaml"), "examples"))
	assert.Equal(t, "/abs/examples", ResolvePath("config/contractd.yaml", "/abs/examples/"))
	assert.Equal(t, "examples", ResolvePath("contractd.yaml", "examples"))
}
