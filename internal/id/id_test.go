package id

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_ParsesAsVersion4(t *testing.T) {
	u, err := uuid.Parse(UUID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), u.Version())
}

func TestUUID_Concurrent(t *testing.T) {
	const n = 100
	var mu sync.Mutex
	seen := make(map[string]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := UUID()
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestShort(t *testing.T) {
	s := Short()
	assert.Len(t, s, 16)
	assert.Regexp(t, `^[0-9a-f]{16}$`, s)
	assert.NotEqual(t, s, Short())
}

func TestAlphanumeric(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"typical", 12, 12},
		{"single", 1, 1},
		{"zero", 0, 0},
		{"negative", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Alphanumeric(tt.length)
			assert.Len(t, s, tt.want)
			if tt.want > 0 {
				assert.Regexp(t, `^[a-zA-Z0-9]+$`, s)
			}
		})
	}
}
