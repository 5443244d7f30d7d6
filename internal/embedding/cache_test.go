package embedding

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/adapters/voice"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGetOrCreateExtractsOnce(t *testing.T) {
	c := newTestCache(t)
	ex := &voice.MockExtractor{}

	path, err := c.GetOrCreate(context.Background(), "alice", "ref.wav", ex)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.True(t, c.Has("alice"))

	again, err := c.GetOrCreate(context.Background(), "alice", "other.wav", ex)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, ex.Calls(), "cached entry must not re-extract")
}

func TestGetOrCreateConcurrentCallersShareOneExtraction(t *testing.T) {
	c := newTestCache(t)
	ex := &voice.MockExtractor{}

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetOrCreate(context.Background(), "bob", "ref.wav", ex)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, ex.Calls(), 2, "concurrent misses must collapse")
	assert.True(t, c.Has("bob"))
}

func TestGetOrCreateFailureLeavesNoEntry(t *testing.T) {
	c := newTestCache(t)
	ex := &voice.MockExtractor{Err: errors.New("model crashed")}

	_, err := c.GetOrCreate(context.Background(), "carol", "ref.wav", ex)
	require.Error(t, err)
	assert.False(t, c.Has("carol"))

	// A later attempt with a healthy extractor succeeds.
	_, err = c.GetOrCreate(context.Background(), "carol", "ref.wav", &voice.MockExtractor{})
	require.NoError(t, err)
	assert.True(t, c.Has("carol"))
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := newTestCache(t)
	ex := &voice.MockExtractor{}

	path, err := c.Put(context.Background(), "dave", "first.wav", ex)
	require.NoError(t, err)
	require.True(t, c.Has("dave"))

	_, err = c.Put(context.Background(), "dave", "second.wav", ex)
	require.NoError(t, err)
	assert.Equal(t, 2, ex.Calls())
	assert.Equal(t, "second.wav", ex.LastRef())
	assert.FileExists(t, path)
}

func TestPutFailurePreservesPriorEntry(t *testing.T) {
	c := newTestCache(t)

	path, err := c.Put(context.Background(), "erin", "good.wav", &voice.MockExtractor{})
	require.NoError(t, err)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = c.Put(context.Background(), "erin", "bad.wav", &voice.MockExtractor{Err: errors.New("boom")})
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after, "failed re-extraction must not corrupt the entry")
}

func TestSafeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"user-42_a", "user-42_a"},
		{"../../etc/passwd", "______etc_passwd"},
		{"a b/c", "a_b_c"},
		{"", "_"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SafeID(tc.in), "input %q", tc.in)
	}
}
