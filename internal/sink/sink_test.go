package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/deploymenttheory/batchhttp/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkEmitWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	err := s.Emit(manifest.ResponseRecord{ID: "r1", Status: 200, Body: "hi"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "r1", decoded["id"])
	assert.Equal(t, float64(200), decoded["status"])
}

func TestFileSinkEmitErrorOmitsBodyAndHeaders(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	require.NoError(t, s.EmitError("bad-line", "malformed json"))
	require.NoError(t, s.Close())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "bad-line", decoded["id"])
	assert.Equal(t, "malformed json", decoded["error"])
	_, hasBody := decoded["body"]
	assert.False(t, hasBody)
	_, hasHeaders := decoded["headers"]
	assert.False(t, hasHeaders)
}

func TestFileSinkConcurrentEmitsNeverInterleave(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	var wg sync.WaitGroup
	const n = 100
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Emit(manifest.ResponseRecord{ID: "r", Status: 200, Body: strings.Repeat("x", 50)})
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	scanner := bufio.NewScanner(&buf)
	count := 0
	for scanner.Scan() {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
		count++
	}
	assert.Equal(t, n, count)
}
