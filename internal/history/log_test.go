package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbarbosa9/retone/domain/entities"
)

func TestAppendWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	log := NewLog(path)

	require.NoError(t, log.Append(entities.Interaction{
		Tone:   entities.TonePolite,
		Input:  "give me the report",
		Output: "Could you please share the report?",
	}))
	require.NoError(t, log.Append(entities.Interaction{
		Tone:  entities.ToneConcise,
		Input: "so basically what I wanted to say was",
	}))

	records := readAll(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, entities.TonePolite, records[0].Tone)
	assert.Equal(t, "give me the report", records[0].Input)
	assert.Equal(t, entities.ToneConcise, records[1].Tone)
	assert.Empty(t, records[1].Output)
}

func TestAppendFillsZeroTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	log := NewLog(path)

	before := time.Now().UTC()
	require.NoError(t, log.Append(entities.Interaction{Tone: entities.ToneConfident}))
	after := time.Now().UTC()

	records := readAll(t, path)
	require.Len(t, records, 1)
	ts := records[0].Timestamp
	assert.False(t, ts.Before(before), "timestamp %v precedes append", ts)
	assert.False(t, ts.After(after), "timestamp %v follows append", ts)
}

func TestAppendKeepsExplicitTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	log := NewLog(path)

	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, log.Append(entities.Interaction{Timestamp: stamp, Tone: entities.TonePolite}))

	records := readAll(t, path)
	require.Len(t, records, 1)
	assert.True(t, records[0].Timestamp.Equal(stamp))
}

func TestAppendConcurrentWritersDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	log := NewLog(path)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = log.Append(entities.Interaction{
				Tone:  entities.ToneConfident,
				Input: fmt.Sprintf("message %d", i),
			})
		}(i)
	}
	wg.Wait()

	records := readAll(t, path)
	assert.Len(t, records, writers)
}

func readAll(t *testing.T, path string) []entities.Interaction {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []entities.Interaction
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec entities.Interaction
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}
