// Package history persists the interaction audit trail: one JSON record per
// line, append-only, never read back by the service.
package history

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/entities"
)

// Log appends interaction records to a JSONL file. Appends are serialized so
// concurrent requests cannot interleave partial lines.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog creates a log writing to path. The file is created on first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one record. A zero timestamp is filled with the current UTC
// time.
func (l *Log) Append(rec entities.Interaction) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return domain.Filesystemf("encode interaction record: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return domain.Filesystemf("open history log %s: %v", l.path, err)
	}
	_, werr := f.Write(append(line, '\n'))
	cerr := f.Close()
	if werr != nil {
		return domain.Filesystemf("append history log %s: %v", l.path, werr)
	}
	if cerr != nil {
		return domain.Filesystemf("close history log %s: %v", l.path, cerr)
	}
	return nil
}
