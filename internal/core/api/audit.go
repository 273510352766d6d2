package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/solatis/rewritekeeper/internal/rules"
)

// AuditEntry is one line of the audit log.
type AuditEntry struct {
	Time      time.Time              `json:"time"`
	Query     string                 `json:"query"`
	Rewritten string                 `json:"rewritten"`
	Logging   *rules.RewriterLogging `json:"logging,omitempty"`
}

// AuditLog appends rewrite results to daily JSONL files under a directory.
// The log is a debugging aid: write failures are reported but never fail a
// rewrite.
type AuditLog struct {
	dir       string
	now       func() time.Time
	mutexes   map[string]*sync.Mutex
	mutexLock sync.Mutex
}

// NewAuditLog creates the audit directory under dataDir if not exists.
func NewAuditLog(dataDir string) (*AuditLog, error) {
	dir := filepath.Join(dataDir, "audit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &AuditLog{
		dir:     dir,
		now:     time.Now,
		mutexes: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the directory the daily files are written to.
func (a *AuditLog) Dir() string {
	return a.dir
}

// fileMutex returns mutex for given filename, creating if not exists.
// Per-file mutex protects concurrent writes to same daily JSONL file.
func (a *AuditLog) fileMutex(filename string) *sync.Mutex {
	a.mutexLock.Lock()
	defer a.mutexLock.Unlock()

	if _, ok := a.mutexes[filename]; !ok {
		a.mutexes[filename] = &sync.Mutex{}
	}
	return a.mutexes[filename]
}

// Record appends entry to the file of the entry's UTC day. A zero Time is
// set to the current time.
func (a *AuditLog) Record(entry AuditEntry) error {
	if entry.Time.IsZero() {
		entry.Time = a.now()
	}
	entry.Time = entry.Time.UTC()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	line = append(line, '\n')

	filename := filepath.Join(a.dir, entry.Time.Format("2006-01-02.jsonl"))
	mu := a.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}
