package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const genesisInput = "sush-genesis"

// Logger appends hash-chained job entries to a JSONL file.
type Logger struct {
	mu       sync.Mutex
	f        *os.File
	seq      uint64
	prevHash string
}

// NewLogger opens or creates the audit log at path and resumes its chain
// from the last entry that decodes.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	l := &Logger{prevHash: genesisHash()}
	err := scanLines(path, func(_ int, data []byte) error {
		var last Entry
		if json.Unmarshal(data, &last) == nil {
			l.seq, l.prevHash = last.Seq, last.Hash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	l.f = f
	return l, nil
}

// Log appends an entry for a finished job. The chain only advances when
// the write succeeds.
func (l *Logger) Log(job string, commands []string, exitCode int, duration time.Duration, cwd string, opts LogOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Seq:         l.seq + 1,
		Time:        time.Now().UTC(),
		PrevHash:    l.prevHash,
		Job:         job,
		Commands:    commands,
		Background:  opts.Background,
		Interrupted: opts.Interrupted,
		ExitCode:    exitCode,
		Error:       opts.Error,
		Duration:    float64(duration.Microseconds()) / 1000.0,
		Cwd:         cwd,
	}
	entry.Hash = computeHash(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := l.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	l.seq, l.prevHash = entry.Seq, entry.Hash
	return nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func genesisHash() string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(genesisInput)))
}

// computeHash hashes e with its Hash field empty.
func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
