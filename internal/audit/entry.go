package audit

import "time"

// Entry is one executed top-level job.
type Entry struct {
	Seq         uint64    `json:"seq"`
	Time        time.Time `json:"ts"`
	PrevHash    string    `json:"prev_hash"`
	Job         string    `json:"job"`                   // source text as typed
	Commands    []string  `json:"commands"`              // command names in order
	Background  bool      `json:"background,omitempty"`  // terminated by '&'
	Interrupted bool      `json:"interrupted,omitempty"` // SIGINT seen while running
	ExitCode    int       `json:"exit_code"`
	Error       string    `json:"error,omitempty"`
	Duration    float64   `json:"duration_ms"`
	Cwd         string    `json:"cwd"`
	Hash        string    `json:"hash"` // SHA-256 of this entry (with hash field empty)
}

// LogOptions carries optional metadata for audit entries.
type LogOptions struct {
	Background  bool
	Interrupted bool
	Error       string
}
