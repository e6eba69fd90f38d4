package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// maxLine bounds one JSONL entry; job text can be long.
const maxLine = 1 << 20

// Verify checks the hash chain of the log at path and returns the first
// violation. A missing or empty log is valid.
func Verify(path string) error {
	expectedPrev := genesisHash()
	var prevSeq uint64
	return scanLines(path, func(line int, data []byte) error {
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		if e.Seq != prevSeq+1 {
			return fmt.Errorf("line %d: sequence gap: expected %d, got %d", line, prevSeq+1, e.Seq)
		}
		if e.PrevHash != expectedPrev {
			return fmt.Errorf("line %d: prev_hash mismatch: expected %s, got %s", line, short(expectedPrev), short(e.PrevHash))
		}
		if h := computeHash(e); e.Hash != h {
			return fmt.Errorf("line %d: hash mismatch: expected %s, got %s", line, short(h), short(e.Hash))
		}
		expectedPrev, prevSeq = e.Hash, e.Seq
		return nil
	})
}

// Tail returns up to n of the most recent entries, oldest first. Lines that
// do not decode are skipped.
func Tail(path string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	ring := make([]Entry, 0, n)
	err := scanLines(path, func(_ int, data []byte) error {
		var e Entry
		if json.Unmarshal(data, &e) != nil {
			return nil
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ring, nil
}

// scanLines calls fn for each non-empty line of the log with its 1-based
// line number.
func scanLines(path string, fn func(line int, data []byte) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(line, sc.Bytes()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return hash
}
