// Package scan holds the input cursor shared by every parser during one
// top-level read, and the lexical scanners that measure tokens on it.
package scan

import (
	"fmt"
	"strings"
)

// SyntaxError is the single in-flight parse error carried by a Buffer.
type SyntaxError struct {
	Reason string
	// Incomplete is set when the input ended before the construct was
	// closed. A line reader may feed more input and retry.
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return e.Reason
}

// Buffer is a mutable cursor over the remaining unconsumed input.
// Offsets and lengths are in bytes; scanners always stop on rune boundaries.
type Buffer struct {
	text string
	err  *SyntaxError
}

// New creates a buffer over text.
func New(text string) *Buffer {
	return &Buffer{text: text}
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.text)
}

// Remaining returns the unconsumed text without consuming it.
func (b *Buffer) Remaining() string {
	return b.text
}

// Consume removes and returns the next n bytes. Asking for more than remains
// is a programming error.
func (b *Buffer) Consume(n int) string {
	if n < 0 || n > len(b.text) {
		panic(fmt.Sprintf("scan: consume %d of %d remaining bytes", n, len(b.text)))
	}
	out := b.text[:n]
	b.text = b.text[n:]
	return out
}

// At returns the byte at offset i, or 0 past the end.
func (b *Buffer) At(i int) byte {
	if i < 0 || i >= len(b.text) {
		return 0
	}
	return b.text[i]
}

// CharsFrom returns the remaining text starting at offset i.
func (b *Buffer) CharsFrom(i int) string {
	if i >= len(b.text) {
		return ""
	}
	return b.text[i:]
}

// StartsWith reports whether the remaining text begins with s.
func (b *Buffer) StartsWith(s string) bool {
	return strings.HasPrefix(b.text, s)
}

// Feed appends continuation input, e.g. the next line of a statement left
// open at the end of the previous one.
func (b *Buffer) Feed(more string) {
	b.text += more
}

// Fork returns a read-ahead copy. Consuming from the fork leaves b alone
// until Commit is called.
func (b *Buffer) Fork() *Buffer {
	return &Buffer{text: b.text, err: b.err}
}

// Commit consumes from b exactly what f consumed and adopts its error slot.
// f must have been forked from b with no consumption on b in between.
func (b *Buffer) Commit(f *Buffer) {
	b.Consume(len(b.text) - len(f.text))
	b.err = f.err
}

// Fail records a parse error, replacing any previous one.
func (b *Buffer) Fail(reason string) {
	b.err = &SyntaxError{Reason: reason}
}

// FailIncomplete records an error caused by input ending too early.
func (b *Buffer) FailIncomplete(reason string) {
	b.err = &SyntaxError{Reason: reason, Incomplete: true}
}

// Failed reports whether an error is recorded.
func (b *Buffer) Failed() bool {
	return b.err != nil
}

// Err returns the recorded error, or nil.
func (b *Buffer) Err() *SyntaxError {
	return b.err
}

// ClearErr drops the recorded error.
func (b *Buffer) ClearErr() {
	b.err = nil
}
