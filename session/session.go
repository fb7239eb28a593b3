// Package session provides the bounded forensic log of analyzed sessions.
//
// The derivers strip GREASE and normalise aggressively, so the hashed forms
// alone cannot answer "what did this client actually send".  The log keeps
// the canonical fingerprints, the verdict, and the ancillary identifiers
// (SNI, claimed User-Agent) of the most recent sessions for operator
// inspection, without ever growing past its configured bound.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firasghr/GoFingerprintEngine/audit"
	"github.com/firasghr/GoFingerprintEngine/fingerprint"
)

// Record is one analyzed session as kept for forensic display.
type Record struct {
	// ID uniquely identifies the record.
	ID uuid.UUID

	// Time is when the session was analyzed.
	Time time.Time

	// Fingerprints maps each derived kind to its canonical string.
	Fingerprints map[fingerprint.Kind]string

	// Verdict is the auditor's output for the session.
	Verdict audit.SessionVerdict

	// SNI and ClaimedUserAgent are kept for log correlation; neither takes
	// part in any hash.
	SNI              string
	ClaimedUserAgent string
}

// Log is a bounded, concurrency-safe ring of session records.
//
// Concurrency model: a sync.RWMutex guards the ring.  Appends (one per
// analyzed session) take the write lock; Recent and Len take the read lock
// so concurrent readers never block each other.  The ring never allocates
// after reaching capacity – the oldest record is overwritten in place.
type Log struct {
	mu      sync.RWMutex
	records []Record
	next    int
	full    bool
	size    int
}

// NewLog creates a Log bounded at size records.  size <= 0 disables the log:
// Append becomes a no-op and Recent always returns nil.
func NewLog(size int) *Log {
	l := &Log{size: size}
	if size > 0 {
		l.records = make([]Record, size)
	}
	return l
}

// Append adds a record, evicting the oldest when the ring is full.  The
// record's ID and Time are filled in when zero.
func (l *Log) Append(rec Record) {
	if l.size <= 0 {
		return
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	l.mu.Lock()
	l.records[l.next] = rec
	l.next++
	if l.next == l.size {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return l.size
	}
	return l.next
}

// Recent returns up to n records, newest first.  n <= 0 returns everything
// held.
func (l *Log) Recent(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	held := l.next
	if l.full {
		held = l.size
	}
	if held == 0 {
		return nil
	}
	if n <= 0 || n > held {
		n = held
	}

	out := make([]Record, 0, n)
	idx := l.next - 1
	for len(out) < n {
		if idx < 0 {
			idx = l.size - 1
		}
		out = append(out, l.records[idx])
		idx--
	}
	return out
}
