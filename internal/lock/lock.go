// Package lock serializes concurrent runs against the same configuration
// scope with an exclusive lock file.
//
// The lock file carries a JSON record of its holder so a blocked run can say
// who owns the lock, and so stale locks left by crashed processes can be
// reclaimed safely.
package lock

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jander99/overture-sub000/internal/errors"
)

// Holder metadata written into the lock file.
type Record struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquiredAt"`
	Command    string    `json:"command"`
	Path       string    `json:"-"`
}

// staleAfter is how old a lock may grow before it is presumed abandoned
// when its holder cannot be probed for liveness.
const staleAfter = 10 * time.Minute

// pollInterval is how often a blocked acquire retries.
const pollInterval = 100 * time.Millisecond

// Lock is a held file lock. Release it when the guarded operation ends.
type Lock struct {
	path string
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file. Safe to call once per acquired lock.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "releasing lock %s", l.path)
	}
	return nil
}

// Acquire takes the lock at path, polling until the context is done.
// A lock whose holder is dead, or whose record has no probeable PID and is
// older than the staleness bound, is reclaimed. Returns ErrLockUnavailable
// (wrapped with the holder's record when readable) if the context expires
// first.
func Acquire(ctx context.Context, path, command string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating lock directory for %s", path)
	}

	for {
		lock, err := tryAcquire(path, command)
		if err == nil {
			return lock, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, "acquiring lock %s", path)
		}

		if rec, readErr := Read(path); readErr == nil && isStale(rec) {
			// Best effort; a concurrent reclaimer may get there first.
			_ = os.Remove(path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, holderError(path)
		case <-time.After(pollInterval):
		}
	}
}

// tryAcquire creates the lock file exclusively and writes the holder record.
func tryAcquire(path, command string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	rec := Record{PID: os.Getpid(), AcquiredAt: time.Now().UTC(), Command: command}
	enc := json.NewEncoder(f)
	if err := enc.Encode(rec); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &Lock{path: path}, nil
}

// Read returns the holder record stored at path.
func Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "reading lock record %s", path)
	}
	rec.Path = path
	return &rec, nil
}

// isStale reports whether a lock can be reclaimed: its holder is gone.
// The age bound applies only when the record carries no probeable PID; a
// live holder keeps its lock no matter how long it has run.
func isStale(rec *Record) bool {
	if rec.PID > 0 {
		return !processAlive(rec.PID)
	}
	return !rec.AcquiredAt.IsZero() && time.Since(rec.AcquiredAt) > staleAfter
}

// processAlive probes a PID with signal 0.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, syscall.EPERM)
}

// holderError builds the blocked-acquire error, naming the holder when the
// record is readable.
func holderError(path string) error {
	if rec, err := Read(path); err == nil {
		return errors.Wrapf(errors.ErrLockUnavailable,
			"held by pid %d (%s) since %s",
			rec.PID, rec.Command, rec.AcquiredAt.Format(time.RFC3339))
	}
	return errors.Wrapf(errors.ErrLockUnavailable, "lock file %s", path)
}
