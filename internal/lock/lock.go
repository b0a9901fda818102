// Package lock implements the pipeline's process-local file lock at
// "<workspace>/.publish.lock", preventing two concurrent pipeline runs on
// the same working tree.
//
// The on-disk format is a fixed JSON object ({pid, createdAt, hostname,
// timeout}), not the plain-PID text format nightlyone/lockfile writes, so
// this lock is hand-rolled rather than built on that library; see DESIGN.md
// for why. Concurrent appends to the Analytics Store and Rollback history
// files use nightlyone/lockfile directly instead, where its native format
// is exactly what's needed.
package lock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/monopub/engine/internal/errs"
)

const fileName = ".publish.lock"

// info is the lock file's JSON payload.
type info struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"createdAt"`
	Hostname  string    `json:"hostname"`
	Timeout   int64     `json:"timeout"` // seconds
}

// Lock is an acquired pipeline lock. Call Release when the pipeline run ends.
type Lock struct {
	path string
}

// DefaultTimeout is used when Acquire's timeout argument is <= 0.
const DefaultTimeout = 30 * time.Minute

// Acquire creates the lock file at workspaceRoot/.publish.lock, reclaiming
// a stale lock (owning process no longer alive, or its timeout elapsed)
// if one is found.
func Acquire(workspaceRoot string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	path := filepath.Join(workspaceRoot, fileName)

	if existing, err := readInfo(path); err == nil {
		if !isStale(existing) {
			return nil, errs.New(errs.KindLock, "LOCK_HELD", "another publish is already running (pid "+strconv.Itoa(existing.PID)+")").
				WithSuggestion("wait for the other run to finish, or remove " + path + " if it is stale")
		}
		// Stale: reclaim by removing before recreating.
		_ = os.Remove(path)
	}

	hostname, _ := os.Hostname()
	payload := info{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC(),
		Hostname:  hostname,
		Timeout:   int64(timeout / time.Second),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.KindLock, "LOCK_MARSHAL_FAILED", "encoding lock payload", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errs.New(errs.KindLock, "LOCK_HELD", "another publish is already running")
		}
		return nil, errs.Wrap(errs.KindLock, "LOCK_CREATE_FAILED", "creating lock file", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(path)
		return nil, errs.Wrap(errs.KindLock, "LOCK_WRITE_FAILED", "writing lock file", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file. Safe to call even if the file is already gone.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindLock, "LOCK_RELEASE_FAILED", "removing lock file", err)
	}
	return nil
}

func readInfo(path string) (info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return info{}, err
	}
	var payload info
	if err := json.Unmarshal(data, &payload); err != nil {
		return info{}, err
	}
	return payload, nil
}

// isStale reports whether a found lock no longer holds: its owning process
// is not running, or its timeout has elapsed.
func isStale(i info) bool {
	if i.Timeout > 0 && time.Since(i.CreatedAt) > time.Duration(i.Timeout)*time.Second {
		return true
	}
	return !processAlive(i.PID)
}
