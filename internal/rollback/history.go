package rollback

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/nightlyone/lockfile"
)

const (
	historyFile     = ".publisher-history.json"
	historyLockFile = ".publisher-history.json.lock"
)

// History is the append-only rollback audit trail adjacent to the
// workspace root, serialized the same way as the Analytics Store's log.
type History struct {
	workspaceRoot string
}

// NewHistory constructs a History rooted at workspaceRoot.
func NewHistory(workspaceRoot string) *History {
	return &History{workspaceRoot: workspaceRoot}
}

func (h *History) path() string {
	return filepath.Join(h.workspaceRoot, historyFile)
}

func (h *History) acquireLock() (lockfile.Lockfile, error) {
	lock, err := lockfile.New(filepath.Join(h.workspaceRoot, historyLockFile))
	if err != nil {
		return "", errs.Wrap(errs.KindLock, "ROLLBACK_LOCK_INIT_FAILED", "initializing rollback history lock", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		err := lock.TryLock()
		if err == nil {
			return lock, nil
		}
		if errors.Is(err, lockfile.ErrBusy) && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if errors.Is(err, lockfile.ErrDeadOwner) || errors.Is(err, lockfile.ErrInvalidPid) {
			return lock, nil
		}
		return "", errs.Wrap(errs.KindLock, "ROLLBACK_LOCK_FAILED", "acquiring rollback history lock", err)
	}
}

func (h *History) readAll() ([]model.RollbackRecord, error) {
	data, err := os.ReadFile(h.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIO, "ROLLBACK_READ_FAILED", "reading rollback history", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []model.RollbackRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errs.Wrap(errs.KindIO, "ROLLBACK_PARSE_FAILED", "parsing rollback history", err)
	}
	return records, nil
}

func (h *History) writeAll(records []model.RollbackRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindIO, "ROLLBACK_MARSHAL_FAILED", "encoding rollback history", err)
	}
	if err := os.WriteFile(h.path(), data, 0o644); err != nil {
		return errs.Wrap(errs.KindIO, "ROLLBACK_WRITE_FAILED", "writing rollback history", err)
	}
	return nil
}

// Append adds record to the history file under the guard of a
// nightlyone/lockfile, matching the Analytics Store's append discipline.
func (h *History) Append(record model.RollbackRecord) error {
	lock, err := h.acquireLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	records, err := h.readAll()
	if err != nil {
		return err
	}
	records = append(records, record)
	return h.writeAll(records)
}

// All returns every persisted rollback record.
func (h *History) All() ([]model.RollbackRecord, error) {
	return h.readAll()
}
