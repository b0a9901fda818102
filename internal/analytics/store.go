// Package analytics implements the Analytics Store: an append-only JSON log
// of past PublishRecords under the workspace, plus a derived, rebuildable
// SQLite index for fast statistics/recent-record queries.
package analytics

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/nightlyone/lockfile"
)

const (
	recordsDir  = ".publisher"
	recordsFile = "publish-records.json"
	lockFile    = "publish-records.json.lock"
)

// Store is the Analytics Store rooted at a workspace directory.
type Store struct {
	workspaceRoot string
	index         *sqliteIndex
}

// New creates a Store under workspaceRoot. The store's JSON log lives at
// <workspaceRoot>/.publisher/publish-records.json.
func New(workspaceRoot string) *Store {
	return &Store{workspaceRoot: workspaceRoot}
}

func (s *Store) recordsPath() string {
	return filepath.Join(s.workspaceRoot, recordsDir, recordsFile)
}

func (s *Store) acquireLock() (lockfile.Lockfile, error) {
	if err := os.MkdirAll(filepath.Join(s.workspaceRoot, recordsDir), 0o755); err != nil {
		return "", errs.Wrap(errs.KindIO, "ANALYTICS_MKDIR_FAILED", "creating analytics directory", err)
	}
	lock, err := lockfile.New(filepath.Join(s.workspaceRoot, recordsDir, lockFile))
	if err != nil {
		return "", errs.Wrap(errs.KindLock, "ANALYTICS_LOCK_INIT_FAILED", "initializing analytics lock", err)
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
		return "", errs.Wrap(errs.KindLock, "ANALYTICS_LOCK_FAILED", "acquiring analytics append lock", err)
	}
}

func (s *Store) readAll() ([]model.PublishRecord, error) {
	data, err := os.ReadFile(s.recordsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_READ_FAILED", "reading publish records", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []model.PublishRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_PARSE_FAILED", "parsing publish records", err)
	}
	return records, nil
}

func (s *Store) writeAll(records []model.PublishRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindIO, "ANALYTICS_MARSHAL_FAILED", "encoding publish records", err)
	}
	if err := os.WriteFile(s.recordsPath(), data, 0o644); err != nil {
		return errs.Wrap(errs.KindIO, "ANALYTICS_WRITE_FAILED", "writing publish records", err)
	}
	return nil
}

// Append adds record to the log, serializing concurrent writers via a
// nightlyone/lockfile guard, and marks the derived index stale.
func (s *Store) Append(record model.PublishRecord) error {
	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}
	records = append(records, record)
	if err := s.writeAll(records); err != nil {
		return err
	}
	if s.index != nil {
		s.index.close()
		s.index = nil
	}
	return nil
}

// Clear truncates the log and drops the derived index.
func (s *Store) Clear() error {
	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := s.writeAll(nil); err != nil {
		return err
	}
	if s.index != nil {
		s.index.close()
		s.index = nil
	}
	return os.RemoveAll(s.indexPath())
}

// GetRecent returns the last n records, newest first.
func (s *Store) GetRecent(n int) ([]model.PublishRecord, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp.After(records[j].Timestamp) })
	if n > 0 && n < len(records) {
		records = records[:n]
	}
	return records, nil
}

// Statistics is the result of GetStatistics.
type Statistics struct {
	Total          int
	Successful     int
	Failed         int
	SuccessRatePct float64
	MeanDurationMS int64
	TotalPackages  int
	Fastest        *model.PublishRecord
	Slowest        *model.PublishRecord
	CountsByDate   map[string]int
	CountsByMonth  map[string]int
}

// GetStatistics computes aggregate statistics over all records, using the
// derived SQLite index when possible and transparently rebuilding it from
// the JSON log when missing or stale.
func (s *Store) GetStatistics() (*Statistics, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	idx, err := s.ensureIndex(records)
	if err != nil {
		// The JSON log is authoritative; fall back to computing in-process
		// if the derived index can't be built for any reason.
		return computeStatistics(records), nil
	}
	return idx.statistics()
}

func computeStatistics(records []model.PublishRecord) *Statistics {
	stats := &Statistics{CountsByDate: map[string]int{}, CountsByMonth: map[string]int{}}
	stats.Total = len(records)
	if stats.Total == 0 {
		return stats
	}

	var totalDuration int64
	for i := range records {
		r := &records[i]
		if r.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		totalDuration += r.DurationMS
		stats.TotalPackages += r.PackageCount

		if stats.Fastest == nil || r.DurationMS < stats.Fastest.DurationMS {
			stats.Fastest = r
		}
		if stats.Slowest == nil || r.DurationMS > stats.Slowest.DurationMS {
			stats.Slowest = r
		}

		stats.CountsByDate[r.Date]++
		if len(r.Date) >= 7 {
			stats.CountsByMonth[r.Date[:7]]++
		}
	}

	stats.SuccessRatePct = round2(float64(stats.Successful) / float64(stats.Total) * 100)
	stats.MeanDurationMS = totalDuration / int64(stats.Total)
	return stats
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
