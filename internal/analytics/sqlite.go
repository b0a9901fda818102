package analytics

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
)

const indexFile = "publish-records.db"

// sqliteIndex is a derived, rebuildable query index mirroring the JSON log.
// It is never the source of truth: it is rebuilt whenever missing, and the
// Store discards it on every Append/Clear so the next read rebuilds fresh.
type sqliteIndex struct {
	db *sql.DB
}

func (s *Store) indexPath() string {
	return filepath.Join(s.workspaceRoot, recordsDir, indexFile)
}

// ensureIndex returns the derived index, (re)building it from records if
// the on-disk database is absent.
func (s *Store) ensureIndex(records []model.PublishRecord) (*sqliteIndex, error) {
	if s.index != nil {
		return s.index, nil
	}

	path := s.indexPath()
	fresh := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fresh = true
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_OPEN_FAILED", "opening derived index", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_PRAGMA_FAILED", "applying derived index pragma", err)
		}
	}

	idx := &sqliteIndex{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if fresh {
		if err := idx.rebuild(records); err != nil {
			db.Close()
			return nil, err
		}
	}

	s.index = idx
	return idx, nil
}

func (idx *sqliteIndex) close() {
	if idx.db != nil {
		idx.db.Close()
	}
}

func (idx *sqliteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		date TEXT NOT NULL,
		success INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		package_count INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);
	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
	`
	if _, err := idx.db.Exec(schema); err != nil {
		return errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_SCHEMA_FAILED", "creating derived index schema", err)
	}
	return nil
}

func (idx *sqliteIndex) rebuild(records []model.PublishRecord) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_TX_FAILED", "beginning index rebuild", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records (id, timestamp, date, success, duration_ms, package_count, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_PREPARE_FAILED", "preparing index insert", err)
	}

	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_ENCODE_FAILED", "encoding record for index", err)
		}
		success := 0
		if r.Success {
			success = 1
		}
		if _, err := stmt.Exec(r.ID, r.Timestamp.Unix(), r.Date, success, r.DurationMS, r.PackageCount, string(payload)); err != nil {
			stmt.Close()
			tx.Rollback()
			return errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_INSERT_FAILED", "inserting record into index", err)
		}
	}
	stmt.Close()

	return tx.Commit()
}

func (idx *sqliteIndex) statistics() (*Statistics, error) {
	stats := &Statistics{CountsByDate: map[string]int{}, CountsByMonth: map[string]int{}}

	row := idx.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(success), 0), COALESCE(AVG(duration_ms), 0), COALESCE(SUM(package_count), 0) FROM records`)
	var total, successful int
	var avgDuration float64
	var totalPackages int
	if err := row.Scan(&total, &successful, &avgDuration, &totalPackages); err != nil {
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_QUERY_FAILED", "querying index totals", err)
	}
	stats.Total = total
	stats.Successful = successful
	stats.Failed = total - successful
	stats.TotalPackages = totalPackages
	stats.MeanDurationMS = int64(avgDuration + 0.5)
	if total > 0 {
		stats.SuccessRatePct = round2(float64(successful) / float64(total) * 100)
	}

	if fastest, err := idx.extremeRecord("ASC"); err == nil {
		stats.Fastest = fastest
	}
	if slowest, err := idx.extremeRecord("DESC"); err == nil {
		stats.Slowest = slowest
	}

	dateRows, err := idx.db.Query(`SELECT date, COUNT(*) FROM records GROUP BY date`)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_QUERY_FAILED", "querying index date counts", err)
	}
	defer dateRows.Close()
	for dateRows.Next() {
		var date string
		var count int
		if err := dateRows.Scan(&date, &count); err != nil {
			return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_SCAN_FAILED", "scanning index date counts", err)
		}
		stats.CountsByDate[date] = count
		if len(date) >= 7 {
			stats.CountsByMonth[date[:7]] += count
		}
	}

	return stats, nil
}

func (idx *sqliteIndex) extremeRecord(order string) (*model.PublishRecord, error) {
	// order is a fixed internal literal ("ASC"/"DESC"), never user input.
	query := `SELECT payload FROM records ORDER BY duration_ms ` + order + ` LIMIT 1`
	var payload string
	if err := idx.db.QueryRow(query).Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_QUERY_FAILED", "querying extreme record", err)
	}
	var record model.PublishRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, errs.Wrap(errs.KindIO, "ANALYTICS_INDEX_DECODE_FAILED", "decoding indexed record", err)
	}
	return &record, nil
}
