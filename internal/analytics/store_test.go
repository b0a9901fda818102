package analytics

import (
	"testing"
	"time"

	"github.com/monopub/engine/internal/model"
	"github.com/stretchr/testify/require"
)

func record(id string, ts time.Time, success bool, durationMS int64, packages int) model.PublishRecord {
	return model.PublishRecord{
		ID:           id,
		Timestamp:    ts,
		Date:         ts.Format("2006-01-02"),
		Packages:     []string{"pkg-a"},
		Success:      success,
		DurationMS:   durationMS,
		PackageCount: packages,
	}
}

func TestAppend_PersistsAcrossStoreInstances(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(record("r1", base, true, 1000, 2)))
	require.NoError(t, s.Append(record("r2", base.Add(time.Hour), false, 2000, 1)))

	reopened := New(dir)
	records, err := reopened.readAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestGetRecent_ReturnsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(record("r1", base, true, 1000, 2)))
	require.NoError(t, s.Append(record("r2", base.Add(time.Hour), true, 1000, 2)))
	require.NoError(t, s.Append(record("r3", base.Add(2*time.Hour), true, 1000, 2)))

	recent, err := s.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "r3", recent[0].ID)
	require.Equal(t, "r2", recent[1].ID)
}

func TestGetStatistics_ComputesAggregates(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(record("r1", base, true, 1000, 2)))
	require.NoError(t, s.Append(record("r2", base.Add(time.Hour), false, 3000, 1)))
	require.NoError(t, s.Append(record("r3", base.Add(2*time.Hour), true, 2000, 3)))

	stats, err := s.GetStatistics()
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Successful)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, int64(2000), stats.MeanDurationMS)
	require.Equal(t, 6, stats.TotalPackages)
	require.NotNil(t, stats.Fastest)
	require.Equal(t, "r1", stats.Fastest.ID)
	require.NotNil(t, stats.Slowest)
	require.Equal(t, "r2", stats.Slowest.ID)
	require.Equal(t, 3, stats.CountsByDate["2024-03-01"])
	require.Equal(t, 3, stats.CountsByMonth["2024-03"])
}

func TestGetStatistics_RebuildsIndexAfterClear(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(record("r1", base, true, 1000, 2)))

	stats, err := s.GetStatistics()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)

	require.NoError(t, s.Clear())

	stats, err = s.GetStatistics()
	require.NoError(t, err)
	require.Equal(t, 0, stats.Total)
	require.Nil(t, stats.Fastest)
}

func TestGetStatistics_EmptyLogHasZeroValues(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	stats, err := s.GetStatistics()
	require.NoError(t, err)
	require.Equal(t, 0, stats.Total)
	require.Equal(t, float64(0), stats.SuccessRatePct)
}
