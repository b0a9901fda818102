package lock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireThenRelease(t *testing.T) {
	dir := t.TempDir()
	l, err := Acquire(dir, 0)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)

	require.NoError(t, l.Release())
	_, err = os.Stat(filepath.Join(dir, fileName))
	require.True(t, os.IsNotExist(err))
}

func TestAcquire_FailsWhenAlreadyHeld(t *testing.T) {
	dir := t.TempDir()
	l, err := Acquire(dir, 0)
	require.NoError(t, err)
	defer l.Release()

	_, err = Acquire(dir, 0)
	require.Error(t, err)
}

func TestAcquire_ReclaimsStaleLockByTimeout(t *testing.T) {
	dir := t.TempDir()
	payload := info{PID: os.Getpid(), CreatedAt: time.Now().Add(-time.Hour), Hostname: "h", Timeout: 1}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), data, 0o644))

	l, err := Acquire(dir, 0)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestAcquire_ReclaimsStaleLockByDeadProcess(t *testing.T) {
	dir := t.TempDir()
	// A PID astronomically unlikely to be alive.
	payload := info{PID: 1 << 30, CreatedAt: time.Now(), Hostname: "h", Timeout: 0}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), data, 0o644))

	l, err := Acquire(dir, 0)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}
