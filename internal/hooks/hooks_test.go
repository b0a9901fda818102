package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_UnconfiguredHookSucceeds(t *testing.T) {
	r := New(t.TempDir())
	result := r.Run(context.Background(), PrePublish, nil)
	require.True(t, result.Success)
}

func TestRun_CommandHook(t *testing.T) {
	r := New(t.TempDir())
	r.Set(PrePublish, Hook{Command: "echo hello"})
	result := r.Run(context.Background(), PrePublish, nil)
	require.True(t, result.Success)
	require.Contains(t, result.Output, "hello")
}

func TestRun_CommandsHook_StopsOnFirstFailure(t *testing.T) {
	r := New(t.TempDir())
	r.Set(PrePublish, Hook{Commands: []string{"echo one", "exit 1", "echo three"}})
	result := r.Run(context.Background(), PrePublish, nil)
	require.False(t, result.Success)
	require.Contains(t, result.Output, "one")
	require.NotContains(t, result.Output, "three")
}

func TestRun_CallbackHook(t *testing.T) {
	r := New(t.TempDir())
	called := false
	r.Set(PrePublish, Hook{Callback: func(ctx context.Context, hookCtx map[string]any) error {
		called = true
		return errors.New("boom")
	}})
	result := r.Run(context.Background(), PrePublish, nil)
	require.True(t, called)
	require.False(t, result.Success)
	require.Equal(t, "boom", result.Err)
}
