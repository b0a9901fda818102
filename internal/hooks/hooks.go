// Package hooks runs the pipeline's named lifecycle hooks: shell commands,
// ordered command lists, or in-process callbacks.
package hooks

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/monopub/engine/internal/model"
)

// Name identifies one of the eight named lifecycle hooks.
type Name string

const (
	PrePublish    Name = "prePublish"
	PostPublish   Name = "postPublish"
	PreVersion    Name = "preVersion"
	PostVersion   Name = "postVersion"
	PreChangelog  Name = "preChangelog"
	PostChangelog Name = "postChangelog"
	PreValidate   Name = "preValidate"
	PostValidate  Name = "postValidate"
)

// Callback is the in-process hook form, taking an optional free-form context.
type Callback func(ctx context.Context, hookCtx map[string]any) error

// Hook is a tagged value: exactly one of Command, Commands, or Callback is set.
type Hook struct {
	Command  string
	Commands []string
	Callback Callback
}

// IsZero reports whether the hook has no work configured.
func (h Hook) IsZero() bool {
	return h.Command == "" && len(h.Commands) == 0 && h.Callback == nil
}

// commands returns the hook's shell commands in execution order, or nil for
// a callback hook.
func (h Hook) commands() []string {
	if h.Callback != nil {
		return nil
	}
	if len(h.Commands) > 0 {
		return h.Commands
	}
	if h.Command != "" {
		return []string{h.Command}
	}
	return nil
}

// Runner executes lifecycle hooks and records their outcomes.
type Runner struct {
	hooks map[Name]Hook
	dir   string
}

// New creates a Runner that executes shell-command hooks in dir.
func New(dir string) *Runner {
	return &Runner{hooks: map[Name]Hook{}, dir: dir}
}

// Set registers the hook value for name, replacing any previous value.
func (r *Runner) Set(name Name, h Hook) {
	r.hooks[name] = h
}

// Run executes the hook registered for name, if any, and returns its
// result. A hook with no work configured returns a successful zero-value
// result with no entry recorded by the caller being necessary.
func (r *Runner) Run(ctx context.Context, name Name, hookCtx map[string]any) model.HookResult {
	h, ok := r.hooks[name]
	if !ok || h.IsZero() {
		return model.HookResult{Hook: string(name), Success: true}
	}

	start := time.Now()
	result := model.HookResult{Hook: string(name)}

	if h.Callback != nil {
		err := h.Callback(ctx, hookCtx)
		result.Duration = time.Since(start)
		result.Success = err == nil
		if err != nil {
			result.Err = err.Error()
		}
		return result
	}

	var output bytes.Buffer
	var runErr error
	for _, command := range h.commands() {
		// #nosec G204 - hook commands are operator-configured, same trust level as the build command
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = r.dir
		cmd.Stdout = &output
		cmd.Stderr = &output
		if err := cmd.Run(); err != nil {
			runErr = err
			break
		}
	}

	result.Duration = time.Since(start)
	result.Output = output.String()
	result.Success = runErr == nil
	if runErr != nil {
		result.Err = runErr.Error()
	}
	return result
}
