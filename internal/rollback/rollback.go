// Package rollback implements the Rollback Engine: best-effort undo of a
// previous publish via the Package Manager and VCS Client, with every
// invocation persisted to an append-only history file.
package rollback

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/monopub/engine/internal/errs"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/vcs"
)

// Options controls one rollback invocation.
type Options struct {
	Package          string
	Version          string
	Registry         string
	Unpublish        bool
	Deprecate        bool
	DeprecateMessage string
	RevertVCS        bool
	DeleteTag        bool
	Reason           string
	DryRun           bool
}

// Engine performs rollback actions and persists their outcome.
type Engine struct {
	pmClient  pm.Client
	vcsClient vcs.Client
	history   *History
}

// New constructs a rollback Engine rooted at workspaceRoot for its history file.
func New(pmClient pm.Client, vcsClient vcs.Client, workspaceRoot string) *Engine {
	return &Engine{pmClient: pmClient, vcsClient: vcsClient, history: NewHistory(workspaceRoot)}
}

// DryRunPlan describes the actions that Run would take without performing them.
type DryRunPlan struct {
	Actions []model.RollbackActionKind
}

// Plan computes the ordered action list for opts without side effects, for
// `rollback --dry-run`.
func Plan(opts Options) DryRunPlan {
	var actions []model.RollbackActionKind
	if opts.Unpublish {
		actions = append(actions, model.ActionUnpublish)
	} else if opts.Deprecate {
		actions = append(actions, model.ActionDeprecate)
	}
	if opts.RevertVCS {
		actions = append(actions, model.ActionRevertVCS)
	}
	if opts.DeleteTag {
		actions = append(actions, model.ActionDeleteTag)
	}
	return DryRunPlan{Actions: actions}
}

// Run performs the rollback actions in spec order, recording each action's
// success independently: a failed action does not prevent later ones from
// running. When opts.DryRun, Run only returns the plan and writes nothing.
func (e *Engine) Run(ctx context.Context, opts Options) (*model.RollbackRecord, error) {
	if opts.DryRun {
		return nil, nil
	}

	record := &model.RollbackRecord{
		ID:        newID(),
		Package:   opts.Package,
		Version:   opts.Version,
		Reason:    opts.Reason,
		Timestamp: time.Now(),
		Success:   true,
	}

	if opts.Unpublish {
		record.Actions = append(record.Actions, e.runAction(model.ActionUnpublish, func() error {
			return e.pmClient.Unpublish(ctx, opts.Package, opts.Version, opts.Registry)
		}))
	} else if opts.Deprecate {
		record.Actions = append(record.Actions, e.runAction(model.ActionDeprecate, func() error {
			return e.pmClient.Deprecate(ctx, opts.Package, opts.Version, deprecateMessage(opts), opts.Registry)
		}))
	}

	if opts.RevertVCS {
		record.Actions = append(record.Actions, e.runAction(model.ActionRevertVCS, func() error {
			return e.revertVCS(ctx, opts)
		}))
	}

	if opts.DeleteTag {
		record.Actions = append(record.Actions, e.runAction(model.ActionDeleteTag, func() error {
			return e.deleteTag(ctx, opts)
		}))
	}

	for _, a := range record.Actions {
		if !a.Success {
			record.Success = false
			break
		}
	}

	if err := e.history.Append(*record); err != nil {
		return record, err
	}
	return record, nil
}

func (*Engine) runAction(kind model.RollbackActionKind, fn func() error) model.RollbackAction {
	action := model.RollbackAction{Kind: kind, Timestamp: time.Now()}
	if err := fn(); err != nil {
		action.Success = false
		action.Err = err.Error()
		return action
	}
	action.Success = true
	return action
}

// deprecateMessage falls back to opts.Reason when no explicit deprecate
// message was given, so `--deprecate --reason "security"` alone still
// passes a message to the registry.
func deprecateMessage(opts Options) string {
	if opts.DeprecateMessage != "" {
		return opts.DeprecateMessage
	}
	return opts.Reason
}

// tagName computes the tag for a version per §4.10: use it verbatim if
// already "v"-prefixed, otherwise prepend "v".
func tagName(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// revertVCS locates the commit that introduced package@version via its tag
// and reverts it. Absence of the tag downgrades to a no-op, never a false
// success (§4.10, Open Question 2).
func (e *Engine) revertVCS(ctx context.Context, opts Options) error {
	tag := tagName(opts.Version)
	exists, err := e.vcsClient.TagExists(ctx, tag)
	if err != nil {
		return errs.Wrap(errs.KindVCS, "ROLLBACK_TAG_LOOKUP_FAILED", "checking tag existence", err)
	}
	if !exists {
		// Best-effort: no commit is locatable for this version. This is
		// recorded as a successful no-op rather than a failure, since the
		// action genuinely cannot be performed — not that it failed.
		return nil
	}

	commits, err := e.vcsClient.Commits(ctx, "", tag)
	if err != nil {
		return errs.Wrap(errs.KindVCS, "ROLLBACK_COMMIT_LOOKUP_FAILED", "resolving tag commit", err)
	}
	if len(commits) == 0 {
		return nil
	}
	// Commits are newest-first; the first entry is the commit the tag points to.
	return e.vcsClient.Revert(ctx, commits[0].Hash)
}

func (e *Engine) deleteTag(ctx context.Context, opts Options) error {
	tag := tagName(opts.Version)
	exists, err := e.vcsClient.TagExists(ctx, tag)
	if err != nil {
		return errs.Wrap(errs.KindVCS, "ROLLBACK_TAG_LOOKUP_FAILED", "checking tag existence", err)
	}
	if !exists {
		return nil
	}
	if err := e.vcsClient.DeleteTag(ctx, tag); err != nil {
		return errs.Wrap(errs.KindVCS, "ROLLBACK_TAG_DELETE_FAILED", "deleting local tag", err)
	}
	if err := e.vcsClient.DeleteRemoteTag(ctx, tag, "origin"); err != nil {
		return errs.Wrap(errs.KindVCS, "ROLLBACK_REMOTE_TAG_DELETE_FAILED", "deleting remote tag", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}
