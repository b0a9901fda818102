package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/monopub/engine/internal/hooks"
	"github.com/monopub/engine/internal/model"
)

// report is REPORT: assemble the final PublishReport from the run's
// tracked statuses and accumulated errors/warnings, append a PublishRecord
// to the analytics store (unless this was a dry run), and fire the
// postPublish hook.
func (p *Pipeline) report(ctx context.Context, pctx *model.PublishContext) *model.PublishReport {
	duration := time.Since(pctx.StartedAt)

	rpt := &model.PublishReport{
		Duration: duration,
	}
	for _, e := range pctx.Errors {
		rpt.Errors = append(rpt.Errors, e.Error())
	}
	rpt.Warnings = append(rpt.Warnings, pctx.Warnings...)

	for _, pkg := range pctx.Packages {
		status, ok := pctx.Statuses[pkg.Name]
		if !ok {
			continue
		}
		switch status.Status {
		case model.StatusPublished:
			rpt.Published = append(rpt.Published, pkg.Name)
		case model.StatusFailed:
			rpt.Failed = append(rpt.Failed, pkg.Name)
			if status.Err != nil {
				rpt.Errors = append(rpt.Errors, pkg.Name+": "+status.Err.Error())
			}
		case model.StatusSkipped:
			rpt.Skipped = append(rpt.Skipped, pkg.Name)
			if status.Err != nil {
				rpt.Warnings = append(rpt.Warnings, pkg.Name+": skipped: "+status.Err.Error())
			}
		}
	}

	rpt.Success = len(rpt.Failed) == 0 && len(pctx.Errors) == 0
	rpt.Summary = fmt.Sprintf("published %d, failed %d, skipped %d in %s",
		len(rpt.Published), len(rpt.Failed), len(rpt.Skipped), duration.Round(time.Millisecond))

	if !pctx.DryRun {
		names := make([]string, 0, len(pctx.Packages))
		for _, pkg := range pctx.Packages {
			names = append(names, pkg.Name)
		}
		record := model.PublishRecord{
			ID:           uuid.NewString(),
			Timestamp:    pctx.StartedAt,
			Date:         pctx.StartedAt.UTC().Format("2006-01-02"),
			Packages:     names,
			Success:      rpt.Success,
			DurationMS:   duration.Milliseconds(),
			PackageCount: len(names),
		}
		if len(rpt.Errors) > 0 {
			record.Error = rpt.Errors[0]
		}
		if commit, err := p.vcsClient.CurrentCommit(ctx, true); err == nil {
			record.VCSCommit = commit
		}
		if err := p.store.Append(record); err != nil {
			rpt.Warnings = append(rpt.Warnings, "analytics append failed: "+err.Error())
		}
	}

	postResult := p.runHook(ctx, pctx, hooks.PostPublish, map[string]any{
		"success":   rpt.Success,
		"published": rpt.Published,
		"failed":    rpt.Failed,
	})
	if !postResult.Success {
		rpt.Warnings = append(rpt.Warnings, "postPublish hook failed: "+postResult.Err)
	}

	return rpt
}
