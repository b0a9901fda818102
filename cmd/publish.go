package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pipeline"
	"github.com/monopub/engine/internal/ui"
	"github.com/monopub/engine/internal/version"
)

var publishFlags struct {
	filter        []string
	ignorePrivate bool
	skipBuild     bool
	skipGitCheck  bool
	dryRun        bool
	bump          string
	exact         string
	preid         string
	live          bool
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Validate, build, version, and publish the workspace's packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := version.Kind(publishFlags.bump)
		if kind == "" {
			kind = version.KindPatch
		}

		runOpts := pipeline.RunOptions{
			Filter:        publishFlags.filter,
			IgnorePrivate: publishFlags.ignorePrivate,
			SkipBuild:     publishFlags.skipBuild,
			SkipGitCheck:  publishFlags.skipGitCheck,
			DryRun:        publishFlags.dryRun,
			VersionKind:   kind,
			ExactVersion:  publishFlags.exact,
			Preid:         publishFlags.preid,
		}

		var rpt *model.PublishReport
		var err error
		if publishFlags.live && current.isTTY {
			pkgs, pkgErr := current.resolver.GetPackages(publishFlags.filter, publishFlags.ignorePrivate)
			if pkgErr != nil {
				return pkgErr
			}
			names := make([]string, 0, len(pkgs))
			for _, pkg := range pkgs {
				names = append(names, pkg.Name)
			}
			rpt, err = runLive(cmd.Context(), current.pipeline, names, runOpts)
		} else {
			rpt, err = current.pipeline.Run(cmd.Context(), runOpts)
			if rpt != nil {
				fmt.Print(ui.RenderReport(rpt))
			}
		}

		if err != nil {
			return err
		}
		if rpt != nil && !rpt.Success {
			return fmt.Errorf("publish completed with failures")
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringSliceVar(&publishFlags.filter, "filter", nil, "restrict to these package names (default: all)")
	publishCmd.Flags().BoolVar(&publishFlags.ignorePrivate, "ignore-private", true, "skip packages marked private")
	publishCmd.Flags().BoolVar(&publishFlags.skipBuild, "skip-build", false, "skip the BUILD phase")
	publishCmd.Flags().BoolVar(&publishFlags.skipGitCheck, "skip-git-check", false, "skip the VCS cleanliness check")
	publishCmd.Flags().BoolVar(&publishFlags.dryRun, "dry-run", false, "run the full pipeline without publishing or pushing")
	publishCmd.Flags().StringVar(&publishFlags.bump, "bump", "patch", "version bump kind: major, minor, patch, premajor, preminor, prepatch, prerelease")
	publishCmd.Flags().StringVar(&publishFlags.exact, "exact", "", "set an exact version instead of bumping")
	publishCmd.Flags().StringVar(&publishFlags.preid, "preid", "", "prerelease identifier (e.g. \"beta\")")
	publishCmd.Flags().BoolVar(&publishFlags.live, "live", false, "show a live per-package status view (requires a terminal)")
}
