package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/rollback"
	"github.com/monopub/engine/internal/ui"
)

var rollbackFlags struct {
	pkg              string
	version          string
	registry         string
	unpublish        bool
	deprecate        bool
	deprecateMessage string
	revertVCS        bool
	deleteTag        bool
	reason           string
	dryRun           bool
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo a previous publish: unpublish/deprecate, revert the release commit, delete the tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := rollback.Options{
			Package:          rollbackFlags.pkg,
			Version:          rollbackFlags.version,
			Registry:         rollbackFlags.registry,
			Unpublish:        rollbackFlags.unpublish,
			Deprecate:        rollbackFlags.deprecate,
			DeprecateMessage: rollbackFlags.deprecateMessage,
			RevertVCS:        rollbackFlags.revertVCS,
			DeleteTag:        rollbackFlags.deleteTag,
			Reason:           rollbackFlags.reason,
			DryRun:           rollbackFlags.dryRun,
		}

		if opts.Package == "" || opts.Version == "" {
			return fmt.Errorf("--package and --version are required")
		}

		if opts.DryRun {
			plan := rollback.Plan(opts)
			enc, _ := json.MarshalIndent(plan, "", "  ")
			fmt.Println(string(enc))
			return nil
		}

		record, err := current.rollback.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		for _, action := range record.Actions {
			fmt.Printf("%s %s\n", ui.StatusIcon(action.Success), action.Kind)
		}
		if !record.Success {
			return fmt.Errorf("rollback completed with failures")
		}
		return nil
	},
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackFlags.pkg, "package", "", "package name")
	rollbackCmd.Flags().StringVar(&rollbackFlags.version, "version", "", "published version to roll back")
	rollbackCmd.Flags().StringVar(&rollbackFlags.registry, "registry", "", "registry name (default: package's default)")
	rollbackCmd.Flags().BoolVar(&rollbackFlags.unpublish, "unpublish", false, "unpublish the version from the registry")
	rollbackCmd.Flags().BoolVar(&rollbackFlags.deprecate, "deprecate", false, "deprecate instead of unpublish")
	rollbackCmd.Flags().StringVar(&rollbackFlags.deprecateMessage, "deprecate-message", "", "message shown to installers of a deprecated version")
	rollbackCmd.Flags().BoolVar(&rollbackFlags.revertVCS, "revert-vcs", false, "revert the release commit")
	rollbackCmd.Flags().BoolVar(&rollbackFlags.deleteTag, "delete-tag", false, "delete the release tag, locally and on the remote")
	rollbackCmd.Flags().StringVar(&rollbackFlags.reason, "reason", "", "reason recorded in rollback history")
	rollbackCmd.Flags().BoolVar(&rollbackFlags.dryRun, "dry-run", false, "print the action plan without performing it")
}
