package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/ui"
	"github.com/monopub/engine/internal/version"
)

var versionFlags struct {
	filter        []string
	ignorePrivate bool
	bump          string
	exact         string
	preid         string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Bump package versions without publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, err := current.resolver.GetPackages(versionFlags.filter, versionFlags.ignorePrivate)
		if err != nil {
			return err
		}
		if len(pkgs) == 0 {
			return fmt.Errorf("no packages matched the selection")
		}

		engine := current.versionEngine()
		mw := version.NewManifestWriter()
		kind := version.Kind(versionFlags.bump)
		if kind == "" {
			kind = version.KindPatch
		}

		for _, pkg := range pkgs {
			var next string
			if versionFlags.exact != "" {
				v, err := engine.SetExact(versionFlags.exact)
				if err != nil {
					return fmt.Errorf("%s: %w", pkg.Name, err)
				}
				next = v.String()
			} else {
				cur, err := engine.CurrentVersion(pkg)
				if err != nil {
					return fmt.Errorf("%s: %w", pkg.Name, err)
				}
				bumped, err := engine.Bump(cur, kind, versionFlags.preid)
				if err != nil {
					return fmt.Errorf("%s: %w", pkg.Name, err)
				}
				next = bumped.String()
			}
			if err := mw.Write(pkg.Dir, next); err != nil {
				return fmt.Errorf("%s: %w", pkg.Name, err)
			}
			fmt.Printf("%s %s %s %s\n", ui.StatusIcon(true), pkg.Name, ui.Arrow(), next)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().StringSliceVar(&versionFlags.filter, "filter", nil, "restrict to these package names (default: all)")
	versionCmd.Flags().BoolVar(&versionFlags.ignorePrivate, "ignore-private", true, "skip packages marked private")
	versionCmd.Flags().StringVar(&versionFlags.bump, "bump", "patch", "version bump kind")
	versionCmd.Flags().StringVar(&versionFlags.exact, "exact", "", "set an exact version instead of bumping")
	versionCmd.Flags().StringVar(&versionFlags.preid, "preid", "", "prerelease identifier")
}
