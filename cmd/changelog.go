package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/changelog"
)

var changelogFlags struct {
	filter []string
	from   string
	to     string
	write  bool
}

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Generate changelogs from conventional commits since the last tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, err := current.resolver.GetPackages(changelogFlags.filter, true)
		if err != nil {
			return err
		}

		from := changelogFlags.from
		if from == "" {
			from, _ = current.vcsClient.LatestTag(cmd.Context())
		}
		to := changelogFlags.to
		if to == "" {
			to = "HEAD"
		}
		repoURL, _ := current.vcsClient.RemoteURL(cmd.Context(), current.cfg.Git.Remote)

		for _, pkg := range pkgs {
			content, err := current.changelog.Generate(cmd.Context(), pkg.Version, from, to)
			if err != nil {
				return fmt.Errorf("%s: %w", pkg.Name, err)
			}
			if len(content.Sections) == 0 {
				fmt.Printf("%s: no changes since %s\n", pkg.Name, from)
				continue
			}
			if changelogFlags.write {
				path := filepath.Join(pkg.Dir, "CHANGELOG.md")
				if err := changelog.Write(content, repoURL, path, false); err != nil {
					return fmt.Errorf("%s: %w", pkg.Name, err)
				}
				fmt.Printf("%s: wrote %s\n", pkg.Name, path)
				continue
			}
			fmt.Printf("## %s\n\n", pkg.Name)
			for _, section := range content.Sections {
				fmt.Printf("### %s\n", section.Title)
				for _, commit := range section.Commits {
					fmt.Printf("- %s\n", commit.Subject)
				}
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	changelogCmd.Flags().StringSliceVar(&changelogFlags.filter, "filter", nil, "restrict to these package names")
	changelogCmd.Flags().StringVar(&changelogFlags.from, "from", "", "starting ref (default: latest tag)")
	changelogCmd.Flags().StringVar(&changelogFlags.to, "to", "HEAD", "ending ref")
	changelogCmd.Flags().BoolVar(&changelogFlags.write, "write", false, "write CHANGELOG.md instead of printing")
}
