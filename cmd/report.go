package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/ui"
)

var reportFlags struct {
	json bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the most recent recorded publish run",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := current.store.GetRecent(1)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println(ui.MutedStyle.Render("no recorded runs yet"))
			return nil
		}
		record := records[0]

		if reportFlags.json {
			enc, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			return nil
		}

		fmt.Printf("%s %s\n", ui.StatusIcon(record.Success), ui.BoldPrimaryStyle.Render(record.ID))
		fmt.Printf("  %s %s\n", ui.Bullet(), record.Date)
		fmt.Printf("  %s %d packages in %dms\n", ui.Bullet(), record.PackageCount, record.DurationMS)
		if record.VCSCommit != "" {
			fmt.Printf("  %s commit %s\n", ui.Bullet(), record.VCSCommit)
		}
		for _, name := range record.Packages {
			fmt.Printf("    %s %s\n", ui.Arrow(), name)
		}
		if record.Error != "" {
			fmt.Printf("  %s %s\n", ui.ErrorStyle.Render("error:"), record.Error)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportFlags.json, "json", false, "output as JSON")
}
