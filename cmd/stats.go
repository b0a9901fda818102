package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/ui"
)

var statsFlags struct {
	recent int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate publish statistics and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := current.store.GetStatistics()
		if err != nil {
			return err
		}

		fmt.Printf("%s total runs, %s%% success rate, %s mean duration\n",
			ui.BoldPrimaryStyle.Render(fmt.Sprint(stats.Total)),
			ui.BoldPrimaryStyle.Render(fmt.Sprintf("%.1f", stats.SuccessRatePct)),
			ui.BoldPrimaryStyle.Render(time.Duration(stats.MeanDurationMS*int64(time.Millisecond)).String()))
		fmt.Printf("%s packages published across all runs\n", ui.BoldPrimaryStyle.Render(fmt.Sprint(stats.TotalPackages)))

		if stats.Fastest != nil {
			fmt.Printf("fastest: %s (%dms)\n", stats.Fastest.ID, stats.Fastest.DurationMS)
		}
		if stats.Slowest != nil {
			fmt.Printf("slowest: %s (%dms)\n", stats.Slowest.ID, stats.Slowest.DurationMS)
		}

		if statsFlags.recent > 0 {
			recent, err := current.store.GetRecent(statsFlags.recent)
			if err != nil {
				return err
			}
			fmt.Println()
			for _, r := range recent {
				fmt.Printf("%s %s %s (%d packages, %dms)\n",
					ui.StatusIcon(r.Success), r.Date, r.ID, r.PackageCount, r.DurationMS)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsFlags.recent, "recent", 10, "number of recent runs to list (0 to omit)")
}
