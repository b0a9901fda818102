package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/ui"
	"github.com/monopub/engine/internal/validate"
)

var precheckCmd = &cobra.Command{
	Use:   "precheck",
	Short: "Validate config, VCS state, and registry connectivity without publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok := true

		cfgResult := validate.ValidateConfig(current.cfg, current.registries)
		printResult(cmd, "config", cfgResult)
		ok = ok && cfgResult.Valid

		vcsResult := validate.ValidateVCS(cmd.Context(), current.vcsClient, current.cfg)
		printResult(cmd, "vcs", vcsResult)
		ok = ok && vcsResult.Valid

		for _, reg := range current.registries.List() {
			whoami, err := current.registries.ValidateConnection(cmd.Context(), reg.Name)
			if err != nil {
				fmt.Printf("%s registry %s: %s\n", ui.StatusIcon(false), reg.Name, err.Error())
				ok = false
				continue
			}
			fmt.Printf("%s registry %s: authenticated as %s\n", ui.StatusIcon(true), reg.Name, whoami)
		}

		if !ok {
			return fmt.Errorf("precheck failed")
		}
		fmt.Println(ui.SuccessStyle.Render("all checks passed"))
		return nil
	},
}

func printResult(cmd *cobra.Command, label string, r *validate.Result) {
	fmt.Printf("%s %s\n", ui.StatusIcon(r.Valid), label)
	for _, e := range r.Errors {
		fmt.Printf("  %s %s\n", ui.ErrorStyle.Render("✗"), e)
	}
	for _, w := range r.Warnings {
		fmt.Printf("  %s %s\n", ui.WarningStyle.Render("!"), w)
	}
}
