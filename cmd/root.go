// Package cmd wires the engine's internal packages into a cobra CLI:
// workspace discovery, config loading, and the Publish Pipeline's
// collaborators, exposed as the publish/version/changelog/rollback/
// precheck/stats/report subcommands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/monopub/engine/internal/analytics"
	"github.com/monopub/engine/internal/changelog"
	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/hooks"
	"github.com/monopub/engine/internal/logging"
	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pipeline"
	"github.com/monopub/engine/internal/pm"
	"github.com/monopub/engine/internal/registry"
	"github.com/monopub/engine/internal/rollback"
	"github.com/monopub/engine/internal/signal"
	"github.com/monopub/engine/internal/vcs"
	"github.com/monopub/engine/internal/version"
	"github.com/monopub/engine/internal/workspace"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// StartTime records when the process started, used for duration reporting.
var StartTime time.Time

// app bundles the collaborators every subcommand needs. It's built once in
// PersistentPreRunE and stashed in the package-level current variable, since
// cobra's RunE signature doesn't carry arbitrary context.
type app struct {
	cfg        *config.Config
	root       string
	resolver   *workspace.Resolver
	pmClient   pm.Client
	vcsClient  vcs.Client
	registries *registry.Manager
	hookRunner *hooks.Runner
	store      *analytics.Store
	pipeline   *pipeline.Pipeline
	changelog  *changelog.Engine
	rollback   *rollback.Engine
	logger     *slog.Logger
	isTTY      bool
}

var current *app

var cwdFlag string

var rootCmd = &cobra.Command{
	Use:           "monopub",
	Short:         "Monorepo package publishing orchestrator",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		StartTime = time.Now()
		a, err := buildApp(cwdFlag)
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cwdFlag, "cwd", "", "workspace root (defaults to the current directory)")
	rootCmd.SetHelpTemplate(`monopub v` + Version + `
{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`)

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(changelogCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(precheckCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
}

func buildApp(cwd string) (*app, error) {
	if cwd == "" {
		dir, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cwd = dir
	}
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, err
	}

	resolver := workspace.New()
	ws, err := resolver.Initialize(cwd)
	if err != nil {
		return nil, fmt.Errorf("initializing workspace: %w", err)
	}

	cfg, regEntries, err := loadConfig(ws.Root)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", configFileName, err)
	}

	pmClient := pm.NewNpmClient(cfg.DefaultRegistry)
	vcsClient := vcs.NewGitClient(ws.Root)
	hookRunner := hooks.New(ws.Root)
	store := analytics.New(ws.Root)

	credsPath := filepath.Join(os.Getenv("HOME"), ".monopub", "credentials")
	registries := registry.New(pmClient, credsPath)

	named := registriesFromFile(regEntries, cfg.DefaultRegistry)
	if len(named) == 0 {
		named = []namedRegistry{{Name: "npm", Reg: model.Registry{Name: "npm", URL: "https://registry.npmjs.org"}, Default: true}}
	}
	for _, nr := range named {
		registries.Add(nr.Name, nr.Reg, nr.Default)
	}

	logger := logging.New(os.Getenv("DEBUG") != "")
	pl := pipeline.New(cfg, resolver, pmClient, vcsClient, registries, hookRunner, store)
	pl.SetLogger(logger)

	return &app{
		cfg:        cfg,
		root:       ws.Root,
		resolver:   resolver,
		pmClient:   pmClient,
		vcsClient:  vcsClient,
		registries: registries,
		hookRunner: hookRunner,
		store:      store,
		pipeline:   pl,
		changelog:  changelog.New(vcsClient),
		rollback:   rollback.New(pmClient, vcsClient, ws.Root),
		logger:     logger,
		isTTY:      isatty.IsTerminal(os.Stdout.Fd()),
	}, nil
}

// versionEngine constructs a standalone Version Engine for commands that
// bump versions without running the full pipeline (e.g. `monopub version`).
func (a *app) versionEngine() *version.Engine {
	if npm, ok := a.pmClient.(*pm.NpmClient); ok {
		return version.New(npm)
	}
	return version.New(nil)
}

// Execute runs the root command, wiring SIGINT/SIGTERM cancellation.
func Execute() error {
	ctx := signal.SetupSignalHandler(context.Background())
	return rootCmd.ExecuteContext(ctx)
}
