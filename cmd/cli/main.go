package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-org-audit/internal/audit"
	"github.com/kurihiro0119/github-org-audit/internal/collector"
	"github.com/kurihiro0119/github-org-audit/internal/config"
	"github.com/kurihiro0119/github-org-audit/internal/domain"
	"github.com/kurihiro0119/github-org-audit/internal/logging"
	"github.com/kurihiro0119/github-org-audit/internal/storage"
	"github.com/kurihiro0119/github-org-audit/internal/storage/postgres"
	"github.com/kurihiro0119/github-org-audit/internal/storage/sqlite"
)

// app holds the state shared by every command of one invocation
type app struct {
	cfgFile  string
	org      string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
	store  storage.Storage
}

func (a *app) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "github-audit",
		Short: "GitHub organization audit tool",
		Long: `A CLI tool for auditing the governance of a GitHub organization.

It reports members without two-factor auth, teams without maintainers and
repositories without an admin, lists owners and repository collaborators,
and exports the member roster to CSV.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&a.org, "org", "", "GitHub organization (overrides GITHUB_ORG)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		a.newTwoFactorAuthCmd(),
		a.newAuditCmd(),
		a.newOwnersCmd(),
		a.newMembersCmd(),
		a.newRepoCollaboratorsCmd(),
		a.newHistoryCmd(),
	)

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the command line args and releases the storage and logger
// once the command has finished, whether or not it failed
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

// setup loads the configuration and builds the logger. Commands that talk to
// GitHub validate the full configuration themselves.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.org != "" {
		cfg.Org = a.org
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	logger, err := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return &config.ConfigError{Field: "LOG_LEVEL", Message: err.Error()}
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close storage", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// newAuditor validates the configuration and builds an auditor writing to the
// command's output
func (a *app) newAuditor(cmd *cobra.Command) (*audit.Auditor, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	coll, err := collector.NewGitHubCollector(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}

	bots := domain.NewBotSet(domain.DefaultBots, a.cfg.ExtraBots)
	a.logger.Debug("auditing organization",
		zap.String("org", a.cfg.Org),
		zap.Int("bots", bots.Len()),
		zap.Int("concurrency", a.cfg.Concurrency))

	return audit.NewAuditor(coll, audit.Options{
		Org:         a.cfg.Org,
		Bots:        bots,
		Out:         cmd.OutOrStdout(),
		Logger:      a.logger,
		Concurrency: a.cfg.Concurrency,
	}), nil
}

// openStorage opens the configured history store. It returns nil when
// recording is disabled.
func (a *app) openStorage() (storage.Storage, error) {
	if a.store != nil || !a.cfg.RecordingEnabled() {
		return a.store, nil
	}

	var err error
	switch a.cfg.StorageType {
	case "postgres":
		a.store, err = postgres.NewPostgresStorage(a.cfg.PostgresURL)
	default:
		a.store, err = sqlite.NewSQLiteStorage(a.cfg.SQLitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return a.store, nil
}
