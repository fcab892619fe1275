package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hubtab/internal/activity"
	"github.com/cleared-dev/hubtab/internal/buildinfo"
	"github.com/cleared-dev/hubtab/internal/config"
	"github.com/cleared-dev/hubtab/internal/events"
	"github.com/cleared-dev/hubtab/internal/logging"
	"github.com/cleared-dev/hubtab/internal/participants"
	"github.com/cleared-dev/hubtab/internal/render"
	"github.com/cleared-dev/hubtab/internal/session"
	"github.com/cleared-dev/hubtab/internal/store"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	repo   string
	format string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "hubtab",
		Short:   "Shared-expense ledger with one lender and many borrowers",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !render.ValidFormat(g.format) {
				return fmt.Errorf("unknown --format %q (want text, markdown or pretty)", g.format)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.repo, "repo", ".", "ledger repository directory")
	rootCmd.PersistentFlags().StringVar(&g.format, "format", render.FormatText, "output format: text, markdown or pretty")

	rootCmd.AddCommand(
		newInitCommand(),
		newBalanceCommand(g),
		newHistoryCommand(g),
		newBorrowCommand(g),
		newRepayCommand(g),
		newTransferCommand(g),
		newSettleCommand(g),
		newUndoCommand(g),
		newCheckCommand(g),
		newLogCommand(g),
		newParticipantsCommand(g),
		newLenderCommand(g),
		newImportCommand(g),
		newServeCommand(g),
	)

	return rootCmd
}

// env is everything a subcommand needs to act on a ledger repo.
type env struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	session *session.Session
}

func (e *env) Close() error { return e.session.Close() }

func (e *env) configPath() string { return filepath.Join(e.root, config.FileName) }

// open loads hubtab.yaml from the repo, applies .env and environment
// overrides and wires the store, publisher and session it describes.
func (g *globals) open(ctx context.Context, cmd *cobra.Command) (*env, error) {
	root, err := filepath.Abs(g.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s has no %s; run `hubtab init` first", root, config.FileName)
		}
		return nil, err
	}
	if err := cfg.ApplyEnv(root); err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, root, store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		DSN:     cfg.Store.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.Events.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic)
		logger.Debug("publishing ledger events", "brokers", cfg.Events.Kafka.Brokers)
	}

	opts := session.Options{
		Store:     st,
		Registry:  participants.New(cfg.Participants...),
		Lender:    cfg.Lender,
		Publisher: pub,
		Logger:    logger,
		Root:      root,
		Activity:  cfg.Activity.Enabled,
	}
	if cfg.Git.AutoCommit {
		opts.Commit = &session.CommitOptions{
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
			Paths:       trackedPaths(cfg),
		}
	}

	return &env{root: root, cfg: cfg, logger: logger, session: session.New(opts)}, nil
}

// trackedPaths are the repo files committed after each change.
func trackedPaths(cfg *config.Config) []string {
	paths := []string{config.FileName, activity.RelPath}
	switch cfg.Store.Backend {
	case store.BackendCSV, "":
		p := cfg.Store.Path
		if p == "" {
			p = store.DefaultCSVPath
		}
		paths = append(paths, p)
	case store.BackendSQLite:
		p := cfg.Store.Path
		if p == "" {
			p = store.DefaultSQLitePath
		}
		paths = append(paths, p)
	}
	return paths
}
