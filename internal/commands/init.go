package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hubtab/internal/config"
	"github.com/cleared-dev/hubtab/internal/gitops"
	"github.com/cleared-dev/hubtab/internal/participants"
	"github.com/cleared-dev/hubtab/internal/store"
	"github.com/cleared-dev/hubtab/internal/store/csvstore"
)

func newInitCommand() *cobra.Command {
	var lender string
	var names []string
	var backend string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			hash, err := runInit(absDir, lender, names, backend)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized hubtab ledger at %s (%s)\n", absDir, hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&lender, "lender", participants.DefaultLender, "display name of the person owed")
	cmd.Flags().StringSliceVar(&names, "participant", nil, "borrower name (repeatable; defaults to two sample names)")
	cmd.Flags().StringVar(&backend, "backend", store.BackendCSV, "store backend: csv or sqlite")

	return cmd
}

func runInit(dir, lender string, names []string, backend string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return "", fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	// Create directory structure.
	dirs := []string{
		"ledger",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(lender)
	if len(names) > 0 {
		cfg.Participants = participants.New(names...).Names()
	}
	switch backend {
	case store.BackendCSV:
		if err := writeEmptyLog(filepath.Join(dir, cfg.Store.Path)); err != nil {
			return "", err
		}
	case store.BackendSQLite:
		cfg.Store = config.StoreConfig{Backend: store.BackendSQLite, Path: store.DefaultSQLitePath}
	default:
		return "", fmt.Errorf("init supports csv or sqlite, not %q", backend)
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	// Secrets such as a postgres DSN live in .env, never in git.
	gitignore := ".env\nledger/*.db-journal\nledger/*.db-wal\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return "", fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Initialize git and create initial commit.
	if err := gitops.Init(dir); err != nil {
		return "", fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitPaths(dir, "init: new ledger for "+cfg.Lender, cfg.Git.AuthorName, cfg.Git.AuthorEmail,
		config.FileName, ".gitignore", filepath.Join("import", ".gitkeep"), cfg.Store.Path)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}

func writeEmptyLog(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := csvstore.WriteRows(f, nil); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
