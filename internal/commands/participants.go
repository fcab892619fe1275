package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hubtab/internal/config"
	"github.com/cleared-dev/hubtab/internal/gitops"
)

func newParticipantsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "participants",
		Aliases: []string{"people"},
		Short:   "Manage the borrower list",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered participants",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := g.open(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				defer e.Close()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Lender: %s\n", e.session.Lender())
				for _, name := range e.session.Participants() {
					fmt.Fprintln(out, name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Register a new participant",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := g.open(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				defer e.Close()

				if err := e.session.AddParticipant(args[0]); err != nil {
					return err
				}
				if err := e.persist("participants: add "+strings.TrimSpace(args[0]), func(c *config.Config) {
					c.Participants = e.session.Participants()
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s.\n", strings.TrimSpace(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <old> <new>",
			Short: "Rename a participant; existing rows keep the old name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := g.open(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				defer e.Close()

				if err := e.session.RenameParticipant(args[0], args[1]); err != nil {
					return err
				}
				msg := fmt.Sprintf("participants: rename %s to %s", args[0], strings.TrimSpace(args[1]))
				if err := e.persist(msg, func(c *config.Config) {
					c.Participants = e.session.Participants()
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s.\n", args[0], strings.TrimSpace(args[1]))
				return nil
			},
		},
	)
	return cmd
}

func newLenderCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lender",
		Short: "Show or change the lender's display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			fmt.Fprintln(cmd.OutOrStdout(), e.session.Lender())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Change the lender's display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.SetLender(args[0]); err != nil {
				return err
			}
			lender := e.session.Lender()
			if err := e.persist("lender: set "+lender, func(c *config.Config) {
				c.Lender = lender
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lender is now %s.\n", lender)
			return nil
		},
	})
	return cmd
}

// persist applies mutate to the on-disk hubtab.yaml and commits it. The
// file is re-read so environment overrides never get written back.
func (e *env) persist(message string, mutate func(*config.Config)) error {
	cfg, err := config.Load(e.configPath())
	if err != nil {
		return err
	}
	mutate(cfg)
	if err := config.Save(e.configPath(), cfg); err != nil {
		return err
	}

	if !e.cfg.Git.AutoCommit || !gitops.IsRepo(e.root) {
		return nil
	}
	hash, err := gitops.CommitPaths(e.root, message, e.cfg.Git.AuthorName, e.cfg.Git.AuthorEmail, config.FileName)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		e.logger.Warn("git commit failed", "err", err)
	default:
		e.logger.Debug("committed config", "hash", hash)
	}
	return nil
}
