package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hubtab/internal/importer"
	"github.com/cleared-dev/hubtab/internal/ledger"
)

func newImportCommand(g *globals) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Append rows from a CSV export",
		Long: `Append rows from a CSV export, in file order.

With a file argument only that file is imported. Without one every CSV in
import/ is imported and then moved to import/processed/.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			reg := importer.DefaultRegistry()
			out := cmd.OutOrStdout()

			importOne := func(path string) error {
				txs, format, err := reg.ParseFile(as, path)
				if err != nil {
					return err
				}
				for _, ve := range ledger.Validate(txs) {
					e.logger.Warn("suspicious import row", "file", filepath.Base(path), "problem", ve.Error())
				}
				res, err := e.session.Import(cmd.Context(), filepath.Base(path), txs)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: imported %d rows (%s)\n", filepath.Base(path), res.Records, format)
				return nil
			}

			if len(args) == 1 {
				return importOne(args[0])
			}

			inbox := importer.NewInbox(e.root)
			pending, err := inbox.Pending()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(out, "No CSV files in import/.")
				return nil
			}
			for _, path := range pending {
				if err := importOne(path); err != nil {
					return err
				}
				if _, err := inbox.Done(path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", importer.FormatAuto, "input layout: auto, sheets or native")
	return cmd
}
