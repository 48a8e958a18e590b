package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIstatCmd(flags *globalFlags) *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "istat",
		Short: "Choose an ISTAT category and import its dataflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			if sync {
				if err := syncIstat(ctx, s); err != nil {
					return err
				}
			}
			for {
				if err := importCategory(ctx, s); err != nil {
					return err
				}
				if s.console.AskToExit() {
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "Synchronize structures and categories first")
	cmd.AddCommand(newIstatSyncCmd(flags), newIstatImportCmd(flags))
	return cmd
}

func newIstatSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Download dataflows, data structures and categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()
			return syncIstat(cmd.Context(), s)
		},
	}
}

func newIstatImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dataflow>...",
		Short: "Load codelists and data of the dataflows and create their views",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.app.Istat.Import(cmd.Context(), args)
			if err != nil {
				return err
			}
			s.console.PrintImport(res)
			return nil
		},
	}
}

func syncIstat(ctx context.Context, s *session) error {
	structures, err := s.app.Istat.SyncStructures(ctx)
	if err != nil {
		return err
	}
	s.console.Success("Dataflow: %d, strutture: %d, dettagli: %d, gruppi: %d",
		structures.Dataflows, structures.Structures, structures.Details, structures.Groups)

	categories, err := s.app.Istat.SyncCategories(ctx)
	if err != nil {
		return err
	}
	s.console.Success("Categorie: %d, dataflow associati: %d", categories.Categories, categories.Mapped)
	if len(categories.Unmapped) > 0 {
		s.log.Debug("Dataflows without category", zap.Strings("dataflows", categories.Unmapped))
	}
	return nil
}

// importCategory runs one pass of the interactive import. Cancelling at any
// prompt returns nil.
func importCategory(ctx context.Context, s *session) error {
	svc := s.app.Istat
	cats, err := svc.Categories(ctx)
	if err != nil {
		return err
	}
	catID, err := s.console.SelectCategory(cats)
	if err != nil || catID == "" {
		return ignoreEOF(err)
	}

	flows, err := svc.DataflowsForCategory(ctx, catID)
	if err != nil {
		return err
	}
	if len(flows) == 0 {
		s.console.Warn("Nessun dataflow associato alla categoria %s.", catID)
		return nil
	}
	ids, err := s.console.SelectDataflows(flows)
	if err != nil || len(ids) == 0 {
		return ignoreEOF(err)
	}

	ok, err := s.console.Confirm("\nProcedere con l'importazione? (yes/no): ")
	if err != nil || !ok {
		return ignoreEOF(err)
	}
	res, err := svc.Import(ctx, ids)
	if err != nil {
		return err
	}
	s.console.PrintImport(res)

	views, err := svc.AvailableViews(ctx)
	if err != nil {
		return err
	}
	s.console.PrintViews(views)
	return nil
}
