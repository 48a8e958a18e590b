package main

import (
	"github.com/spf13/cobra"

	"github.com/statload/backend/internal/interfaces/cli"
)

func newEurostatCmd(flags *globalFlags) *cobra.Command {
	var refreshTOC bool
	cmd := &cobra.Command{
		Use:   "eurostat",
		Short: "Browse the Eurostat table of contents and download datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			tree, err := s.app.Eurostat.LoadTree(cmd.Context(), refreshTOC)
			if err != nil {
				return err
			}
			nav := cli.NewNavigator(s.console, s.app.Eurostat, s.log)
			for {
				if err := nav.Run(cmd.Context(), tree); err != nil {
					return err
				}
				if s.console.AskToExit() {
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVar(&refreshTOC, "refresh-toc", false, "Download the table of contents again")
	cmd.AddCommand(newEurostatDownloadCmd(flags, false), newEurostatDownloadCmd(flags, true))
	return cmd
}

func newEurostatDownloadCmd(flags *globalFlags, force bool) *cobra.Command {
	var title string
	use, short := "download <code>...", "Download datasets that are not up to date"
	if force {
		use, short = "refresh <code>...", "Download datasets again even when up to date"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags, true)
			if err != nil {
				return err
			}
			defer s.close()

			svc := s.app.Eurostat
			for _, code := range args {
				name := title
				if name == "" {
					name = code
				}
				load := svc.DownloadDataset
				if force {
					load = svc.Refresh
				}
				res, err := load(cmd.Context(), code, name)
				if err != nil {
					s.console.Error("%s: %v", code, err)
					continue
				}
				if res.UpToDate {
					s.console.Println("Dataset '%s' è già aggiornato.", code)
					continue
				}
				s.console.Success("Dataset %s caricato: %d righe, vista %s", res.Code, res.Rows, res.View)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Dataset title stored in the view catalogue")
	return cmd
}
