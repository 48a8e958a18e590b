package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statload/backend/internal/application/report"
)

func newReportCmd(flags *globalFlags) *cobra.Command {
	var (
		output  string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:       "report <eurostat|istat|mur>",
		Short:     "Write the structure report of a catalogue",
		Long:      "Writes the catalogue hierarchy as text, YAML (.yaml, .yml) or XLSX (.xlsx) depending on the output extension.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{report.SourceEurostat, report.SourceIstat, report.SourceMUR},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cobra.OnlyValidArgs(cmd, args); err != nil {
				return err
			}
			s, err := open(cmd, flags, false)
			if err != nil {
				return err
			}
			defer s.close()

			path, err := s.app.Reports.Write(cmd.Context(), args[0], output, refresh)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Struttura salvata in %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default struttura_<source>.txt)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Download the Eurostat table of contents again")
	return cmd
}
