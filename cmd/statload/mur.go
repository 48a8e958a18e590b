package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newMURCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mur",
		Short: "List the MUR datasets grouped by tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd, flags, false)
			if err != nil {
				return err
			}
			defer s.close()

			groups, err := s.app.MUR.Catalogue(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{g.Tag, strconv.Itoa(len(g.Datasets))})
			}
			s.console.Title("Dataset MUR per tag:")
			s.console.Table([]string{"Tag", "Dataset"}, rows)
			return nil
		},
	}
}
