package cmd

import (
	"github.com/spf13/cobra"

	"guidesearch/internal/search"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indexed guideline documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		names, err := search.Listing(st)
		if err != nil {
			return err
		}
		printListing(names)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
