package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"guidesearch/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the guideline index and print ranked matches",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := newEngine(st)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		resp, err := engine.Query(cmd.Context(), query)
		if errors.Is(err, search.ErrNoResults) {
			fmt.Println("No matching guideline excerpts found.")
			return nil
		}
		if err != nil {
			return err
		}

		if resp.Listing != nil {
			printListing(resp.Listing)
			return nil
		}

		for i, r := range resp.Results {
			name := search.DisplayName(r.Chunk.Source)
			url := search.DocumentURL(cfg.Store.AccountURL, cfg.Store.Container, r.Chunk.Source)
			fmt.Printf("%d. %s (page %d)\n", i+1, name, r.Chunk.Page+1)
			fmt.Printf("   %s\n", url)
			fmt.Printf("   %s\n\n", excerpt(r.Chunk.Content, 300))
		}
		return nil
	},
}

func printListing(names []string) {
	fmt.Printf("%d document(s) indexed:\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
}

// excerpt flattens whitespace and truncates on a rune boundary.
func excerpt(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return string(runes[:max]) + "..."
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
