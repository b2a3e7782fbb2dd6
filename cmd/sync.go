package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var flagReset bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the guideline library and index new documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		fmt.Printf("Syncing %s/%s...\n", cfg.Store.AccountURL, cfg.Store.Container)
		result, err := newSynchronizer().Sync(cmd.Context())
		if err != nil {
			return err
		}
		if result.UpToDate {
			fmt.Println("Mirror is up to date.")
		} else {
			fmt.Printf("Transferred %d document(s).\n", len(result.Transferred))
		}
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "  download failed: %s: %v\n", f.Name, f.Err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if flagReset {
			fmt.Println("Resetting index...")
			if err := st.DeleteAll(); err != nil {
				return fmt.Errorf("reset index: %w", err)
			}
		}

		pipeline, err := newPipeline(st)
		if err != nil {
			return err
		}

		fmt.Printf("Indexing %d document(s)...\n", len(result.Documents))
		stats, err := pipeline.Run(cmd.Context(), result.Documents)
		if err != nil {
			return err
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Documents: %d total, %d indexed, %d skipped, %d empty\n",
			stats.Total, stats.Ingested, stats.Skipped, stats.Empty)
		fmt.Printf("  Chunks:    %d\n", stats.Chunks)
		for _, f := range stats.Failures {
			fmt.Fprintf(os.Stderr, "  index failed: %s: %v\n", f.Source, f.Err)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&flagReset, "reset", false, "wipe the index and re-embed every document")
	rootCmd.AddCommand(syncCmd)
}
