package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"guidesearch/internal/blobstore"
	"guidesearch/internal/config"
	"guidesearch/internal/decompose"
	"guidesearch/internal/embedder"
	"guidesearch/internal/ingest"
	"guidesearch/internal/mirror"
	"guidesearch/internal/search"
	"guidesearch/internal/store"
)

var (
	flagConfig string
	flagDB     string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "guidesearch",
	Short: "Semantic search over a mirrored medical guideline library",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env next to the working directory may carry OPENAI_API_KEY.
		_ = godotenv.Load()

		var err error
		if flagConfig != "" {
			cfg, err = config.Load(flagConfig)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return err
		}
		if flagDB != "" {
			cfg.DBPath = flagDB
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./guidesearch.yaml, then ~/.config/guidesearch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "index database path (default ~/.guidesearch/guidelines.db)")
}

// openStore opens the index database, creating its directory if needed.
func openStore() (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, err
	}
	return store.Open(cfg.DBPath, cfg.Embedder.Dimension)
}

// newSynchronizer builds the mirror synchronizer for the configured container.
func newSynchronizer() *mirror.Synchronizer {
	client := blobstore.NewAzureClient(
		cfg.Store.AccountURL,
		cfg.Store.Container,
		time.Duration(cfg.Store.TimeoutSecs)*time.Second,
	)
	return mirror.New(client, cfg.MirrorDir)
}

// newPipeline builds the ingestion pipeline on top of an open store.
func newPipeline(st store.Store) (*ingest.Pipeline, error) {
	emb, err := embedder.New(&cfg.Embedder)
	if err != nil {
		return nil, err
	}
	dec := decompose.NewPDFDecomposer(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	return ingest.New(st, dec, emb), nil
}

// newEngine builds the retrieval engine on top of an open store.
func newEngine(st store.Store) (*search.Engine, error) {
	emb, err := embedder.New(&cfg.Embedder)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(st, emb, cfg.Search.TopN), nil
}
