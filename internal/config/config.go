package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StoreConfig points at the remote document container.
type StoreConfig struct {
	AccountURL  string `yaml:"account_url"`
	Container   string `yaml:"container"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder.
type OpenAIEmbedderConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// SplitterConfig configures how extracted page text is split into chunks.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// SearchConfig configures the retrieval ranking engine.
type SearchConfig struct {
	TopN int `yaml:"top_n"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Store     StoreConfig    `yaml:"store"`
	MirrorDir string         `yaml:"mirror_dir"`
	DBPath    string         `yaml:"db_path"`
	Embedder  EmbedderConfig `yaml:"embedder"`
	Splitter  SplitterConfig `yaml:"splitter"`
	Search    SearchConfig   `yaml:"search"`
}

// Load reads a config from the given path. If the file does not exist,
// defaults are returned.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./guidesearch.yaml first, then
// ~/.config/guidesearch/config.yaml. If neither exists, defaults are returned.
func LoadDefault() (*AppConfig, error) {
	cwdPath := "guidesearch.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		return Load(cwdPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	return Load(filepath.Join(home, ".config", "guidesearch", "config.yaml"))
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Store.AccountURL == "" {
		cfg.Store.AccountURL = "https://meddocsearchsa.blob.core.windows.net/"
	}
	if cfg.Store.Container == "" {
		cfg.Store.Container = "med-docs"
	}
	if cfg.Store.TimeoutSecs == 0 {
		cfg.Store.TimeoutSecs = 60
	}
	if cfg.MirrorDir == "" {
		cfg.MirrorDir = filepath.Join(dataDir(), "mirror")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir(), "guidelines.db")
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
		if cfg.Embedder.Dimension == 0 {
			cfg.Embedder.Dimension = 1536
		}
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.BatchSize == 0 {
			cfg.Embedder.Ollama.BatchSize = 32
		}
		if cfg.Embedder.Dimension == 0 {
			cfg.Embedder.Dimension = 768
		}
	}
	if cfg.Splitter.ChunkSize == 0 {
		cfg.Splitter.ChunkSize = 1500
	}
	if cfg.Splitter.ChunkOverlap == 0 {
		cfg.Splitter.ChunkOverlap = 300
	}
	if cfg.Search.TopN == 0 {
		cfg.Search.TopN = 4
	}
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guidesearch"
	}
	return filepath.Join(home, ".guidesearch")
}
