package cli

import (
	"fmt"
	"os"

	"github.com/thierrypdamiba/claude-memory-kit/internal/config"
	"github.com/thierrypdamiba/claude-memory-kit/internal/embed"
	"github.com/thierrypdamiba/claude-memory-kit/internal/engine"
	"github.com/thierrypdamiba/claude-memory-kit/internal/llm"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store/chromem"
	"github.com/thierrypdamiba/claude-memory-kit/internal/store/sqlite"
)

// openEngine assembles the engine from configuration: embedder, storage
// backend, and synthesis provider. The returned close function must be
// called when the command is done.
func openEngine() (*engine.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	embedder := newEmbedder(cfg.Embedding)

	st, err := openStore(cfg.Storage, embedder)
	if err != nil {
		return nil, nil, err
	}

	var synth llm.Synthesizer
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: synthesis not configured (%v)\n", err)
	} else {
		synth = llm.NewSynth(client)
	}

	eng := engine.New(st, synth, nil)
	return eng, func() { st.Close() }, nil
}

// newEmbedder probes for a local Ollama and falls back to the
// deterministic hash embedder so search keeps working offline.
func newEmbedder(cfg config.EmbeddingConfig) embed.Embedder {
	if cfg.Provider == "ollama" && embed.ProbeOllama(cfg.OllamaURL, cfg.Model) {
		fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", cfg.Model)
		return embed.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	}
	fmt.Fprintln(os.Stderr, "  embedder: hash (no ollama detected)")
	return embed.NewHashEmbedder(0)
}

func openStore(cfg config.StorageConfig, embedder embed.Embedder) (store.Store, error) {
	switch cfg.Backend {
	case "chromem":
		path := cfg.Path
		if path == "" {
			dir, err := config.ConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolve store path: %w", err)
			}
			path = dir + "/chromem"
		}
		st, err := chromem.New(path, embedder)
		if err != nil {
			return nil, fmt.Errorf("open chromem store: %w", err)
		}
		return st, nil
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			var err error
			path, err = sqlite.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve db path: %w", err)
			}
		}
		st, err := sqlite.New(path, embedder)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (use sqlite or chromem)", cfg.Backend)
	}
}
