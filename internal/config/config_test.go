package config

import "testing"

func TestCodeEmbedderGetters(t *testing.T) {
	// Test with no code-specific configuration (should fallback to defaults)
	cfg := &Config{
		OllamaModel: "nomic-embed-text",
		OpenAIModel: "text-embedding-3-large",
	}

	if got := cfg.GetCodeOllamaModel(); got != "nomic-embed-text" {
		t.Errorf("GetCodeOllamaModel() = %q, want %q", got, "nomic-embed-text")
	}
	if got := cfg.GetCodeOpenAIModel(); got != "text-embedding-3-large" {
		t.Errorf("GetCodeOpenAIModel() = %q, want %q", got, "text-embedding-3-large")
	}
	if cfg.HasCodeSpecificEmbedder() {
		t.Error("HasCodeSpecificEmbedder() = true, want false")
	}
}

func TestCodeEmbedderGettersWithOverrides(t *testing.T) {
	cfg := &Config{
		OllamaModel:     "nomic-embed-text",
		OpenAIModel:     "text-embedding-3-large",
		CodeOllamaModel: "jina/jina-embeddings-v2-base-code",
		CodeOpenAIModel: "text-embedding-3-small",
	}

	if got := cfg.GetCodeOllamaModel(); got != "jina/jina-embeddings-v2-base-code" {
		t.Errorf("GetCodeOllamaModel() = %q, want %q", got, "jina/jina-embeddings-v2-base-code")
	}
	if got := cfg.GetCodeOpenAIModel(); got != "text-embedding-3-small" {
		t.Errorf("GetCodeOpenAIModel() = %q, want %q", got, "text-embedding-3-small")
	}
	if !cfg.HasCodeSpecificEmbedder() {
		t.Error("HasCodeSpecificEmbedder() = false, want true")
	}
}

func TestCodeEmbedderGettersPartialOverride(t *testing.T) {
	cfg := &Config{
		OllamaModel:     "nomic-embed-text",
		OpenAIModel:     "text-embedding-3-large",
		CodeOllamaModel: "jina/jina-embeddings-v2-base-code",
	}

	if got := cfg.GetCodeOllamaModel(); got != "jina/jina-embeddings-v2-base-code" {
		t.Errorf("GetCodeOllamaModel() = %q, want %q", got, "jina/jina-embeddings-v2-base-code")
	}
	if got := cfg.GetCodeOpenAIModel(); got != "text-embedding-3-large" {
		t.Errorf("GetCodeOpenAIModel() = %q, want %q", got, "text-embedding-3-large")
	}
	if !cfg.HasCodeSpecificEmbedder() {
		t.Error("HasCodeSpecificEmbedder() = false, want true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing db path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "valid in-memory",
			cfg:     Config{DbPath: ":memory:", JournalMode: "wal", CypherMaxHops: 15, DefaultTopK: 10},
			wantErr: false,
		},
		{
			name:    "invalid journal mode",
			cfg:     Config{DbPath: "./g.db", JournalMode: "truncate", DefaultTopK: 10},
			wantErr: true,
		},
		{
			name:    "negative max hops",
			cfg:     Config{DbPath: "./g.db", CypherMaxHops: -1, DefaultTopK: 10},
			wantErr: true,
		},
		{
			name:    "zero top-k",
			cfg:     Config{DbPath: "./g.db", DefaultTopK: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
