package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{Dimensions: 384},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "redis"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mongodb"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "mongodb") {
		t.Errorf("error should name the driver: %v", err)
	}
}

func TestValidate_OverlapMustBeSmallerThanChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.ChunkSize = 100
	cfg.Chunking.Overlap = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= chunk size")
	}
}

func TestValidate_DuplicateIndexNames(t *testing.T) {
	cfg := validConfig()
	cfg.Indexes = []IndexConfig{
		{Name: "degree_requirements"},
		{Name: "degree_requirements"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate index names")
	}
}

func TestValidate_SourceRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Indexes = []IndexConfig{
		{Name: "degree_requirements", Sources: []SourceConfig{{Program: "MS CS"}}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for source without path")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "memory" {
		t.Errorf("default driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Chunking.ChunkSize != 600 {
		t.Errorf("default chunk size = %d, want 600", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.Overlap != 100 {
		t.Errorf("default overlap = %d, want chunk_size/6 = 100", cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("default top_k = %d, want 5", cfg.Retrieval.TopK)
	}
	if len(cfg.Ratings.Columns.Professor) == 0 {
		t.Error("professor column aliases should default to a non-empty list")
	}
}

func TestApplyDefaults_OverlapFollowsChunkSize(t *testing.T) {
	cfg := Config{Chunking: ChunkingConfig{ChunkSize: 300}}
	cfg.ApplyDefaults()
	if cfg.Chunking.Overlap != 50 {
		t.Errorf("overlap = %d, want 50 (1/6 of 300)", cfg.Chunking.Overlap)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PATHWISE_TEST_KEY", "sk-test")

	raw := []byte(`
http:
  port: 8080
embedding:
  api_key: ${PATHWISE_TEST_KEY}
  dimensions: 384
generation:
  model: ${PATHWISE_TEST_MODEL:-gpt-4}
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api_key = %q, want sk-test", cfg.Embedding.APIKey)
	}
	if cfg.Generation.Model != "gpt-4" {
		t.Errorf("model = %q, want default gpt-4", cfg.Generation.Model)
	}
}

func TestParse_SourceList(t *testing.T) {
	raw := []byte(`
http:
  port: 8080
embedding:
  dimensions: 384
indexes:
  - name: degree_requirements
    sources:
      - path: data/ms_ds_requirements.pdf
        program: MS Data Science
        degree: MS
        catalog_year: 2023
ratings:
  path: data/prof_ratings.csv
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Indexes) != 1 || len(cfg.Indexes[0].Sources) != 1 {
		t.Fatalf("unexpected indexes: %+v", cfg.Indexes)
	}
	src := cfg.Indexes[0].Sources[0]
	if src.Program != "MS Data Science" || src.CatalogYear != 2023 {
		t.Errorf("unexpected source: %+v", src)
	}
}
