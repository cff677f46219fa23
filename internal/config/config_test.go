package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("unexpected default api port: %q", cfg.APIPort)
	}
	if cfg.EmbeddingDim != 768 {
		t.Fatalf("unexpected default embedding dim: %d", cfg.EmbeddingDim)
	}
	if cfg.GenerationBackend != "ollama" {
		t.Fatalf("unexpected default backend: %q", cfg.GenerationBackend)
	}
	if cfg.RAGTopK != 10 || cfg.RAGScoreThreshold != 0.5 {
		t.Fatalf("unexpected rag defaults: topK=%d threshold=%v", cfg.RAGTopK, cfg.RAGScoreThreshold)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "4")
	t.Setenv("OLLAMA_TEMPERATURE", "0.7")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()
	if cfg.RAGTopK != 4 {
		t.Fatalf("expected env override for top_k, got %d", cfg.RAGTopK)
	}
	if cfg.OllamaTemperature != 0.7 {
		t.Fatalf("expected env override for temperature, got %v", cfg.OllamaTemperature)
	}
	if !cfg.MinioUseSSL {
		t.Fatalf("expected env override for ssl flag")
	}
}

func TestMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("RAG_TOP_K", "sok")
	t.Setenv("OLLAMA_TEMPERATURE", "hideg")

	cfg := Load()
	if cfg.RAGTopK != 10 {
		t.Fatalf("malformed int must fall back, got %d", cfg.RAGTopK)
	}
	if cfg.OllamaTemperature != 0.1 {
		t.Fatalf("malformed float must fall back, got %v", cfg.OllamaTemperature)
	}
}
