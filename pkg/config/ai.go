package config

// AIConfig holds provider credentials. Per-agent llm blobs may override the
// api key; everything else comes from here.
type AIConfig struct {
	OpenAIAPIKey string

	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string

	AnthropicAPIKey string

	BedrockRegion string

	GeminiAPIKey   string
	GeminiProject  string
	GeminiLocation string

	// EmbeddingProvider selects the embedder used for ingestion and retrieval: openai | azure-openai | gemini.
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingDimensions int

	DefaultProvider string
	DefaultModel    string

	PsychicSecretKey string
}

type VectorStoreConfig struct {
	Provider  string // memory | pgvector
	IndexName string
	Dimension int
	Metric    string
	TableName string
}

type IngestionConfig struct {
	SplitterType string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Workers      int
	FetchTimeout int // seconds
}

func loadAIConfig() AIConfig {
	return AIConfig{
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		AzureEndpoint:       getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureAPIKey:         getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2024-06-01"),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		BedrockRegion:       getEnv("BEDROCK_REGION", getEnv("AWS_REGION", "us-east-1")),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiProject:       getEnv("GEMINI_PROJECT", ""),
		GeminiLocation:      getEnv("GEMINI_LOCATION", "us-central1"),
		EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", ""),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 1536),
		DefaultProvider:     getEnv("DEFAULT_LLM_PROVIDER", "openai-chat"),
		DefaultModel:        getEnv("DEFAULT_LLM_MODEL", ""),
		PsychicSecretKey:    getEnv("PSYCHIC_SECRET_KEY", ""),
	}
}

func loadVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		Provider:  getEnv("VECTORSTORE", "pgvector"),
		IndexName: getEnv("VECTORSTORE_INDEX", "superagent"),
		Dimension: getEnvInt("EMBEDDING_DIMENSIONS", 1536),
		Metric:    getEnv("VECTORSTORE_METRIC", "cosine"),
		TableName: getEnv("VECTORSTORE_TABLE", "vectors"),
	}
}

func loadIngestionConfig() IngestionConfig {
	return IngestionConfig{
		SplitterType: getEnv("INGEST_SPLITTER", "recursive"),
		ChunkSize:    getEnvInt("INGEST_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("INGEST_CHUNK_OVERLAP", 20),
		BatchSize:    getEnvInt("INGEST_BATCH_SIZE", 100),
		Workers:      getEnvInt("INGEST_WORKERS", 4),
		FetchTimeout: getEnvInt("INGEST_FETCH_TIMEOUT_SECONDS", 30),
	}
}
