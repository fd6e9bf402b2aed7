package model

// ================ Config ================
type AgentConfig struct {
	// MultiStep lets the model keep calling tools after the first round; otherwise
	// the run stops right after the first tool results.
	MultiStep        bool   `envconfig:"AGENT_MULTI_STEP" default:"false"`
	MaxSteps         int    `envconfig:"AGENT_MAX_STEPS" default:"25"`
	MaxToolCalls     int    `envconfig:"AGENT_MAX_TOOL_CALLS" default:"6"`
	DefaultUserID    string `envconfig:"DEFAULT_USER_ID" default:"2001"`
	ReturnWindowDays int    `envconfig:"RETURN_WINDOW_DAYS" default:"7"`
}

type ChatModelConfig struct {
	APIKey         string  `envconfig:"GEMINI_API_KEY"`
	BaseURL        string  `envconfig:"GEMINI_BASE_URL"`
	Model          string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"CHAT_TEMPERATURE" default:"0.2"`
	ThinkingBudget int32   `envconfig:"CHAT_THINKING_BUDGET" default:"0"`
}

type RAGConfig struct {
	Collection     string `envconfig:"RAG_COLLECTION" default:"return_policy"`
	PolicyPath     string `envconfig:"RAG_POLICY_PATH" default:"data/return_policy.txt"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	EmbeddingDims  int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	ChunkSize      int    `envconfig:"RAG_CHUNK_SIZE" default:"500"`
	ChunkOverlap   int    `envconfig:"RAG_CHUNK_OVERLAP" default:"50"`
}
