package ai

import "log"

// Config holds AI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string // OpenAI-compatible endpoint, e.g. "https://api.openai.com/v1"
	AdminModel  string
	OracleModel string
}

// NewPersonaClient creates a PersonaClient based on the config. Without an
// API key it falls back to the deterministic stub.
func NewPersonaClient(cfg Config) PersonaClient {
	if cfg.APIKey == "" {
		log.Println("[AI] No API key configured, using stub responses")
		return NewStubService()
	}
	return NewOpenAIService(cfg.APIKey, cfg.BaseURL, cfg.AdminModel, cfg.OracleModel)
}
