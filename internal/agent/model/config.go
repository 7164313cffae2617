package model

// ================ Config ================
type ConversationConfig struct {
	TTL   string `envconfig:"CONVERSATION_TTL" default:"24h"`
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"6"`
	}
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"16"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
}

type SummarizerModelConfig struct {
	Model       string  `envconfig:"SUMMARIZER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"SUMMARIZER_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"SUMMARIZER_TEMPERATURE" default:"0"`
}

type AgentModelConfig struct {
	Model       string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"AGENT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"AGENT_TEMPERATURE" default:"0"`
	// Temperature of the fallback agent, run warmer than the CRM agent.
	FallbackTemperature float32 `envconfig:"AGENT_FALLBACK_TEMPERATURE" default:"0.2"`
}

type CRMConfig struct {
	APIKey      string `envconfig:"DIDAR_API_KEY" required:"true"`
	BaseURL     string `envconfig:"DIDAR_BASE_URL" default:"https://app.didar.me/api"`
	Timeout     string `envconfig:"DIDAR_TIMEOUT" default:"10s"`
	SearchLimit int    `envconfig:"DIDAR_SEARCH_LIMIT" default:"30"`
}
