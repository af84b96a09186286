// Package model defines the data structures used throughout the Entropy application.
package model

// Config holds the application settings persisted in the config file.
type Config struct {
	DatabaseType          string    `json:"database_type" mapstructure:"database_type"`
	DatabaseDir           string    `json:"database_dir" mapstructure:"database_dir"`
	DatabaseFile          string    `json:"database_file" mapstructure:"database_file"`
	LogFolder             string    `json:"log_folder" mapstructure:"log_folder"`
	CommandLog            string    `json:"command_log" mapstructure:"command_log"`
	ErrorLog              string    `json:"error_log" mapstructure:"error_log"`
	InfoLog               string    `json:"info_log" mapstructure:"info_log"`
	LogLevel              string    `json:"log_level" mapstructure:"log_level"`
	HistoryFile           string    `json:"history_file" mapstructure:"history_file"`
	MindmapName           string    `json:"mindmap_name" mapstructure:"mindmap_name"`
	SystemTheme           string    `json:"system_theme" mapstructure:"system_theme"`
	ResponseDelayMs       int       `json:"response_delay_ms" mapstructure:"response_delay_ms"`
	StickyResponseDelayMs int       `json:"sticky_response_delay_ms" mapstructure:"sticky_response_delay_ms"`
	AutosaveDelayMs       int       `json:"autosave_delay_ms" mapstructure:"autosave_delay_ms"`
	HTTPAddr              string    `json:"http_addr" mapstructure:"http_addr"`
	EmbeddingDim          int       `json:"embedding_dim" mapstructure:"embedding_dim"`
	SimilarityThreshold   float64   `json:"similarity_threshold" mapstructure:"similarity_threshold"`
	LLM                   LLMConfig `json:"llm" mapstructure:"llm"`

	// Provider keys only come from the environment and are never written back.
	AnthropicAPIKey string `json:"-" mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `json:"-" mapstructure:"openai_api_key"`
}

// Provider names an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// LLMConfig describes how replies are generated.
type LLMConfig struct {
	Provider     Provider `json:"provider" yaml:"provider" mapstructure:"provider" validate:"required,oneof=openai anthropic ollama"`
	Model        string   `json:"model" yaml:"model" mapstructure:"model" validate:"required"`
	Temperature  float64  `json:"temperature" yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int      `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	SystemPrompt string   `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty" mapstructure:"system_prompt"`
	BaseURL      string   `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`
}

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// DefaultLLMConfig returns the configuration used when none is given.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4-turbo-preview",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}
