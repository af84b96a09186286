// Package config provides functionality for loading, saving, and managing
// application configuration settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"entropy/local-app/src/pkg/model"
)

// EnvPrefix prefixes every environment override, e.g. ENTROPY_LOG_LEVEL.
const EnvPrefix = "ENTROPY"

// Global variables to store the current configuration and its file path.
var (
	currentConfig *model.Config
	configPath    = "./data/config.json"
	envPath       = ".env"
)

// overridable lists the config keys that may be replaced from the environment.
var overridable = []string{
	"database_dir", "database_file", "log_folder", "log_level", "history_file",
	"mindmap_name", "system_theme", "response_delay_ms", "sticky_response_delay_ms",
	"autosave_delay_ms", "http_addr", "embedding_dim", "similarity_threshold",
	"llm.provider", "llm.model", "llm.temperature", "llm.max_tokens",
	"llm.system_prompt", "llm.base_url",
}

// SetPath changes the config file location. It must be called before ConfigLoad.
func SetPath(path string) {
	if path != "" {
		configPath = path
	}
}

// SetEnvFile changes the dotenv file read by ConfigLoad.
func SetEnvFile(path string) {
	envPath = path
}

// Path returns the config file location.
func Path() string {
	return configPath
}

// Default returns the configuration written when no config file exists.
func Default() *model.Config {
	return &model.Config{
		DatabaseType:          "sqlite",
		DatabaseDir:           "./data",
		DatabaseFile:          "entropy.db",
		LogFolder:             "./logs",
		CommandLog:            "commands.log",
		ErrorLog:              "errors.log",
		InfoLog:               "info.log",
		LogLevel:              "info",
		HistoryFile:           "./data/history",
		MindmapName:           model.DefaultMindmapName,
		SystemTheme:           string(model.ThemeLight),
		ResponseDelayMs:       1000,
		StickyResponseDelayMs: 1000,
		AutosaveDelayMs:       1000,
		HTTPAddr:              "127.0.0.1:8420",
		EmbeddingDim:          256,
		SimilarityThreshold:   0.7,
		LLM:                   model.DefaultLLMConfig(),
	}
}

// ConfigLoad loads the configuration from the JSON file.
// If the file doesn't exist, it creates a default configuration.
// Values from the environment (and the optional .env file) take precedence.
func ConfigLoad() error {
	// Ensure the data directory exists
	dataDir := filepath.Dir(configPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg := Default()
	file, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := ConfigSave(cfg); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return fmt.Errorf("error reading config file: %w", err)
	default:
		loaded := &model.Config{}
		if err := json.Unmarshal(file, loaded); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
		if fillDefaults(loaded, cfg) {
			if err := ConfigSave(loaded); err != nil {
				return fmt.Errorf("failed to save updated config: %w", err)
			}
		}
		cfg = loaded
	}

	if err := applyEnv(cfg); err != nil {
		return err
	}
	if err := model.Validate(&cfg.LLM); err != nil {
		return fmt.Errorf("invalid llm config: %w", err)
	}

	currentConfig = cfg
	return nil
}

// fillDefaults copies defaults into unset fields and reports whether anything changed.
func fillDefaults(cfg, def *model.Config) bool {
	changed := false
	setString := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
			changed = true
		}
	}
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
			changed = true
		}
	}

	setString(&cfg.DatabaseType, def.DatabaseType)
	setString(&cfg.DatabaseDir, def.DatabaseDir)
	setString(&cfg.DatabaseFile, def.DatabaseFile)
	setString(&cfg.LogFolder, def.LogFolder)
	setString(&cfg.CommandLog, def.CommandLog)
	setString(&cfg.ErrorLog, def.ErrorLog)
	setString(&cfg.InfoLog, def.InfoLog)
	setString(&cfg.LogLevel, def.LogLevel)
	setString(&cfg.HistoryFile, def.HistoryFile)
	setString(&cfg.MindmapName, def.MindmapName)
	setString(&cfg.SystemTheme, def.SystemTheme)
	setString(&cfg.HTTPAddr, def.HTTPAddr)
	setInt(&cfg.EmbeddingDim, def.EmbeddingDim)
	setInt(&cfg.AutosaveDelayMs, def.AutosaveDelayMs)
	setString((*string)(&cfg.LLM.Provider), string(def.LLM.Provider))
	setString(&cfg.LLM.Model, def.LLM.Model)
	setInt(&cfg.LLM.MaxTokens, def.LLM.MaxTokens)
	return changed
}

// applyEnv overlays ENTROPY_* variables and the provider API keys onto cfg.
func applyEnv(cfg *model.Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("anthropic_api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return fmt.Errorf("failed to bind anthropic key: %w", err)
	}
	if err := v.BindEnv("openai_api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return fmt.Errorf("failed to bind openai key: %w", err)
	}
	cfg.AnthropicAPIKey = v.GetString("anthropic_api_key")
	cfg.OpenAIAPIKey = v.GetString("openai_api_key")

	for _, key := range overridable {
		if !v.IsSet(key) {
			continue
		}
		switch key {
		case "database_dir":
			cfg.DatabaseDir = v.GetString(key)
		case "database_file":
			cfg.DatabaseFile = v.GetString(key)
		case "log_folder":
			cfg.LogFolder = v.GetString(key)
		case "log_level":
			cfg.LogLevel = v.GetString(key)
		case "history_file":
			cfg.HistoryFile = v.GetString(key)
		case "mindmap_name":
			cfg.MindmapName = v.GetString(key)
		case "system_theme":
			cfg.SystemTheme = v.GetString(key)
		case "response_delay_ms":
			cfg.ResponseDelayMs = v.GetInt(key)
		case "sticky_response_delay_ms":
			cfg.StickyResponseDelayMs = v.GetInt(key)
		case "autosave_delay_ms":
			cfg.AutosaveDelayMs = v.GetInt(key)
		case "http_addr":
			cfg.HTTPAddr = v.GetString(key)
		case "embedding_dim":
			cfg.EmbeddingDim = v.GetInt(key)
		case "similarity_threshold":
			cfg.SimilarityThreshold = v.GetFloat64(key)
		case "llm.provider":
			cfg.LLM.Provider = model.Provider(v.GetString(key))
		case "llm.model":
			cfg.LLM.Model = v.GetString(key)
		case "llm.temperature":
			cfg.LLM.Temperature = v.GetFloat64(key)
		case "llm.max_tokens":
			cfg.LLM.MaxTokens = v.GetInt(key)
		case "llm.system_prompt":
			cfg.LLM.SystemPrompt = v.GetString(key)
		case "llm.base_url":
			cfg.LLM.BaseURL = v.GetString(key)
		}
	}
	return nil
}

// ConfigSave saves the provided configuration to the JSON file.
func ConfigSave(cfg *model.Config) error {
	// Marshal the config to JSON
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write the JSON data to the config file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ConfigGet returns the current configuration.
func ConfigGet() *model.Config {
	return currentConfig
}
