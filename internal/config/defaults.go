package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"provider":          "openai",
		"processor":         "gpt-4",
		"accelerator":       "gpt-4o-mini",
		"moderator":         "truncate",
		"temperature":       0.7,
		"max_tokens":        2048,
		"request_timeout":   60,
		"max_tool_rounds":   10,
		"context_limit":     100000,
		"cost_per_token":    0.0001,
		"stats_max_entries": 500,
		"log_level":         "INFO",
		"openai_base_url":   "",
	}
}
