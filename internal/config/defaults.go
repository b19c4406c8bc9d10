package config

const (
	defaultLLMBaseURL     = "http://localhost:11434"
	defaultLLMModel       = "qwen3:8b"
	defaultLLMTimeout     = 60
	defaultLLMRetries     = 3
	defaultLLMWorkers     = 1
	defaultHistoryPath    = "~/.local/state/episodic/history.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	maxLLMWorkers         = 8
	maxLLMTimeoutSeconds  = 600
	maxLLMRetryAttempts   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			VideoExtensions:    []string{".mkv", ".mp4", ".avi"},
			SubtitleExtensions: []string{".srt", ".ass", ".sub"},
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
			RetryAttempts:  defaultLLMRetries,
			Workers:        defaultLLMWorkers,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
