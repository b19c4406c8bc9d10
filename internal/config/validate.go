package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScan() error {
	if len(c.Scan.VideoExtensions) == 0 && len(c.Scan.SubtitleExtensions) == 0 {
		return fmt.Errorf("scan: at least one video or subtitle extension must be configured")
	}
	for _, ext := range c.Scan.VideoExtensions {
		for _, sub := range c.Scan.SubtitleExtensions {
			if ext == sub {
				return fmt.Errorf("scan: extension %q listed as both video and subtitle", ext)
			}
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm: base_url must not be empty")
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm: base_url %q must be an http(s) URL", c.LLM.BaseURL)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm: model must not be empty")
	}
	if c.LLM.TimeoutSeconds <= 0 || c.LLM.TimeoutSeconds > maxLLMTimeoutSeconds {
		return fmt.Errorf("llm: timeout_seconds must be between 1 and %d", maxLLMTimeoutSeconds)
	}
	if c.LLM.RetryAttempts < 1 || c.LLM.RetryAttempts > maxLLMRetryAttempts {
		return fmt.Errorf("llm: retry_attempts must be between 1 and %d", maxLLMRetryAttempts)
	}
	if c.LLM.Workers < 1 || c.LLM.Workers > maxLLMWorkers {
		return fmt.Errorf("llm: workers must be between 1 and %d", maxLLMWorkers)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return fmt.Errorf("history: path must be set when history is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging: unsupported format %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unsupported level %q", c.Logging.Level)
	}
	return nil
}
