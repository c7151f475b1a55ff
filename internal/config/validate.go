package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for values that would prevent the daemon
// from operating correctly.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must not be empty")
	}
	if bind := strings.TrimSpace(c.Paths.APIBind); bind != "" {
		if _, _, err := net.SplitHostPort(bind); err != nil {
			return fmt.Errorf("paths.api_bind %q is not host:port: %w", bind, err)
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !strings.HasPrefix(c.Transcription.BaseURL, "http://") && !strings.HasPrefix(c.Transcription.BaseURL, "https://") {
		return fmt.Errorf("transcription.base_url %q must be an http(s) URL", c.Transcription.BaseURL)
	}
	if c.Transcription.MaxSpeakers > 30 {
		return fmt.Errorf("transcription.max_speakers %d exceeds provider limit of 30", c.Transcription.MaxSpeakers)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if !strings.HasPrefix(c.Analysis.BaseURL, "http://") && !strings.HasPrefix(c.Analysis.BaseURL, "https://") {
		return fmt.Errorf("analysis.base_url %q must be an http(s) URL", c.Analysis.BaseURL)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.SessionPollInterval < 1 {
		return fmt.Errorf("workflow.session_poll_interval must be at least 1 second, got %d", c.Workflow.SessionPollInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
