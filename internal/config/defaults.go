package config

const (
	defaultDataDir             = "~/.local/share/scribed/data"
	defaultAudioDir            = "~/.local/share/scribed/audio"
	defaultLogDir              = "~/.local/share/scribed/logs"
	defaultAPIBind             = "127.0.0.1:8732"
	defaultTranscriptionURL    = "https://api.voxscribe.dev/v1"
	defaultLanguage            = "en"
	defaultMaxSpeakers         = 10
	defaultTranscribeTimeout   = 30
	defaultAnalysisURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultAnalysisModel       = "anthropic/claude-3.5-sonnet"
	defaultAnalysisMaxTokens   = 4000
	defaultAnalysisTimeout     = 120
	defaultSessionPollInterval = 15
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			AudioDir: defaultAudioDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Transcription: Transcription{
			BaseURL:        defaultTranscriptionURL,
			Language:       defaultLanguage,
			MaxSpeakers:    defaultMaxSpeakers,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Analysis: Analysis{
			BaseURL:        defaultAnalysisURL,
			Model:          defaultAnalysisModel,
			MaxTokens:      defaultAnalysisMaxTokens,
			TimeoutSeconds: defaultAnalysisTimeout,
		},
		Workflow: Workflow{
			PollerEnabled:       true,
			SessionPollInterval: defaultSessionPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
