package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/koscakluka/ema-dashboard/core/texttospeech/xfyun"
)

const (
	DefaultHTTPAddress       = ":3000"
	DefaultAIModel           = "qwen-plus"
	DefaultTelemetryInterval = 5 * time.Second
	DefaultServerURL         = "http://localhost:3000"
)

// Config holds the settings shared by the dashboard server and the
// assistant.
type Config struct {
	HTTPAddress string
	ServerURL   string

	AI AIConfig
	// TTS are the Xunfei credentials used to sign synthesis URLs.
	TTS xfyun.Credentials

	TelemetryInterval time.Duration
	DeepgramAPIKey    string

	Phrases Phrases
}

type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	DebugPrompt bool
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		HTTPAddress:       DefaultHTTPAddress,
		ServerURL:         DefaultServerURL,
		AI:                AIConfig{Model: DefaultAIModel},
		TelemetryInterval: DefaultTelemetryInterval,
	}

	if address := os.Getenv("HTTP_ADDRESS"); address != "" {
		config.HTTPAddress = address
	}
	if serverURL := os.Getenv("ASSISTANT_SERVER_URL"); serverURL != "" {
		config.ServerURL = serverURL
	}

	config.AI.APIKey = os.Getenv("AI_API_KEY")
	config.AI.BaseURL = os.Getenv("AI_BASE_URL")
	if model := os.Getenv("AI_MODEL"); model != "" {
		config.AI.Model = model
	}
	if debug := os.Getenv("AI_DEBUG_PROMPT"); debug != "" {
		enabled, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, fmt.Errorf("invalid AI_DEBUG_PROMPT: %w", err)
		}
		config.AI.DebugPrompt = enabled
	}

	config.TTS = xfyun.Credentials{
		AppID:     os.Getenv("APPID"),
		APIKey:    os.Getenv("APIKey"),
		APISecret: os.Getenv("APISecret"),
	}
	config.DeepgramAPIKey = os.Getenv("DEEPGRAM_API_KEY")

	// TELEMETRY_INTERVAL accepts a Go duration or plain seconds
	if interval := os.Getenv("TELEMETRY_INTERVAL"); interval != "" {
		d, err := parseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEMETRY_INTERVAL: %w", err)
		}
		config.TelemetryInterval = d
	}

	if path := os.Getenv("ASSISTANT_PHRASES_FILE"); path != "" {
		phrases, err := LoadPhrases(path)
		if err != nil {
			return nil, err
		}
		config.Phrases = phrases
	}

	return config, nil
}

func parseDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}
