package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Recognizer string

const (
	RecognizerWhisper Recognizer = "whisper"
	RecognizerOpenAI  Recognizer = "openai"
	RecognizerNone    Recognizer = "none"
)

type VoiceKind string

const (
	VoiceEspeak  VoiceKind = "espeak"
	VoiceConsole VoiceKind = "console"
	VoiceNone    VoiceKind = "none"
)

type Config struct {
	// Lookups
	WikiURL     string        `env:"BEAST_WIKI_URL" envDefault:"https://en.wikipedia.org/api/rest_v1"`
	NewsURL     string        `env:"BEAST_NEWS_URL" envDefault:"https://newsapi.org/v2"`
	NewsAPIKey  string        `env:"NEWSAPI_KEY"`
	NewsCountry string        `env:"BEAST_NEWS_COUNTRY" envDefault:"us"`
	HTTPTimeout time.Duration `env:"BEAST_HTTP_TIMEOUT" envDefault:"10s"`
	Proxy       string        `env:"BEAST_PROXY"`

	// Speech
	Recognizer   Recognizer    `env:"BEAST_RECOGNIZER" envDefault:"whisper"`
	WhisperModel string        `env:"BEAST_WHISPER_MODEL" envDefault:"models/ggml-base.en.bin"`
	Language     string        `env:"BEAST_LANGUAGE" envDefault:"en"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	Voice        VoiceKind     `env:"BEAST_VOICE" envDefault:"espeak"`
	Earcon       string        `env:"BEAST_EARCON" envDefault:"beep.mp3"`
	MaxListen    time.Duration `env:"BEAST_MAX_LISTEN" envDefault:"10s"`

	// Ducking of other audio streams while narrating
	Duck       bool          `env:"BEAST_DUCK" envDefault:"false"`
	DuckFactor float64       `env:"BEAST_DUCK_FACTOR" envDefault:"0.3"`
	DuckFade   time.Duration `env:"BEAST_DUCK_FADE" envDefault:"300ms"`

	// Control surfaces
	HTTPAddr   string `env:"BEAST_HTTP_ADDR" envDefault:"127.0.0.1:8092"`
	SocketPath string `env:"BEAST_SOCKET" envDefault:"/tmp/beast.sock"`
	OpenPages  bool   `env:"BEAST_OPEN_PAGES" envDefault:"true"`

	RevealDelay  time.Duration `env:"BEAST_REVEAL_DELAY" envDefault:"30ms"`
	BriefingCron string        `env:"BEAST_BRIEFING_CRON"`
	CatalogPath  string        `env:"BEAST_CATALOG"`
}

// Load reads the process environment. Call godotenv before it so a .env
// file can supply values.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Recognizer {
	case RecognizerWhisper, RecognizerNone:
	case RecognizerOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("recognizer %q requires OPENAI_API_KEY", c.Recognizer)
		}
	default:
		return fmt.Errorf("unknown recognizer %q", c.Recognizer)
	}

	switch c.Voice {
	case VoiceEspeak, VoiceConsole, VoiceNone:
	default:
		return fmt.Errorf("unknown voice %q", c.Voice)
	}

	if c.DuckFactor < 0 || c.DuckFactor > 1 {
		return fmt.Errorf("duck factor %v out of range [0, 1]", c.DuckFactor)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}

	return nil
}
