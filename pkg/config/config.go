// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	PublicBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	DataDir       string `env:"DATA_DIR" envDefault:"output"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Store      string `env:"STORE" envDefault:"sqlite"` // sqlite or file
	SQLitePath string `env:"SQLITE_PATH" envDefault:"output/mirai.db"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`

	// Text generation. TEXT_PROVIDER is openai, grok, moonshot or gemini.
	TextProvider  string `env:"TEXT_PROVIDER" envDefault:"openai"`
	TextModel     string `env:"TEXT_MODEL"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	GrokKey       string `env:"GROK_API_KEY"`
	MoonshotKey   string `env:"MOONSHOT_API_KEY"`
	GeminiKey     string `env:"GEMINI_API_KEY"`

	// Images. IMAGE_PROVIDER is openai or gemini.
	ImageProvider string `env:"IMAGE_PROVIDER" envDefault:"openai"`
	ImageModel    string `env:"IMAGE_MODEL"`
	ImageWidth    int    `env:"IMAGE_WIDTH" envDefault:"1280"`
	ImageHeight   int    `env:"IMAGE_HEIGHT" envDefault:"720"`
	ImageWorkers  int    `env:"IMAGE_WORKERS" envDefault:"2"`
	ImageQueue    int    `env:"IMAGE_QUEUE" envDefault:"64"`
	VideoFPS      int    `env:"VIDEO_FPS" envDefault:"24"`

	ElevenLabsKey     string        `env:"ELEVENLABS_API_KEY"`
	ElevenLabsBaseURL string        `env:"ELEVENLABS_BASE_URL"`
	ElevenLabsModel   string        `env:"ELEVENLABS_MODEL"`
	NarratorVoice     string        `env:"NARRATOR_VOICE"`
	VoiceCatalogTTL   time.Duration `env:"VOICE_CATALOG_TTL" envDefault:"1h"`

	TranscriptionModel string `env:"TRANSCRIPTION_MODEL"`

	FFmpegPath  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	// Concurrency bounds simultaneous calls to media providers.
	Concurrency int64 `env:"MEDIA_CONCURRENCY" envDefault:"4"`

	MaxAttempts    int           `env:"GENERATION_MAX_ATTEMPTS" envDefault:"5"`
	RetryBaseDelay time.Duration `env:"GENERATION_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay  time.Duration `env:"GENERATION_MAX_DELAY" envDefault:"30s"`

	SoundMin           float64 `env:"SOUND_MIN_SECONDS" envDefault:"1"`
	SoundMax           float64 `env:"SOUND_MAX_SECONDS" envDefault:"22"`
	SoundEffectMax     float64 `env:"SOUND_EFFECT_MAX_SECONDS" envDefault:"5"`
	SoundMaxEffects    int     `env:"SOUND_MAX_EFFECTS" envDefault:"3"`
	SoundEffectVolume  float64 `env:"SOUND_EFFECT_VOLUME" envDefault:"0.5"`
	SoundAmbientVolume float64 `env:"SOUND_AMBIENT_VOLUME" envDefault:"0.3"`
	SoundFadeRatio     float64 `env:"SOUND_FADE_RATIO" envDefault:"0.1"`
}

// Load parses the environment. .env files are loaded by the caller.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var problems []string
	switch c.Store {
	case "sqlite", "file":
	default:
		problems = append(problems, fmt.Sprintf("STORE must be sqlite or file, got %q", c.Store))
	}
	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 bytes")
	}
	if c.SoundMin <= 0 || c.SoundMax < c.SoundMin || c.SoundEffectMax < c.SoundMin {
		problems = append(problems, "sound bounds must satisfy 0 < SOUND_MIN_SECONDS <= SOUND_EFFECT_MAX_SECONDS, SOUND_MAX_SECONDS")
	}
	if c.Concurrency < 1 {
		problems = append(problems, "MEDIA_CONCURRENCY must be at least 1")
	}
	if c.SoundEffectVolume <= 0 || c.SoundAmbientVolume <= 0 {
		problems = append(problems, "SOUND_EFFECT_VOLUME and SOUND_AMBIENT_VOLUME must be greater than 0")
	}
	if int64(c.ImageQueue) < c.Concurrency {
		problems = append(problems, "IMAGE_QUEUE must be at least MEDIA_CONCURRENCY")
	}
	if c.MaxAttempts < 1 {
		problems = append(problems, "GENERATION_MAX_ATTEMPTS must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
