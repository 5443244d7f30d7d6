// Package config loads service configuration from an optional YAML file plus
// environment variables. A .env file is honored for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend selectors. Adapters are constructed once at startup from these.
const (
	STTBackendWhisper = "whisper"
	STTBackendGoogle  = "google"
	STTBackendMock    = "mock"

	RewriteBackendGemini = "gemini"
	RewriteBackendOpenAI = "openai"
	RewriteBackendMock   = "mock"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// PathsConfig holds every directory and file the service writes to.
type PathsConfig struct {
	TempDir       string `yaml:"temp_dir"`
	AudioDir      string `yaml:"audio_dir"`
	EmbeddingDir  string `yaml:"embedding_dir"`
	EnrollmentDir string `yaml:"enrollment_dir"`
	HistoryPath   string `yaml:"history_path"`
}

// UploadConfig restricts what clients may send.
type UploadConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// STTConfig selects and tunes the transcription backend.
type STTConfig struct {
	Backend   string `yaml:"backend"`
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
}

// RewriteConfig selects and tunes the text rewriting backend.
type RewriteConfig struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// SynthesisConfig tunes the neutral TTS server client.
type SynthesisConfig struct {
	TTSServerURL   string  `yaml:"tts_server_url"`
	Language       string  `yaml:"language"`
	Speaker        string  `yaml:"speaker"`
	Speed          float64 `yaml:"speed"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// ToolsConfig points at the external binaries the service shells out to.
type ToolsConfig struct {
	FFmpeg    string `yaml:"ffmpeg"`
	OpenVoice string `yaml:"openvoice"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Paths     PathsConfig     `yaml:"paths"`
	Upload    UploadConfig    `yaml:"upload"`
	STT       STTConfig       `yaml:"stt"`
	Rewrite   RewriteConfig   `yaml:"rewrite"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Tools     ToolsConfig     `yaml:"tools"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Paths: PathsConfig{
			TempDir:       "data/tmp",
			AudioDir:      "data/audio",
			EmbeddingDir:  "data/se_cache",
			EnrollmentDir: "data/audio_cache/users",
			HistoryPath:   "data/history.jsonl",
		},
		Upload: UploadConfig{
			AllowedExtensions: []string{".wav", ".mp3", ".m4a", ".mp4", ".ogg", ".flac", ".webm"},
		},
		STT: STTConfig{
			Backend:   STTBackendWhisper,
			ModelPath: "models/ggml-base.en.bin",
			Language:  "en",
		},
		Rewrite: RewriteConfig{
			Backend:     RewriteBackendGemini,
			Temperature: 0.7,
		},
		Synthesis: SynthesisConfig{
			TTSServerURL:   "http://localhost:8002",
			Language:       "EN",
			Speaker:        "EN-US",
			Speed:          1.0,
			TimeoutSeconds: 60,
		},
		Tools: ToolsConfig{
			FFmpeg:    "ffmpeg",
			OpenVoice: "openvoice",
		},
	}
}

// Load builds the configuration: .env (if present), then defaults, then the
// YAML file at path (if non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it only exists in development setups.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.STT.Backend {
	case STTBackendWhisper, STTBackendGoogle, STTBackendMock:
	default:
		return fmt.Errorf("unknown stt backend %q", c.STT.Backend)
	}
	if c.STT.Backend == STTBackendWhisper && c.STT.ModelPath == "" {
		return fmt.Errorf("stt.model_path is required for the whisper backend")
	}

	switch c.Rewrite.Backend {
	case RewriteBackendGemini, RewriteBackendOpenAI, RewriteBackendMock:
	default:
		return fmt.Errorf("unknown rewrite backend %q", c.Rewrite.Backend)
	}

	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("upload.allowed_extensions must not be empty")
	}
	return nil
}

// EnsureDirs creates every directory the service writes into.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.Paths.TempDir,
		c.Paths.AudioDir,
		c.Paths.EmbeddingDir,
		c.Paths.EnrollmentDir,
		filepath.Dir(c.Paths.HistoryPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SynthesisTimeout returns the configured synthesis HTTP timeout.
func (c *Config) SynthesisTimeout() time.Duration {
	return time.Duration(c.Synthesis.TimeoutSeconds) * time.Second
}
