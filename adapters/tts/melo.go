// Package tts provides the neutral-voice rendering stage of synthesis. It
// talks to a local MeloTTS-compatible model server over HTTP; the tone-color
// conversion toward a specific speaker happens downstream.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
)

const (
	defaultLanguage = "EN"
	defaultSpeaker  = "EN-US"
	defaultSpeed    = 1.0
	defaultTimeout  = 60 * time.Second

	renderEndpoint = "/tts_to_audio/"
	healthEndpoint = "/health"
)

// MeloConfig holds configuration for the MeloClient.
// Required fields:
// - BaseURL: the model server address, e.g. "http://localhost:8002"
// Optional fields with defaults:
// - Language: synthesis language code (default: "EN")
// - Speaker: base speaker preset (default: "EN-US")
// - Speed: speaking rate multiplier (default: 1.0)
// - Timeout: per-request HTTP timeout (default: 60s)
type MeloConfig struct {
	BaseURL  string
	Language string
	Speaker  string
	Speed    float64
	Timeout  time.Duration
}

// ValidateMeloConfig validates the MeloConfig.
func ValidateMeloConfig(config MeloConfig) error {
	if config.BaseURL == "" {
		return fmt.Errorf("tts server base URL is required")
	}
	if config.Speed < 0 {
		return fmt.Errorf("speed must be positive, got %f", config.Speed)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return nil
}

// MeloClient renders neutral-voice speech through the model server.
type MeloClient struct {
	baseURL    string
	language   string
	speaker    string
	speed      float64
	httpClient *http.Client
	logger     *zap.Logger
}

type renderRequest struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Speaker  string  `json:"speaker_wav,omitempty"`
	Speed    float64 `json:"speed"`
}

// NewMeloClient creates a new client for the configured server.
func NewMeloClient(config MeloConfig, logger *zap.Logger) (*MeloClient, error) {
	if err := ValidateMeloConfig(config); err != nil {
		return nil, err
	}

	language := config.Language
	if language == "" {
		language = defaultLanguage
		logger.Info("Using default language", zap.String("language", language))
	}
	speaker := config.Speaker
	if speaker == "" {
		speaker = defaultSpeaker
		logger.Info("Using default speaker", zap.String("speaker", speaker))
	}
	speed := config.Speed
	if speed == 0 {
		speed = defaultSpeed
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &MeloClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		language:   language,
		speaker:    speaker,
		speed:      speed,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Render synthesizes text into a neutral-voice WAV file at outputPath.
func (m *MeloClient) Render(ctx context.Context, text, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return domain.Validationf("text cannot be empty")
	}

	body, err := json.Marshal(renderRequest{
		Text:     text,
		Language: m.language,
		Speaker:  m.speaker,
		Speed:    m.speed,
	})
	if err != nil {
		return domain.Upstreamf("marshal tts request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+renderEndpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Upstreamf("create tts request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return domain.Upstreamf("tts server request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Upstreamf("tts server returned %d: %s",
			resp.StatusCode, bytes.TrimSpace(errorBody))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return domain.Filesystemf("create %s: %v", outputPath, err)
	}
	written, err := io.Copy(out, resp.Body)
	cerr := out.Close()
	if err != nil {
		os.Remove(outputPath)
		return domain.Upstreamf("stream tts audio: %v", err)
	}
	if cerr != nil {
		os.Remove(outputPath)
		return domain.Filesystemf("close %s: %v", outputPath, cerr)
	}

	m.logger.Debug("neutral rendering complete",
		zap.String("path", outputPath), zap.Int64("bytes", written))
	return nil
}

// Healthy pings the server. Called once at startup to fail fast when the
// model server is unreachable.
func (m *MeloClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+healthEndpoint, nil)
	if err != nil {
		return domain.Upstreamf("create health request: %v", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return domain.Upstreamf("tts server health check: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Upstreamf("tts server health check returned %d", resp.StatusCode)
	}
	return nil
}
