package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
)

func TestValidateMeloConfig(t *testing.T) {
	assert.NoError(t, ValidateMeloConfig(MeloConfig{BaseURL: "http://localhost:8002"}))
	assert.Error(t, ValidateMeloConfig(MeloConfig{}))
	assert.Error(t, ValidateMeloConfig(MeloConfig{BaseURL: "http://x", Speed: -1}))
}

func TestRenderWritesAudioToFile(t *testing.T) {
	var got renderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, renderEndpoint, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFFaudio"))
	}))
	defer srv.Close()

	client, err := NewMeloClient(MeloConfig{BaseURL: srv.URL, Speed: 1.2}, zap.NewNop())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "neutral.wav")
	require.NoError(t, client.Render(context.Background(), "hello there", out))

	payload, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "RIFFaudio", string(payload))

	assert.Equal(t, "hello there", got.Text)
	assert.Equal(t, defaultLanguage, got.Language)
	assert.InDelta(t, 1.2, got.Speed, 1e-9)
}

func TestRenderRejectsEmptyText(t *testing.T) {
	client, err := NewMeloClient(MeloConfig{BaseURL: "http://localhost:1"}, zap.NewNop())
	require.NoError(t, err)

	err = client.Render(context.Background(), "   ", filepath.Join(t.TempDir(), "out.wav"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRenderServerErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewMeloClient(MeloConfig{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "neutral.wav")
	err = client.Render(context.Background(), "hello", out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "model not loaded")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthEndpoint {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewMeloClient(MeloConfig{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, client.Healthy(context.Background()))
}

func TestHealthyUnreachableServer(t *testing.T) {
	client, err := NewMeloClient(MeloConfig{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	require.NoError(t, err)

	err = client.Healthy(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}
