package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/adapters/rewrite"
	"github.com/gbarbosa9/retone/adapters/stt"
	"github.com/gbarbosa9/retone/adapters/tts"
	"github.com/gbarbosa9/retone/adapters/voice"
	"github.com/gbarbosa9/retone/domain/repositories"
	"github.com/gbarbosa9/retone/internal/api"
	"github.com/gbarbosa9/retone/internal/audio"
	"github.com/gbarbosa9/retone/internal/config"
	"github.com/gbarbosa9/retone/internal/embedding"
	"github.com/gbarbosa9/retone/internal/history"
	"github.com/gbarbosa9/retone/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("RETONE_CONFIG"))
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatal("preparing data directories", zap.Error(err))
	}

	ctx := context.Background()

	// Model backends are process-wide singletons: constructed once here,
	// shared read-only by every request.
	transcriber, err := buildTranscriber(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing transcription backend", zap.Error(err))
	}
	rewriter, err := buildRewriter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing rewrite backend", zap.Error(err))
	}

	melo, err := tts.NewMeloClient(tts.MeloConfig{
		BaseURL:  cfg.Synthesis.TTSServerURL,
		Language: cfg.Synthesis.Language,
		Speaker:  cfg.Synthesis.Speaker,
		Speed:    cfg.Synthesis.Speed,
		Timeout:  cfg.SynthesisTimeout(),
	}, logger)
	if err != nil {
		logger.Fatal("initializing tts client", zap.Error(err))
	}
	healthCtx, cancelHealth := context.WithTimeout(ctx, 10*time.Second)
	if err := melo.Healthy(healthCtx); err != nil {
		logger.Warn("tts server not reachable at startup, synthesis will degrade", zap.Error(err))
	}
	cancelHealth()

	openvoice, err := voice.NewOpenVoice(cfg.Tools.OpenVoice, logger)
	if err != nil {
		logger.Fatal("initializing openvoice adapter", zap.Error(err))
	}
	synthesizer := voice.NewClonedSynthesizer(melo, openvoice, cfg.Paths.TempDir, logger)

	embeddings, err := embedding.NewCache(cfg.Paths.EmbeddingDir, logger)
	if err != nil {
		logger.Fatal("initializing embedding cache", zap.Error(err))
	}

	normalizer := audio.NewNormalizer(cfg.Tools.FFmpeg, logger)
	historyLog := history.NewLog(cfg.Paths.HistoryPath)

	processor := usecase.NewProcessService(
		normalizer, transcriber, rewriter, synthesizer, openvoice,
		embeddings, historyLog,
		cfg.Paths.TempDir, cfg.Paths.AudioDir,
		cfg.Upload.AllowedExtensions, logger)
	enrollment := usecase.NewEnrollmentService(
		normalizer, openvoice, synthesizer, embeddings,
		cfg.Paths.EnrollmentDir, cfg.Paths.AudioDir, logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, processor, enrollment, cfg.Paths.AudioDir, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Server.Port),
		zap.String("stt_backend", cfg.STT.Backend),
		zap.String("rewrite_backend", cfg.Rewrite.Backend))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func buildTranscriber(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Transcriber, error) {
	switch cfg.STT.Backend {
	case config.STTBackendWhisper:
		return stt.NewWhisperTranscriber(cfg.STT.ModelPath, cfg.STT.Language, logger)
	case config.STTBackendGoogle:
		return stt.NewGoogleTranscriber(ctx, cfg.STT.Language, logger)
	case config.STTBackendMock:
		return stt.NewMockTranscriber("", logger), nil
	default:
		return nil, fmt.Errorf("unknown stt backend %q", cfg.STT.Backend)
	}
}

func buildRewriter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Rewriter, error) {
	switch cfg.Rewrite.Backend {
	case config.RewriteBackendGemini:
		return rewrite.NewGeminiRewriter(ctx, cfg.Rewrite.Model, cfg.Rewrite.Temperature, logger)
	case config.RewriteBackendOpenAI:
		return rewrite.NewOpenAIRewriter(cfg.Rewrite.Model, cfg.Rewrite.Temperature, logger)
	case config.RewriteBackendMock:
		return rewrite.NewMockRewriter(logger), nil
	default:
		return nil, fmt.Errorf("unknown rewrite backend %q", cfg.Rewrite.Backend)
	}
}
