// Package api exposes the HTTP surface: the processing pipeline, the audio
// file server and the voice enrollment flow. It is the single place where
// domain errors become status codes.
package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/entities"
	"github.com/gbarbosa9/retone/usecase"
)

// InitRoutes initializes all API routes.
func InitRoutes(e *echo.Echo, processor *usecase.ProcessService, enrollment *usecase.EnrollmentService, audioDir string, logger *zap.Logger) {
	h := &handlers{
		processor:  processor,
		enrollment: enrollment,
		audioDir:   audioDir,
		logger:     logger,
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "retone",
		})
	})

	e.GET("/tones/", h.listTones)
	e.POST("/process/", h.process)
	e.GET("/files/:name", h.serveAudio)

	setup := e.Group("/setup")
	setup.POST("/voice", h.uploadPrompt)
	setup.POST("/complete", h.completeSetup)
	setup.GET("/preview/:user_id", h.servePreview)
	setup.GET("/has-setup", h.hasSetup)
}

type handlers struct {
	processor  *usecase.ProcessService
	enrollment *usecase.EnrollmentService
	audioDir   string
	logger     *zap.Logger
}

func (h *handlers) listTones(c echo.Context) error {
	return c.JSON(http.StatusOK, entities.ToneNames())
}

func (h *handlers) process(c echo.Context) error {
	tone, err := entities.ParseTone(c.FormValue("tone"))
	if err != nil {
		return h.writeError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.writeError(c, domain.Validationf("audio file is required"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return h.writeError(c, domain.Filesystemf("open upload: %v", err))
	}
	defer src.Close()

	result, err := h.processor.Process(c.Request().Context(), usecase.ProcessRequest{
		Filename: fileHeader.Filename,
		Audio:    src,
		Tone:     tone,
		UserID:   c.FormValue("user_id"),
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, ProcessResponse{
		Original:  result.Original,
		Rewritten: result.Rewritten,
		Tone:      string(result.Tone),
		AudioURL:  result.AudioURL,
	})
}

func (h *handlers) serveAudio(c echo.Context) error {
	name := c.Param("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return h.writeError(c, domain.Validationf("invalid file name"))
	}
	return h.streamFile(c, filepath.Join(h.audioDir, name), mediaType(name))
}

func (h *handlers) uploadPrompt(c echo.Context) error {
	userID := c.FormValue("user_id")
	promptID := c.FormValue("prompt_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.writeError(c, domain.Validationf("audio file is required"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return h.writeError(c, domain.Filesystemf("open upload: %v", err))
	}
	defer src.Close()

	err = h.enrollment.SavePrompt(c.Request().Context(), userID, promptID, src, fileHeader.Filename)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: promptID + " saved for " + userID,
	})
}

func (h *handlers) completeSetup(c echo.Context) error {
	userID := c.FormValue("user_id")
	if consent := c.FormValue("consent"); consent != "" {
		h.logger.Info("enrollment consent recorded",
			zap.String("user_id", userID), zap.String("consent", consent))
	}

	previewURL, err := h.enrollment.Complete(c.Request().Context(), userID)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, SetupCompleteResponse{
		Message: "Speaker embedding created",
		Preview: previewURL,
	})
}

func (h *handlers) servePreview(c echo.Context) error {
	userID := c.Param("user_id")
	return h.streamFile(c, h.enrollment.PreviewPath(userID), "audio/wav")
}

func (h *handlers) hasSetup(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return h.writeError(c, domain.Validationf("user_id is required"))
	}
	return c.JSON(http.StatusOK, HasSetupResponse{
		UserID:        userID,
		HasVoiceSetup: h.enrollment.HasSetup(userID),
	})
}

func (h *handlers) streamFile(c echo.Context, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: "File not found"})
		}
		return h.writeError(c, domain.Filesystemf("open %s: %v", path, err))
	}
	defer f.Close()
	return c.Stream(http.StatusOK, contentType, f)
}

// writeError translates the domain error taxonomy into status codes. This is
// the only translation point; adapters and usecases never see HTTP.
func (h *handlers) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Detail: err.Error()})
	default:
		h.logger.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
	}
}

func mediaType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "m4a", "mp4":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
