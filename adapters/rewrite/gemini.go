package rewrite

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/entities"
	"github.com/gbarbosa9/retone/domain/repositories"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiRewriter rewrites text in a target tone using Google's Gemini API.
type GeminiRewriter struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

var _ repositories.Rewriter = (*GeminiRewriter)(nil)

// NewGeminiRewriter creates a Gemini-backed rewriter. The API key comes from
// the GEMINI_API_KEY environment variable.
func NewGeminiRewriter(ctx context.Context, model string, temperature float64, logger *zap.Logger) (*GeminiRewriter, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default model", zap.String("model", model))
	}

	return &GeminiRewriter{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		logger:      logger,
	}, nil
}

// Rewrite asks Gemini for a revision of text in the requested tone.
func (g *GeminiRewriter) Rewrite(ctx context.Context, text string, tone entities.Tone) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(text, tone), genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", domain.Upstreamf("gemini generate: %v", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", domain.Upstreamf("gemini returned no candidates")
	}

	var out strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}

	rewritten := strings.TrimSpace(out.String())
	if rewritten == "" {
		return "", domain.Upstreamf("gemini returned an empty rewrite")
	}
	g.logger.Debug("rewrite complete",
		zap.String("tone", string(tone)), zap.Int("length", len(rewritten)))
	return rewritten, nil
}
