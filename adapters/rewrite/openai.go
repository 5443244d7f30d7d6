package rewrite

import (
	"context"
	"errors"
	"os"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain"
	"github.com/gbarbosa9/retone/domain/entities"
	"github.com/gbarbosa9/retone/domain/repositories"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIRewriter rewrites text in a target tone through the OpenAI chat
// completions API.
type OpenAIRewriter struct {
	client      oai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

var _ repositories.Rewriter = (*OpenAIRewriter)(nil)

// NewOpenAIRewriter creates an OpenAI-backed rewriter. The API key comes
// from the OPENAI_API_KEY environment variable.
func NewOpenAIRewriter(model string, temperature float64, logger *zap.Logger) (*OpenAIRewriter, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is required")
	}

	if model == "" {
		model = defaultOpenAIModel
		logger.Info("Using default model", zap.String("model", model))
	}

	return &OpenAIRewriter{
		client:      oai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// Rewrite asks the chat model for a revision of text in the requested tone.
func (o *OpenAIRewriter) Rewrite(ctx context.Context, text string, tone entities.Tone) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(o.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(buildPrompt(text, tone)),
		},
		Temperature: oai.Float(o.temperature),
	})
	if err != nil {
		return "", domain.Upstreamf("openai chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.Upstreamf("openai returned no choices")
	}

	rewritten := strings.TrimSpace(resp.Choices[0].Message.Content)
	if rewritten == "" {
		return "", domain.Upstreamf("openai returned an empty rewrite")
	}
	o.logger.Debug("rewrite complete",
		zap.String("tone", string(tone)), zap.Int("length", len(rewritten)))
	return rewritten, nil
}
