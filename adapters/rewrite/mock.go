package rewrite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gbarbosa9/retone/domain/entities"
	"github.com/gbarbosa9/retone/domain/repositories"
)

// MockRewriter is a placeholder rewriting backend for development and tests.
// It tags the input with the tone instead of calling a model.
type MockRewriter struct {
	logger *zap.Logger

	// Err, when set, is returned instead of a rewrite.
	Err error
}

var _ repositories.Rewriter = (*MockRewriter)(nil)

// NewMockRewriter creates the mock backend.
func NewMockRewriter(logger *zap.Logger) *MockRewriter {
	return &MockRewriter{logger: logger}
}

// Rewrite returns a deterministic tagged revision of text.
func (m *MockRewriter) Rewrite(ctx context.Context, text string, tone entities.Tone) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return fmt.Sprintf("[%s] %s", tone, text), nil
}
