// Package classifier decides whether a free-text message means the speaker
// is done standing.
package classifier

import (
	"context"
	"errors"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/services/interfaces"
	"standbot/internal/structures"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const DefaultPrompt = "Analyze the message if the intent of the message means to sit/relax and not stand/standing up only reply with 1 else 0: "

var errEmptyChoices = errors.New("completion has no choices")

type completer interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenRouterClassifier asks an OpenAI-compatible chat model for a 1/0 verdict.
type OpenRouterClassifier struct {
	client completer
	conf   structures.ClassifierConfig
	prompt string
	logger providers.Logger
}

func (c *OpenRouterClassifier) ClassifyEndIntent(ctx context.Context, text string) (bool, error) {
	if c.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.conf.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.conf.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: c.prompt + text},
		},
	})
	if err != nil {
		return false, &models.ClassifierError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return false, &models.ClassifierError{Err: errEmptyChoices}
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debugf(providers.TypeSession, "Classifier answered %q for %q", answer, text)
	return answer == "1", nil
}

// disabledClassifier never sees a close in free text.
type disabledClassifier struct{}

func (disabledClassifier) ClassifyEndIntent(context.Context, string) (bool, error) {
	return false, nil
}

func NewClassifier(conf *structures.Config, logger providers.Logger) interfaces.IntentClassifier {
	if !conf.Classifier.Enabled {
		logger.Infof(providers.TypeApp, "Intent classifier disabled")
		return disabledClassifier{}
	}

	cfg := openai.DefaultConfig(conf.Classifier.APIKey)
	cfg.BaseURL = conf.Classifier.BaseURL

	return newOpenRouterClassifier(openai.NewClientWithConfig(cfg), conf.Classifier, logger)
}

func newOpenRouterClassifier(client completer, conf structures.ClassifierConfig, logger providers.Logger) *OpenRouterClassifier {
	prompt := conf.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &OpenRouterClassifier{client: client, conf: conf, prompt: prompt, logger: logger}
}
