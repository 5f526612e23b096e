package translation

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openaiTranslator struct {
	client   openai.Client
	model    string
	language string
}

// NewOpenAITranslator uses the chat completions API. endpoint may point at any
// OpenAI-compatible server; empty means the public API.
func NewOpenAITranslator(endpoint, apiKey, model, language string) Translator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openaiTranslator{
		client:   openai.NewClient(opts...),
		model:    model,
		language: language,
	}
}

func (o *openaiTranslator) Translate(ctx context.Context, text string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt(o.language, text)),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ServiceError{Status: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", &TransportError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Status: 200, Message: "no choices"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
