package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/xpanvictor/chrono/internal/config"
)

type openAIAssistant struct {
	client openai.Client
	model  openai.ChatModel
}

// Run implements Assistant.
func (o openAIAssistant) Run(ctx context.Context, prompt string) (string, error) {
	chatCompletion, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: o.model,
		},
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return chatCompletion.Choices[0].Message.Content, nil
}

// NewAssistant creates the OpenAI-backed assistant from configured keys.
func NewAssistant(assistantCfg config.AssistantKeysObj) Assistant {
	model := openai.ChatModel(assistantCfg.Model)
	if assistantCfg.Model == "" {
		model = openai.ChatModelGPT4o
	}
	return openAIAssistant{
		client: openai.NewClient(
			option.WithAPIKey(
				assistantCfg.OpenAiApiKey,
			),
		),
		model: model,
	}
}
