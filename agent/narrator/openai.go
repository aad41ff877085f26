package narrator

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	"github.com/shopstream/discovery-agent/pkg/openrouter"
)

const narrationSystemPrompt = "You are a concise shopping assistant. " +
	"In one or two short sentences, tell the user what you are about to do " +
	"for their request. Do not invent products or prices."

// OpenAI streams narration from a chat completion model behind the
// OpenAI-compatible API.
type OpenAI struct {
	client *openaisdk.Client
	cfg    openrouter.Config
}

func NewOpenAI(client *openaisdk.Client, cfg openrouter.Config) (*OpenAI, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	return &OpenAI{client: client, cfg: cfg}, nil
}

func (o *OpenAI) Narrate(ctx context.Context, message string, fn func(chunk string) error) error {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(o.cfg.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(narrationSystemPrompt),
			openaisdk.UserMessage(message),
		},
		MaxCompletionTokens: openaisdk.Int(int64(o.cfg.MaxCompletionToken)),
		Temperature:         openaisdk.Float(o.cfg.Temperature),
	})
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("narration stream: %w", err)
	}
	return nil
}
