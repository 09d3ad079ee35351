package describe

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Describer using Anthropic Claude
type AnthropicDescriber struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicDescriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicDescriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicDescriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (d *AnthropicDescriber) Describe(
	ctx context.Context,
	imagePath string,
	scene Scene,
) (string, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	message, err := d.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     d.model,
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewImageBlockBase64("image/jpeg", base64.StdEncoding.EncodeToString(data)),
					anthropic.NewTextBlock(BuildPrompt(d.options, scene)),
				),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("describe failed: %w", err)
	}

	return d.parseResponse(message)
}

func (d *AnthropicDescriber) parseResponse(
	message *anthropic.Message,
) (string, error) {
	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	responseText = cleanResponse(responseText, d.options.MaxChars)
	if responseText == "" {
		return "", fmt.Errorf("no text in Anthropic response")
	}

	return responseText, nil
}
