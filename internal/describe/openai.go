package describe

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Describer using OpenAI Chat Completions with an image part
type OpenAIDescriber struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIDescriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIDescriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIDescriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (d *OpenAIDescriber) Describe(
	ctx context.Context,
	imagePath string,
	scene Scene,
) (string, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	completion, err := d.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(BuildPrompt(d.options, scene)),
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: dataURL,
					}),
				}),
			},
			Model: d.model,
		},
	)
	if err != nil {
		return "", fmt.Errorf("describe failed: %w", err)
	}

	return d.parseResponse(completion)
}

func (d *OpenAIDescriber) parseResponse(
	completion *openai.ChatCompletion,
) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	responseText := cleanResponse(completion.Choices[0].Message.Content, d.options.MaxChars)
	if responseText == "" {
		return "", fmt.Errorf("no text in OpenAI response")
	}

	return responseText, nil
}
