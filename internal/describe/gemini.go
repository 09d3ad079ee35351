package describe

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// implements Describer using Google Gemini
type GeminiDescriber struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiDescriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiDescriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiDescriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// frames are small enough to send inline, no upload round trip
func (d *GeminiDescriber) Describe(
	ctx context.Context,
	imagePath string,
	scene Scene,
) (string, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildPrompt(d.options, scene)),
		genai.NewPartFromBytes(data, "image/jpeg"),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := d.client.Models.GenerateContent(ctx, d.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("describe failed: %w", err)
	}

	return d.parseResponse(result)
}

func (d *GeminiDescriber) parseResponse(
	result *genai.GenerateContentResponse,
) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	responseText = cleanResponse(responseText, d.options.MaxChars)
	if responseText == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}

	return responseText, nil
}
