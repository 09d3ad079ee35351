package describe

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/seongjae6751/stream-module/internal/gps"
)

// what is known about a captured frame besides its pixels
type Scene struct {
	Video    string
	Timecode string
	Location gps.Coordinate
}

// interface for frame captioning
type Describer interface {
	Describe(ctx context.Context, imagePath string, scene Scene) (string, error)
}

// captioning service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

type Options struct {
	Model    string
	Prompt   string // extra instructions appended to the default prompt
	MaxChars int    // truncate descriptions longer than this, 0 keeps everything
}

// creates Describer based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Describer, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiDescriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIDescriber(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicDescriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported describe provider: %s", provider)
	}
}

// BuildPrompt creates the captioning prompt for LLM providers
func BuildPrompt(opts Options, scene Scene) string {
	var sb strings.Builder

	sb.WriteString("Describe this aerial drone frame in two or three plain sentences.\n\n")

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Describe only what is visible: terrain, structures, roads, water, vehicles, people.\n")
	sb.WriteString("2. Do not guess place names unless they are clearly readable in the image.\n")
	sb.WriteString("3. Do not add any preamble or markdown formatting.\n\n")

	if scene.Video != "" || scene.Timecode != "" || scene.Location.HasLat || scene.Location.HasLon {
		sb.WriteString("Capture details:\n")
		if scene.Video != "" {
			sb.WriteString(fmt.Sprintf("- video: %s\n", scene.Video))
		}
		if scene.Timecode != "" {
			sb.WriteString(fmt.Sprintf("- timecode: %s\n", scene.Timecode))
		}
		if scene.Location.HasLat || scene.Location.HasLon {
			sb.WriteString(fmt.Sprintf("- GPS (lat, lon): %s\n", scene.Location))
		}
		sb.WriteString("\n")
	}

	if opts.Prompt != "" {
		sb.WriteString(
			fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt),
		)
	}

	sb.WriteString("Description:")

	return sb.String()
}

func readImage(imagePath string) ([]byte, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty: %s", imagePath)
	}
	return data, nil
}

var codeFenceRegex = regexp.MustCompile("```[a-zA-Z]*\\s*")

func cleanResponse(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	s = codeFenceRegex.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "Description:")
	s = strings.TrimSpace(s)

	if maxChars > 0 {
		s = truncateString(s, maxChars)
	}
	return s
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
