package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// GeminiGenerator streams text from the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGeminiGenerator creates a generator backed by the Gemini API. The model
// name may be empty to use the default.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, log *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, log: log}, nil
}

// Generate streams model output for the prompt. Chunks arrive in model
// production order; a generation error terminates the stream after a final
// log entry rather than being delivered in-band, since downstream validation
// treats any truncated output as ordinary end of stream.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (<-chan string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, nil) {
			if err != nil {
				g.log.Warn("generation stream ended with error", zap.Error(err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case out <- text:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// BuildPrompt renders the generation prompt: the schema document followed by
// the one-operation-per-line instruction the stream scanner relies on.
func BuildPrompt(schemaJSON []byte, task string) string {
	return fmt.Sprintf(`You are editing a JSON document that conforms to this JSON Schema:

%s

Task: %s

Respond with RFC 6902 JSON Patch operations, exactly one JSON object per line,
for example:

{"op": "add", "path": "/name", "value": "example"}

Do not wrap the output in a code fence and do not add commentary between lines.`,
		schemaJSON, task)
}
