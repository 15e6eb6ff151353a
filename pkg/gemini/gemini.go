package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Attachment struct {
	MIMEType string
	Data     []byte
}

type IGemini interface {
	GenerateReply(ctx context.Context, message string, attachments []Attachment) (string, error)
}

type geminiClient struct {
	modelName     string
	systemContext string
	client        *genai.Client
}

// NewGeminiClient reads its settings from the environment and loads the
// assistant system context from disk. Any failure here means the assistant
// stays unavailable; the rest of the service is unaffected.
func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	contextPath := os.Getenv("ASSISTANT_CONTEXT_PATH")
	if contextPath == "" {
		contextPath = "./storage/assistant_context.txt"
	}

	systemContext, err := os.ReadFile(contextPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assistant context: %w", err)
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		modelName:     modelName,
		systemContext: strings.TrimSpace(string(systemContext)),
		client:        client,
	}, nil
}

func (g *geminiClient) GenerateReply(ctx context.Context, message string, attachments []Attachment) (string, error) {
	model := g.client.GenerativeModel(g.modelName)

	prompt := fmt.Sprintf("%s\n\nPatient: %s\nAssistant:", g.systemContext, message)
	parts := []genai.Part{genai.Text(prompt)}

	for _, att := range attachments {
		switch {
		case strings.HasPrefix(att.MIMEType, "image/"):
			format := strings.TrimPrefix(att.MIMEType, "image/")
			parts = append(parts, genai.ImageData(format, att.Data))
		case att.MIMEType == "text/plain":
			parts = append(parts, genai.Text(fmt.Sprintf("Attached document:\n%s", att.Data)))
		}
	}

	res, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	response := res.Candidates[0].Content.Parts[0]
	text, ok := response.(genai.Text)
	if !ok {
		return "", errors.New("unexpected response format from Gemini API")
	}

	return string(text), nil
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
