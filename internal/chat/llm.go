package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Message roles on the chat wire format. The widget sends Gemini-style
// history entries, so the same names are used end to end.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a single turn of conversation history.
type Message struct {
	Role string
	Text string
}

// LLMClient is the opaque generative collaborator. Failures are
// expected and must be absorbed by the caller.
type LLMClient interface {
	// Chat continues a conversation under the given system prompt and
	// returns the model's reply to message.
	Chat(ctx context.Context, system string, history []Message, message string) (string, error)
	// Generate answers a single standalone prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// GeminiClient implements LLMClient using Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelID: modelID}, nil
}

// Chat sends the conversation to Gemini and returns the reply text.
func (c *GeminiClient) Chat(ctx context.Context, system string, history []Message, message string) (string, error) {
	model := c.client.GenerativeModel(c.modelID)
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	for _, msg := range history {
		content := strings.TrimSpace(msg.Text)
		if content == "" {
			continue
		}
		role := RoleUser
		if msg.Role == RoleModel {
			role = RoleModel
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("chat: gemini completion failed: %w", err)
	}
	return extractText(resp)
}

// Generate answers a one-shot prompt without conversation state.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelID)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("chat: gemini generation failed: %w", err)
	}
	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("chat: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("chat: gemini returned empty content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
