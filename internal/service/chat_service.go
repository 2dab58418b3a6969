package service

import (
	"context"

	"github.com/numerano/teams-backend/internal/model"
	"github.com/numerano/teams-backend/pkg/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const chatSystemPrompt = `You are a helpful assistant for the Numerano Team Registration website.

Teams of 2-4 members register to receive a unique Team ID (format: TEAM-XXXXXXXX).
Registration steps: complete human verification, select team size, fill in each
member's name, contact number, email and optional USN, upload one ID card per
member, then submit. A confirmation email goes to the first member's address.

ID cards may be PDF, JPEG, PNG, WebP or HEIC, at most 5MB each. All fields
except USN are required.

Keep responses concise, friendly, and focused on helping users register.`

// ChatProvider is the slice of the OpenAI client the chat service needs.
type ChatProvider interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// ChatService answers FAQ-style questions about registration. A nil client
// means the provider is not configured and requests are refused as
// unavailable rather than failing.
type ChatService struct {
	client ChatProvider
	model  string
}

func NewChatService() *ChatService {
	return &ChatService{}
}

func (c *ChatService) WithClient(client ChatProvider) *ChatService {
	c.client = client
	return c
}

func (c *ChatService) WithModel(model string) *ChatService {
	c.model = model
	return c
}

// Ask sends the most recent message to the model with the FAQ system
// prompt and returns the reply. Single-turn: earlier history is accepted
// but not forwarded.
func (c *ChatService) Ask(ctx context.Context, messages []model.ChatMessage) (string, *Error) {
	l := logger.FromContext(ctx)

	if c.client == nil {
		return "", NewError(ErrorCodeUnavailable, "Chat service is not configured.")
	}

	if len(messages) == 0 {
		return "", NewError(ErrorCodeInvalidBody, "Invalid request")
	}

	last := messages[len(messages)-1]

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: last.Content},
		},
	})
	if err != nil {
		l.Error("chat completion failed", zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "Sorry, I encountered an error processing your request.")
	}
	if len(resp.Choices) == 0 {
		l.Error("chat completion returned no choices", zap.String("model", c.model))
		return "", NewError(ErrorCodeUnspecified, "Sorry, I encountered an error processing your request.")
	}

	return resp.Choices[0].Message.Content, nil
}

// ModelInfo is one entry of the provider's model listing.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"ownedBy,omitempty"`
}

// Models lists the models available at the provider.
func (c *ChatService) Models(ctx context.Context) ([]ModelInfo, *Error) {
	l := logger.FromContext(ctx)

	if c.client == nil {
		return nil, NewError(ErrorCodeUnavailable, "Chat service is not configured.")
	}

	list, err := c.client.ListModels(ctx)
	if err != nil {
		l.Error("failed to list models", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "Error listing models")
	}

	models := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, ModelInfo{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	return models, nil
}
