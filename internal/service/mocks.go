package service

import (
	"context"

	"github.com/numerano/teams-backend/internal/mail"
	"github.com/numerano/teams-backend/internal/repository"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/mock"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Get(ctx context.Context, teamID string) (*repository.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) AddMember(ctx context.Context, member *repository.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendConfirmation(ctx context.Context, c mail.Confirmation) mail.Result {
	args := m.Called(ctx, c)
	return args.Get(0).(mail.Result)
}

type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func (m *MockChatProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	args := m.Called(ctx)
	return args.Get(0).(openai.ModelsList), args.Error(1)
}
