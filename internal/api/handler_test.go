package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/numerano/teams-backend/internal/mail"
	"github.com/numerano/teams-backend/internal/repository"
	"github.com/numerano/teams-backend/internal/service"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var teamIDFormat = regexp.MustCompile(`^TEAM-[0-9A-F]{8}$`)

type submissionForm struct {
	teamSize   string
	humanToken string
	members    []map[string]string
	idCards    []idCard
}

type idCard struct {
	index       int
	contentType string
	content     []byte
}

func member(n int) map[string]string {
	return map[string]string{
		"name":          fmt.Sprintf("Member %d", n),
		"contactNumber": "9876543210",
		"email":         fmt.Sprintf("member%d@example.com", n),
	}
}

func pdfCard(index int) idCard {
	return idCard{
		index:       index,
		contentType: "application/pdf",
		content:     bytes.Repeat([]byte{0x25}, 2048),
	}
}

func (f submissionForm) encode(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	require.NoError(t, w.WriteField("teamSize", f.teamSize))
	require.NoError(t, w.WriteField("humanToken", f.humanToken))

	for i, m := range f.members {
		for field, value := range m {
			require.NoError(t, w.WriteField(fmt.Sprintf("members[%d][%s]", i, field), value))
		}
	}

	for _, card := range f.idCards {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="idCards[%d]"; filename="id-%d"`, card.index, card.index))
		header.Set("Content-Type", card.contentType)

		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(card.content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newTestServer(teamRepo *service.MockTeamRepository, sender *service.MockSender) *echo.Echo {
	registration := service.NewRegistrationService(new(service.MockTransactor)).
		WithTeamRepo(teamRepo).
		WithMailer(sender)

	handler := NewHandler(zap.NewNop()).
		WithRegistrationService(registration).
		WithChatService(service.NewChatService().WithModel("gpt-4o-mini")).
		WithHealthChecker(MustNewHealthChecker())

	e := echo.New()
	handler.RegisterRoutes(e)
	return e
}

func newChatServer(chat *service.ChatService) *echo.Echo {
	handler := NewHandler(zap.NewNop()).
		WithRegistrationService(service.NewRegistrationService(new(service.MockTransactor))).
		WithChatService(chat).
		WithHealthChecker(MustNewHealthChecker())

	e := echo.New()
	handler.RegisterRoutes(e)
	return e
}

func postForm(e *echo.Echo, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	teamRepo := new(service.MockTeamRepository)
	sender := new(service.MockSender)

	teamRepo.On("Get", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)
	teamRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	teamRepo.On("AddMember", mock.Anything, mock.Anything).Return(nil).Times(2)
	sender.On("SendConfirmation", mock.Anything, mock.Anything).
		Return(mail.Result{Skipped: true, Message: "SMTP credentials not configured; skipping email send."})

	e := newTestServer(teamRepo, sender)

	body, contentType := submissionForm{
		teamSize:   "2",
		humanToken: "tok-abc123",
		members:    []map[string]string{member(1), member(2)},
		idCards:    []idCard{pdfCard(0), pdfCard(1)},
	}.encode(t)

	rec := postForm(e, body, contentType)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OK           bool   `json:"ok"`
		TeamID       string `json:"teamId"`
		Email        string `json:"email"`
		Members      int    `json:"members"`
		EmailSent    bool   `json:"emailSent"`
		EmailSkipped bool   `json:"emailSkipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.OK)
	assert.Regexp(t, teamIDFormat, resp.TeamID)
	assert.Equal(t, "member1@example.com", resp.Email)
	assert.Equal(t, 2, resp.Members)
	assert.False(t, resp.EmailSent)
	assert.True(t, resp.EmailSkipped)

	teamRepo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestRegister_ValidationFailures(t *testing.T) {
	tests := []struct {
		name            string
		form            submissionForm
		expectedMessage string
	}{
		{
			name: "bad team size",
			form: submissionForm{
				teamSize:   "5",
				humanToken: "tok-abc123",
				members:    []map[string]string{member(1), member(2)},
				idCards:    []idCard{pdfCard(0), pdfCard(1)},
			},
			expectedMessage: "Team size must be between 2-4 members",
		},
		{
			name: "declared three members but sent two",
			form: submissionForm{
				teamSize:   "3",
				humanToken: "tok-abc123",
				members:    []map[string]string{member(1), member(2)},
				idCards:    []idCard{pdfCard(0), pdfCard(1), pdfCard(2)},
			},
			expectedMessage: "Team member 3 data is missing",
		},
		{
			name: "bad email names the right member",
			form: submissionForm{
				teamSize:   "2",
				humanToken: "tok-abc123",
				members: []map[string]string{
					member(1),
					{"name": "Member 2", "contactNumber": "9876543210", "email": "not-an-email"},
				},
				idCards: []idCard{pdfCard(0), pdfCard(1)},
			},
			expectedMessage: "Member 2: Valid email required",
		},
		{
			name: "missing id card",
			form: submissionForm{
				teamSize:   "2",
				humanToken: "tok-abc123",
				members:    []map[string]string{member(1), member(2)},
				idCards:    []idCard{pdfCard(1)},
			},
			expectedMessage: "ID card missing for team member 1",
		},
		{
			name: "unsupported id card type",
			form: submissionForm{
				teamSize:   "2",
				humanToken: "tok-abc123",
				members:    []map[string]string{member(1), member(2)},
				idCards: []idCard{
					pdfCard(0),
					{index: 1, contentType: "text/plain", content: []byte("not an id")},
				},
			},
			expectedMessage: "Member 2 ID card: Unsupported file type.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teamRepo := new(service.MockTeamRepository)
			sender := new(service.MockSender)

			e := newTestServer(teamRepo, sender)

			body, contentType := tt.form.encode(t)
			rec := postForm(e, body, contentType)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedMessage, resp.Message)

			teamRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	e := newTestServer(new(service.MockTeamRepository), new(service.MockSender))

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("not multipart"))
	req.Header.Set(echo.HeaderContentType, "multipart/form-data; boundary=broken")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Server error", resp.Message)
}

func TestListModels(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		e := newChatServer(service.NewChatService())

		req := httptest.NewRequest(http.MethodGet, "/api/list-models", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Chat service is not configured.", resp.Message)
	})

	t.Run("lists provider models", func(t *testing.T) {
		provider := new(service.MockChatProvider)
		provider.On("ListModels", mock.Anything).Return(openai.ModelsList{
			Models: []openai.Model{{ID: "gpt-4o-mini", OwnedBy: "openai"}},
		}, nil)

		e := newChatServer(service.NewChatService().WithClient(provider))

		req := httptest.NewRequest(http.MethodGet, "/api/list-models", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Models []service.ModelInfo `json:"models"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []service.ModelInfo{{ID: "gpt-4o-mini", OwnedBy: "openai"}}, resp.Models)
		provider.AssertExpectations(t)
	})
}

func TestChat_Unconfigured(t *testing.T) {
	e := newTestServer(new(service.MockTeamRepository), new(service.MockSender))

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Chat service is not configured.", resp.Message)
}
