package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendConfirmation_SkipsWithoutCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "nothing configured", cfg: Config{}},
		{name: "host only", cfg: Config{Host: "smtp.example.com"}},
		{
			name: "missing password",
			cfg:  Config{Host: "smtp.example.com", Port: 587, User: "mailer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewSMTPSender(tt.cfg)

			res := sender.SendConfirmation(context.Background(), Confirmation{
				To:     "captain@example.com",
				Name:   "Ada",
				TeamID: "TEAM-0A1B2C3D",
			})

			assert.False(t, res.OK)
			assert.True(t, res.Skipped)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestConfirmationBody(t *testing.T) {
	body := confirmationBody(Confirmation{Name: "Ada <script>", TeamID: "TEAM-0A1B2C3D"})

	assert.Contains(t, body, "TEAM-0A1B2C3D")
	assert.Contains(t, body, "Ada &lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}
