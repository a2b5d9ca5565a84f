package notifier

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/passkeeper-server/internal/model"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func testUser() model.User {
	return model.User{
		ID:    uuid.MustParse("9a4f0c1e-3f2b-4c55-9d7a-0e6a1b2c3d4e"),
		Name:  "Alice",
		Email: "alice@example.com",
	}
}

func TestEmail_SendVerificationEmail(t *testing.T) {
	sender := &captureSender{}
	n := NewEmail(sender, "https://vault.example.com/", false)

	err := n.SendVerificationEmail(context.Background(), testUser(), "tok-123")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, verifySubject, msg.Subject)
	assert.Contains(t, msg.Text, "https://vault.example.com/api/users/9a4f0c1e-3f2b-4c55-9d7a-0e6a1b2c3d4e/email/verify?token=tok-123")
	assert.Contains(t, msg.HTML, "Verify email")
}

func TestEmail_SendEmailChangeEmail(t *testing.T) {
	tests := []struct {
		name             string
		notifyNewAddress bool
		wantTo           string
	}{
		{name: "current address", notifyNewAddress: false, wantTo: "alice@example.com"},
		{name: "new address", notifyNewAddress: true, wantTo: "alice@new.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{}
			n := NewEmail(sender, "http://localhost:8080", tt.notifyNewAddress)

			err := n.SendEmailChangeEmail(context.Background(), testUser(), "chg-456", "alice@new.example.com")
			require.NoError(t, err)
			require.Len(t, sender.sent, 1)

			msg := sender.sent[0]
			assert.Equal(t, tt.wantTo, msg.To)
			assert.Equal(t, changeSubject, msg.Subject)
			assert.Contains(t, msg.Text, "alice@new.example.com")

			start := strings.Index(msg.Text, "http://")
			require.GreaterOrEqual(t, start, 0)
			link, err := url.Parse(strings.TrimSpace(msg.Text[start:]))
			require.NoError(t, err)
			assert.Equal(t, "/api/users/9a4f0c1e-3f2b-4c55-9d7a-0e6a1b2c3d4e/email/change", link.Path)
			assert.Equal(t, "chg-456", link.Query().Get("token"))
			assert.Equal(t, "alice@new.example.com", link.Query().Get("email"))
		})
	}
}

func TestEmail_SenderError(t *testing.T) {
	sender := &captureSender{err: errors.New("relay down")}
	n := NewEmail(sender, "http://localhost:8080", false)

	err := n.SendVerificationEmail(context.Background(), testUser(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestEmail_EscapesHTML(t *testing.T) {
	sender := &captureSender{}
	n := NewEmail(sender, "http://localhost:8080", false)

	user := testUser()
	user.Name = "<script>x</script>"

	require.NoError(t, n.SendVerificationEmail(context.Background(), user, "tok"))
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
	assert.Contains(t, sender.sent[0].Text, "<script>")
}
