package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobnotify/pkg/email"
)

func validConfig() email.Config {
	return email.Config{
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "sender@example.com",
		SupportEmail:         "support@example.com",
	}
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*email.Config)
		errMsg string
	}{
		{name: "valid", modify: func(*email.Config) {}},
		{name: "no server token", modify: func(c *email.Config) { c.PostmarkServerToken = "" }, errMsg: "PostmarkServerToken is required"},
		{name: "no account token", modify: func(c *email.Config) { c.PostmarkAccountToken = "" }, errMsg: "PostmarkAccountToken is required"},
		{name: "no sender", modify: func(c *email.Config) { c.SenderEmail = "" }, errMsg: "SenderEmail is required"},
		{name: "bad sender", modify: func(c *email.Config) { c.SenderEmail = "nope" }, errMsg: "SenderEmail must be a valid email address"},
		{name: "bad support", modify: func(c *email.Config) { c.SupportEmail = "nope" }, errMsg: "SupportEmail must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(&cfg)
			client, err := email.NewPostmarkClient(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPostmarkClient_SendEmail_ValidationError(t *testing.T) {
	t.Parallel()

	client, err := email.NewPostmarkClient(validConfig())
	require.NoError(t, err)

	err = client.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "invalid-email",
		Subject:  "Test Email",
		BodyHTML: "<p>Test content</p>",
	})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "test-server-token", r.Header.Get("X-Postmark-Server-Token"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"To":"seeker@example.com","MessageID":"m-1","ErrorCode":0,"Message":"OK"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := validConfig()
	cfg.PostmarkBaseURL = srv.URL + "/"
	cfg.MessageStream = "notifications"
	client, err := email.NewPostmarkClient(cfg)
	require.NoError(t, err)

	require.NoError(t, client.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "seeker@example.com",
		Subject:  "New job",
		BodyHTML: "<p>Go developer</p>",
		BodyText: "Go developer",
		Tag:      "job_posted",
		Metadata: map[string]string{"notification_id": "n-1"},
	}))

	assert.Equal(t, "sender@example.com", got["From"])
	assert.Equal(t, "support@example.com", got["ReplyTo"])
	assert.Equal(t, "Go developer", got["TextBody"])
	assert.Equal(t, "job_posted", got["Tag"])
	assert.Equal(t, "notifications", got["MessageStream"])
	assert.Equal(t, map[string]any{"notification_id": "n-1"}, got["Metadata"])
	assert.NotContains(t, got, "TrackOpens")
}

func TestPostmarkClient_SendEmail_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":406,"Message":"Inactive recipient"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := validConfig()
	cfg.PostmarkBaseURL = srv.URL
	client, err := email.NewPostmarkClient(cfg)
	require.NoError(t, err)

	err = client.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "gone@example.com",
		Subject:  "New job",
		BodyHTML: "<p>Go developer</p>",
	})
	require.ErrorIs(t, err, email.ErrFailedToSendEmail)
	assert.ErrorContains(t, err, "gone@example.com")
	assert.ErrorContains(t, err, "postmark error 406: Inactive recipient")
}
