package notifications_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobnotify/pkg/notifications"
	"github.com/dmitrymomot/jobnotify/pkg/template"
)

func TestSelectTemplate(t *testing.T) {
	t.Parallel()

	realtimeDefault := notifications.Template{Name: "rt-default", Type: notifications.TypeJobPosted, Channel: notifications.ChannelRealtime, IsDefault: true}
	realtimeOther := notifications.Template{Name: "rt-other", Type: notifications.TypeJobPosted, Channel: notifications.ChannelRealtime}
	emailDefault := notifications.Template{Name: "email-default", Type: notifications.TypeJobPosted, Channel: notifications.ChannelEmail, IsDefault: true}
	otherType := notifications.Template{Name: "other", Type: notifications.TypeApplicationReceived, Channel: notifications.ChannelRealtime, IsDefault: true}

	tests := []struct {
		name       string
		candidates []notifications.Template
		channel    notifications.Channel
		want       string
		wantErr    bool
	}{
		{"channel default wins", []notifications.Template{realtimeOther, emailDefault, realtimeDefault}, notifications.ChannelRealtime, "rt-default", false},
		{"non-default of channel beats other channel", []notifications.Template{realtimeOther, emailDefault}, notifications.ChannelRealtime, "rt-other", false},
		{"falls back to type default", []notifications.Template{emailDefault, otherType}, notifications.ChannelRealtime, "email-default", false},
		{"none channel uses type default", []notifications.Template{realtimeDefault, emailDefault}, notifications.ChannelNone, "email-default", false},
		{"no template for type", []notifications.Template{otherType}, notifications.ChannelRealtime, "", true},
		{"empty", nil, notifications.ChannelRealtime, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := notifications.SelectTemplate(tt.candidates, notifications.TypeJobPosted, tt.channel)
			if tt.wantErr {
				assert.ErrorIs(t, err, notifications.ErrTemplateNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestFallbackContent(t *testing.T) {
	t.Parallel()

	c := notifications.FallbackContent(notifications.TypeApplicationStatusChanged)
	assert.Equal(t, "Application Status Changed", c.Title)
	assert.Equal(t, "You have a new application status changed notification.", c.Message)
	assert.Empty(t, template.Placeholders(c.Title+c.Message))

	assert.Equal(t, "Notification", notifications.FallbackContent("").Title)
}

func TestDefaultTemplates_AreCompleteForTriggerContext(t *testing.T) {
	t.Parallel()

	contexts := map[notifications.Type]map[string]string{
		notifications.TypeJobPosted: {
			"job_title": "Software Engineer", "company_name": "Tech Corp", "job_type": "full-time", "location": "Remote",
		},
		notifications.TypeApplicationReceived: {"job_title": "Software Engineer", "applicant_name": "Bob"},
		notifications.TypeApplicationStatusChanged: {
			"job_title": "Software Engineer", "company_name": "Tech Corp", "old_status": "pending", "new_status": "reviewed",
		},
		notifications.TypeMatchScoreCalculated: {"job_title": "Software Engineer", "company_name": "Tech Corp", "score": "87"},
		notifications.TypeSystemAnnouncement:   {"title": "Maintenance", "message": "Back soon"},
	}

	defaults := notifications.DefaultTemplates()
	require.Len(t, defaults, len(notifications.Types()))
	for _, tpl := range defaults {
		assert.True(t, tpl.IsDefault)
		assert.NoError(t, template.Missing(tpl.Content(), contexts[tpl.Type]), tpl.Name)
	}
}

func TestLoadTemplates(t *testing.T) {
	t.Parallel()

	src := `
templates:
  - name: job_posted_email
    type: job_posted
    channel: email
    title: "New job: {job_title}"
    message: "{company_name} is hiring."
    default: true
  - name: match_score
    type: match_score_calculated
    title: "{score}% match"
    message: "for {job_title}"
`
	got, err := notifications.LoadTemplates(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, notifications.Template{
		Name:            "job_posted_email",
		Type:            notifications.TypeJobPosted,
		Channel:         notifications.ChannelEmail,
		TitleTemplate:   "New job: {job_title}",
		MessageTemplate: "{company_name} is hiring.",
		IsDefault:       true,
	}, got[0])
	assert.Equal(t, notifications.ChannelRealtime, got[1].Channel)
	assert.False(t, got[1].IsDefault)
}

func TestLoadTemplates_Errors(t *testing.T) {
	t.Parallel()

	_, err := notifications.LoadTemplates(strings.NewReader("templates:\n  - name: x\n    title: t\n"))
	assert.ErrorContains(t, err, "type is required")

	_, err = notifications.LoadTemplates(strings.NewReader("templates:\n  - type: job_posted\n    channel: sms\n"))
	assert.ErrorContains(t, err, "unknown channel")

	_, err = notifications.LoadTemplates(strings.NewReader("templates: [\n"))
	assert.Error(t, err)

	got, err := notifications.LoadTemplates(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestSeedTemplates_CustomDefaultReplacesBuiltin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	custom, err := notifications.LoadTemplates(strings.NewReader(`
templates:
  - name: custom_job
    type: job_posted
    channel: realtime
    title: "Now hiring: {job_title}"
    message: "{company_name}"
    default: true
`))
	require.NoError(t, err)

	store := notifications.NewMemoryStorage()
	require.NoError(t, notifications.SeedTemplates(ctx, store, custom))
	// Restarts seed the same set again.
	require.NoError(t, notifications.SeedTemplates(ctx, store, custom))

	stored, err := store.FindTemplates(ctx, notifications.TypeJobPosted)
	require.NoError(t, err)
	got, err := notifications.SelectTemplate(stored, notifications.TypeJobPosted, notifications.ChannelRealtime)
	require.NoError(t, err)
	assert.Equal(t, "custom_job", got.Name)

	var defaults int
	for _, tpl := range stored {
		if tpl.IsDefault && tpl.Channel == notifications.ChannelRealtime {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	// Types without a custom template keep their built-in default.
	stored, err = store.FindTemplates(ctx, notifications.TypeApplicationReceived)
	require.NoError(t, err)
	got, err = notifications.SelectTemplate(stored, notifications.TypeApplicationReceived, notifications.ChannelRealtime)
	require.NoError(t, err)
	assert.Equal(t, "application_received_realtime", got.Name)
	assert.True(t, got.IsDefault)
}

func TestSeedTemplates_KeepsStoredDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()
	require.NoError(t, store.SaveTemplate(ctx, notifications.Template{
		Name:          "admin_status",
		Type:          notifications.TypeApplicationStatusChanged,
		Channel:       notifications.ChannelRealtime,
		TitleTemplate: "Status: {new_status}",
		IsDefault:     true,
	}))

	require.NoError(t, notifications.SeedTemplates(ctx, store, nil))

	stored, err := store.FindTemplates(ctx, notifications.TypeApplicationStatusChanged)
	require.NoError(t, err)
	got, err := notifications.SelectTemplate(stored, notifications.TypeApplicationStatusChanged, notifications.ChannelRealtime)
	require.NoError(t, err)
	assert.Equal(t, "admin_status", got.Name)
	assert.Len(t, stored, 2)
}

func TestSeedTemplates_ConflictingCustomDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()
	custom := []notifications.Template{
		{Name: "a", Type: notifications.TypeJobPosted, Channel: notifications.ChannelRealtime, TitleTemplate: "a", IsDefault: true},
		{Name: "b", Type: notifications.TypeJobPosted, Channel: notifications.ChannelRealtime, TitleTemplate: "b", IsDefault: true},
	}
	assert.ErrorIs(t, notifications.SeedTemplates(ctx, store, custom), notifications.ErrDuplicateDefaultTemplate)
}
