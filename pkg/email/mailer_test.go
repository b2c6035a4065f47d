package email_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/pkg/email"
)

func TestSendEmailParamsValidate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "artist@example.com",
		Subject:  "Your track was approved",
		BodyHTML: "<p>Congrats!</p>",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
	}{
		{"missing recipient", func(p *email.SendEmailParams) { p.SendTo = "" }},
		{"malformed recipient", func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }},
		{"missing subject", func(p *email.SendEmailParams) { p.Subject = "" }},
		{"missing body", func(p *email.SendEmailParams) { p.BodyHTML = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
		})
	}
}

func TestDevSenderWritesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "artist@example.com",
		Subject:  "Track rejected",
		BodyHTML: "<p>Sorry.</p>",
		Tag:      "track-rejected",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFound, jsonFound bool
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFound = true
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			assert.Equal(t, "<p>Sorry.</p>", string(data))
		case ".json":
			jsonFound = true
			assert.True(t, strings.Contains(e.Name(), "track-rejected"))
		}
	}
	assert.True(t, htmlFound)
	assert.True(t, jsonFound)
}

func TestNewPostmarkClientValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := email.NewPostmarkClient(email.Config{
		PostmarkAccountToken: "acc",
		SenderEmail:          "no-reply@soundrift.local",
		SupportEmail:         "support@soundrift.local",
	})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	_, err = email.NewPostmarkClient(email.Config{
		PostmarkServerToken:  "srv",
		PostmarkAccountToken: "acc",
		SenderEmail:          "broken",
		SupportEmail:         "support@soundrift.local",
	})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestNewSenderFallsBackToDev(t *testing.T) {
	t.Parallel()

	sender, err := email.NewSender(email.Config{DevOutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, sender)
}
