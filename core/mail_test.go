package core_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/barangay/assets"
	"github.com/trezcool/barangay/core"
	logsvc "github.com/trezcool/barangay/services/logger"
)

type statusData struct {
	ResidentName    string
	RequestID       string
	DocumentType    string
	Status          string
	ProcessingNotes string
}

func TestParseEmailTemplates(t *testing.T) {
	logger := logsvc.NewDiscardLogger()

	tests := []struct {
		name    string
		fsys    fstest.MapFS
		strict  bool
		wantErr string
	}{
		{
			name: "missing base layout",
			fsys: fstest.MapFS{
				"templates/email/greeting.txt": {Data: []byte(`{{define "content"}}hi{{end}}`)},
			},
			strict:  true,
			wantErr: "parsing email template templates/email/greeting.txt",
		},
		{
			name: "broken template",
			fsys: fstest.MapFS{
				"templates/email/_base.txt":    {Data: []byte(`{{template "content" .}}`)},
				"templates/email/greeting.txt": {Data: []byte(`{{define "content"}}{{.Data{{end}}`)},
			},
			strict:  true,
			wantErr: "parsing email template templates/email/greeting.txt",
		},
		{
			name: "lenient mode still reports failures",
			fsys: fstest.MapFS{
				"templates/email/greeting.txt":    {Data: []byte(`{{define "content"}}hi{{end}}`)},
				"templates/email/greeting.gohtml": {Data: []byte(`{{define "content"}}<p>hi</p>{{end}}`)},
			},
			wantErr: "parsing email templates: templates/email/greeting.gohtml, templates/email/greeting.txt",
		},
		{
			name: "valid",
			fsys: fstest.MapFS{
				"templates/email/_base.txt":    {Data: []byte(`{{template "content" .}}`)},
				"templates/email/greeting.txt": {Data: []byte(`{{define "content"}}hi{{end}}`)},
			},
			strict: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ParseEmailTemplates(tt.fsys, logger, tt.strict)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmailMessage_Render_embeddedTemplates(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(assets.FS, logsvc.NewDiscardLogger(), true))

	msg := core.EmailMessage{
		TemplateName: "document_status",
		TemplateData: statusData{
			ResidentName: "Juan Dela Cruz",
			RequestID:    "REQ-0000BEEF",
			DocumentType: "Barangay Clearance",
			Status:       "approved",
		},
	}
	require.NoError(t, msg.Render("https://barangay.test"))

	assert.Contains(t, msg.TextContent, "REQ-0000BEEF")
	assert.Contains(t, msg.TextContent, "https://barangay.test")
	assert.Contains(t, msg.HTMLContent, "REQ-0000BEEF")
	assert.True(t, msg.HasContent())
}
