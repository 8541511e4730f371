package emailsvc

import (
	"bytes"
	"net/http"
	"net/mail"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/tests"
)

type reply struct {
	status int
	err    error
}

// scriptedSender answers with the next reply, then 202 once the script is over.
type scriptedSender struct {
	mu      sync.Mutex
	replies []reply
	sent    []*sgmail.SGMailV3
}

func (s *scriptedSender) Send(msg *sgmail.SGMailV3) (*rest.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	r := reply{status: http.StatusAccepted}
	if len(s.replies) > 0 {
		r, s.replies = s.replies[0], s.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &rest.Response{StatusCode: r.status}, nil
}

func newTestMailer(t *testing.T, client sender, sandbox bool) *SendgridMailer {
	t.Helper()
	m := NewSendgridMailer(&core.Config{
		AppName:          "Academias",
		TestMode:         sandbox,
		DefaultFromEmail: mail.Address{Name: "Academias", Address: "no-reply@academias.pe"},
	}, testutil.NewLogger(t))
	m.client = client
	m.backoff = 0
	return m
}

func TestSendgridMailer_Build(t *testing.T) {
	m := newTestMailer(t, new(scriptedSender), true)

	msg := core.EmailMessage{
		To:           []mail.Address{{Name: "Juana", Address: "juana@correo.pe"}},
		Bcc:          []mail.Address{{Address: "archivo@academias.pe"}},
		Subject:      "Asistencia registrada",
		TemplateName: "attendance_receipt",
		TextContent:  "Hola Juana",
	}
	require.NoError(t, msg.Attach(bytes.NewReader([]byte("png")), "qr-e1.png", "image/png"))

	out := m.build(msg)
	require.Len(t, out.Personalizations, 1)
	p := out.Personalizations[0]
	assert.Equal(t, "[Academias] Asistencia registrada", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "juana@correo.pe", p.To[0].Address)
	assert.Empty(t, p.CC)
	require.Len(t, p.BCC, 1)

	require.Len(t, out.Content, 1, "no empty html part")
	assert.Equal(t, "text/plain", out.Content[0].Type)

	require.Len(t, out.Attachments, 1)
	assert.Equal(t, "cG5n", out.Attachments[0].Content)
	assert.Equal(t, "image/png", out.Attachments[0].Type)
	assert.Equal(t, "attachment", out.Attachments[0].Disposition)

	assert.Equal(t, []string{"academias", "attendance_receipt"}, out.Categories)
	assert.Equal(t, "attendance_receipt", out.CustomArgs["template"])
	require.NotNil(t, out.MailSettings)
	assert.True(t, *out.MailSettings.SandboxMode.Enable)
	assert.False(t, *out.TrackingSettings.ClickTracking.Enable)
}

func TestSendgridMailer_BuildOutsideTestMode(t *testing.T) {
	m := newTestMailer(t, new(scriptedSender), false)

	out := m.build(core.EmailMessage{
		To:          []mail.Address{{Address: "juana@correo.pe"}},
		TextContent: "Hola",
		HTMLContent: "<p>Hola</p>",
	})
	require.Len(t, out.Content, 2)
	assert.Equal(t, "text/plain", out.Content[0].Type)
	assert.Equal(t, "text/html", out.Content[1].Type)
	assert.Nil(t, out.MailSettings)
	assert.Equal(t, []string{"academias"}, out.Categories)
}

func TestSendgridMailer_Send(t *testing.T) {
	tests := []struct {
		name      string
		replies   []reply
		wantErr   bool
		wantCalls int
	}{
		{name: "accepted", wantCalls: 1},
		{name: "throttled then accepted", replies: []reply{{status: http.StatusTooManyRequests}}, wantCalls: 2},
		{name: "network error then accepted", replies: []reply{{err: errors.New("connection reset")}}, wantCalls: 2},
		{name: "rejected is not retried", replies: []reply{{status: http.StatusBadRequest}}, wantErr: true, wantCalls: 1},
		{
			name:      "gives up",
			replies:   []reply{{status: http.StatusBadGateway}, {status: http.StatusBadGateway}, {status: http.StatusServiceUnavailable}},
			wantErr:   true,
			wantCalls: sendAttempts,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedSender{replies: tt.replies}
			m := newTestMailer(t, client, false)

			err := m.send(sgmail.NewV3Mail())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, client.sent, tt.wantCalls)
		})
	}
}
