package emailsvc_test

import (
	"bytes"
	"log"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/academy"
	appfs "github.com/vanderidme15/vz-academias-sub001/fs"
	"github.com/vanderidme15/vz-academias-sub001/services/email"
	"github.com/vanderidme15/vz-academias-sub001/tests"
)

var conf = &core.Config{
	AppName:          "Academias",
	DefaultFromEmail: mail.Address{Name: "Academias", Address: "no-reply@academias.pe"},
	FrontendBaseURL:  "http://localhost:8000",
}

func TestConsoleServiceMock(t *testing.T) {
	emailsvc.ResetSentMessages()
	svc := emailsvc.NewConsoleServiceMock(conf, testutil.NewLogger(t))

	withAttachment := &core.EmailMessage{To: []mail.Address{{Address: "b@test.pe"}}, Subject: "QR"}
	require.NoError(t, withAttachment.Attach(strings.NewReader("png"), "qr.png", "image/png"))

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.pe"}}, Subject: "Hola", BodyStr: "hola"},
		&core.EmailMessage{Subject: "sin destinatarios", BodyStr: "nadie"},
		&core.EmailMessage{To: []mail.Address{{Address: "c@test.pe"}}, Subject: "vacío"},
		withAttachment,
	)

	sent := emailsvc.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Hola", sent[0].Subject)
	assert.Equal(t, "hola", sent[0].TextContent)
	assert.Equal(t, "QR", sent[1].Subject)
}

func TestConsoleServiceMock_AttendanceReceipt(t *testing.T) {
	logger := testutil.NewLogger(t)
	core.ParseEmailTemplates(appfs.FS, "templates/email", logger, true)
	emailsvc.ResetSentMessages()
	svc := emailsvc.NewConsoleServiceMock(conf, logger)

	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: "Juana Pérez", Address: "juana@test.pe"}},
		Subject:      "Asistencia registrada",
		TemplateName: academy.AttendanceReceiptTemplate,
		TemplateData: academy.ReceiptData{Student: "Juana Pérez", Course: "Marinera", ClassesTaken: 3, ClassesLeft: 5},
	})

	sent := emailsvc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Marinera")
	assert.Contains(t, sent[0].HTMLContent, "Marinera")
}

// syncBuffer is written by the service goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsoleService_Prints(t *testing.T) {
	emailsvc.ResetSentMessages()
	out := new(syncBuffer)
	svc := emailsvc.NewConsoleService(conf, log.New(out, "", 0), testutil.NewLogger(t))

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Ana", Address: "ana@test.pe"}},
		Cc:      []mail.Address{{Address: "cc@test.pe"}},
		Subject: "Bienvenida",
		BodyStr: "hola Ana",
	}
	require.NoError(t, msg.Attach(strings.NewReader("png"), "qr.png", "image/png"))
	svc.SendMessages(msg)

	require.Eventually(t, func() bool { return len(emailsvc.Sent()) == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "hola Ana") }, time.Second, 10*time.Millisecond)

	printed := out.String()
	assert.Contains(t, printed, "Subject: [Academias] Bienvenida")
	assert.Contains(t, printed, `To: "Ana" <ana@test.pe>`)
	assert.Contains(t, printed, "CC: <cc@test.pe>")
	assert.Contains(t, printed, "multipart/mixed")
	assert.Contains(t, printed, "filename=qr.png")
}
