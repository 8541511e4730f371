package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

const (
	sendAttempts = 3
	category     = "academias"
)

type sender interface {
	Send(*sgmail.SGMailV3) (*rest.Response, error)
}

// SendgridMailer delivers emails through the SendGrid v3 API.
// Throttled (429) and server side (5xx) failures are retried with a growing delay.
type SendgridMailer struct {
	client          sender
	from            *sgmail.Email
	subjPrefix      string
	frontendBaseURL string
	sandbox         bool
	backoff         time.Duration
	logger          core.Logger
}

var _ core.EmailService = (*SendgridMailer)(nil)

func NewSendgridMailer(conf *core.Config, logger core.Logger) *SendgridMailer {
	return &SendgridMailer{
		client:          sendgrid.NewSendClient(conf.SendgridApiKey),
		from:            sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix:      "[" + conf.AppName + "] ",
		frontendBaseURL: conf.FrontendBaseURL,
		sandbox:         conf.TestMode,
		backoff:         time.Second,
		logger:          logger,
	}
}

func (m *SendgridMailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go m.deliver(msg)
	}
}

func (m *SendgridMailer) deliver(msg *core.EmailMessage) {
	if err := msg.Render(m.frontendBaseURL); err != nil {
		m.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	if err := m.send(m.build(*msg)); err != nil {
		m.logger.Error(fmt.Sprintf("sending email %q: %v", msg.TemplateName, err), err)
	}
}

// build converts a rendered message. Attachment contents are already base64 encoded.
func (m *SendgridMailer) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(addresses(msg.To)...)
	p.AddCCs(addresses(msg.Cc)...)
	p.AddBCCs(addresses(msg.Bcc)...)

	out := sgmail.NewV3Mail()
	out.SetFrom(m.from)
	out.AddPersonalizations(p)
	out.AddCategories(category)
	if msg.TemplateName != "" {
		out.AddCategories(msg.TemplateName)
		out.SetCustomArg("template", msg.TemplateName)
	}

	// text/plain must come first
	if msg.TextContent != "" {
		out.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		out.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, at := range msg.Attachments {
		out.AddAttachment(sgmail.NewAttachment().
			SetContent(at.Content.String()).
			SetType(at.ContentType).
			SetFilename(at.Filename).
			SetDisposition("attachment"))
	}

	// receipts carry links into the dashboard, keep them unwrapped
	out.SetTrackingSettings(sgmail.NewTrackingSettings().
		SetClickTracking(sgmail.NewClickTrackingSetting().SetEnable(false)))
	if m.sandbox {
		out.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(true)))
	}
	return out
}

func (m *SendgridMailer) send(msg *sgmail.SGMailV3) error {
	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(time.Duration(attempt-1) * m.backoff)
		}

		var res *rest.Response
		res, err = m.client.Send(msg)
		switch {
		case err != nil:
			err = errors.Wrap(err, "calling sendgrid")
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
			err = errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
		case res.StatusCode >= http.StatusBadRequest:
			return errors.Errorf("sendgrid rejected the message - status %d: %s", res.StatusCode, res.Body)
		default:
			return nil
		}
	}
	return errors.Wrapf(err, "giving up after %d attempts", sendAttempts)
}

func addresses(list []mail.Address) []*sgmail.Email {
	out := make([]*sgmail.Email, 0, len(list))
	for _, addr := range list {
		out = append(out, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return out
}
