package academy

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

// AttendanceReceiptTemplate is rendered from templates/email.
const AttendanceReceiptTemplate = "attendance_receipt"

type (
	// Mailer emails a receipt, with the enrollment QR code attached, to the student who checked in.
	Mailer struct {
		email  core.EmailService
		badge  func(code string) ([]byte, error) // png
		logger core.Logger
	}

	ReceiptData struct {
		Student      string
		Course       string
		ClassesTaken int
		ClassesLeft  int
		At           string
	}
)

var _ Receipts = (*Mailer)(nil)

func NewMailer(email core.EmailService, badge func(code string) ([]byte, error), logger core.Logger) *Mailer {
	return &Mailer{email: email, badge: badge, logger: logger}
}

func (m *Mailer) AttendanceRecorded(_ context.Context, e Enrollment) {
	if e.Student == nil || e.Student.Email == "" {
		return
	}

	data := ReceiptData{
		Student:      e.Student.Name,
		ClassesTaken: e.ClassesTaken,
		ClassesLeft:  e.ClassesLeft(),
	}
	if e.Course != nil {
		data.Course = e.Course.Name
	}
	if n := len(e.Attendance); n > 0 {
		data.At = e.Attendance[n-1].At.Local().Format("02/01/2006 15:04")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: e.Student.Name, Address: e.Student.Email}},
		Subject:      "Asistencia registrada",
		TemplateName: AttendanceReceiptTemplate,
		TemplateData: data,
	}
	if m.badge != nil {
		png, err := m.badge(e.ID)
		if err == nil {
			err = msg.Attach(bytes.NewReader(png), "qr-"+e.ID+".png", "image/png")
		}
		if err != nil {
			m.logger.Error(fmt.Sprintf("receipt: attaching qr of enrollment %s: %v", e.ID, err), err)
		}
	}
	m.email.SendMessages(msg)
}
