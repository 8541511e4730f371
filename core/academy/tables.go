package academy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vanderidme15/vz-academias-sub001/core/table"
)

// Custom row actions
const (
	ActionPayment = "pago"
	ActionQR      = "qr"
)

func money(v float64) string { return fmt.Sprintf("S/ %.2f", v) }

func count(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

var (
	TeacherTable = table.New([]table.Column[Teacher]{
		{Key: "color", Header: "", Kind: "color", Cell: func(t Teacher) string { return t.Color }},
		{Key: "name", Header: "Nombre", Cell: func(t Teacher) string { return t.Name }},
		{Key: "specialty", Header: "Especialidad", Cell: func(t Teacher) string { return t.Specialty }},
		{Key: "email", Header: "Correo", Cell: func(t Teacher) string { return t.Email }},
		{Key: "phone", Header: "Teléfono", Cell: func(t Teacher) string { return t.Phone }},
	})

	ScheduleTable = table.New([]table.Column[Schedule]{
		{Key: "name", Header: "Nombre", Cell: func(s Schedule) string { return s.Name }},
		{Key: "days", Header: "Días", Cell: func(s Schedule) string { return strings.Join(s.Days, ", ") }},
		{Key: "time", Header: "Hora", Cell: func(s Schedule) string { return s.StartTime + " - " + s.EndTime }},
	})

	PeriodTable = table.New([]table.Column[Period]{
		{Key: "name", Header: "Nombre", Cell: func(p Period) string { return p.Name }},
		{Key: "dates", Header: "Fechas", Cell: Period.Range},
		{Key: "is_active", Header: "Estado", Kind: "badge", Cell: func(p Period) string {
			if p.IsActive {
				return "Activo"
			}
			return "Inactivo"
		}},
	})

	StudentTable = table.New([]table.Column[Student]{
		{Key: "photo_url", Header: "", Kind: "image", Cell: func(s Student) string { return s.PhotoURL }},
		{Key: "name", Header: "Nombre", Cell: func(s Student) string { return s.Name }},
		{Key: "document_number", Header: "DNI", Cell: func(s Student) string { return s.DocumentNumber }},
		{Key: "phone", Header: "Teléfono", Cell: func(s Student) string { return s.Phone }},
		{Key: "guardian_name", Header: "Apoderado", Cell: func(s Student) string {
			if !s.IsMinor {
				return "-"
			}
			return s.GuardianName
		}},
	})

	CourseTable = table.New([]table.Column[Course]{
		{Key: "color", Header: "", Kind: "color", Cell: func(c Course) string { return c.Color }},
		{Key: "name", Header: "Curso", Cell: func(c Course) string { return c.Name }},
		{Key: "teacher", Header: "Profesor", Cell: func(c Course) string {
			if c.Teacher == nil {
				return "-"
			}
			return c.Teacher.Name
		}},
		{Key: "schedule", Header: "Horario", Cell: func(c Course) string {
			if c.Schedule == nil {
				return "-"
			}
			return c.Schedule.Summary()
		}},
		{Key: "price", Header: "Precio", Kind: "money", Cell: func(c Course) string { return money(c.Price) }},
		{Key: "total_classes", Header: "Clases", Cell: func(c Course) string { return count(c.TotalClasses) }},
	})

	EnrollmentTable = table.New([]table.Column[Enrollment]{
		{Key: "student", Header: "Alumno", Cell: func(e Enrollment) string {
			if e.Student == nil {
				return "-"
			}
			return e.Student.Name
		}},
		{Key: "course", Header: "Curso", Cell: func(e Enrollment) string {
			if e.Course == nil {
				return "-"
			}
			return e.Course.Name
		}},
		{Key: "classes", Header: "Asistencias", Cell: func(e Enrollment) string {
			return fmt.Sprintf("%d / %s", e.ClassesTaken, count(e.TotalClasses))
		}},
		{Key: "payment", Header: "Pago", Kind: "badge", Cell: func(e Enrollment) string {
			if e.Payment.Status == "" {
				return PaymentPending
			}
			return e.Payment.Status
		}},
	},
		table.RowAction{Kind: table.ActionCustom, Name: ActionPayment, Label: "Registrar pago"},
		table.RowAction{Kind: table.ActionCustom, Name: ActionQR, Label: "Código QR"},
	)

	VolunteerTable = table.New([]table.Column[Volunteer]{
		{Key: "name", Header: "Nombre", Cell: func(v Volunteer) string { return v.Name }},
		{Key: "role", Header: "Rol", Cell: func(v Volunteer) string { return v.Role }},
		{Key: "phone", Header: "Teléfono", Cell: func(v Volunteer) string { return v.Phone }},
		{Key: "checked_in_at", Header: "Ingreso", Cell: func(v Volunteer) string {
			if !v.CheckedInAt.Valid {
				return "-"
			}
			return v.CheckedInAt.Time.Local().Format("02/01/2006 15:04")
		}},
	},
		table.RowAction{Kind: table.ActionCustom, Name: ActionQR, Label: "Código QR"},
	)
)
