package academy

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/form"
)

// Payment methods
var PaymentMethods = []form.Option{
	{Value: "efectivo", Label: "Efectivo"},
	{Value: "transferencia", Label: "Transferencia"},
	{Value: "yape", Label: "Yape / Plin"},
	{Value: "tarjeta", Label: "Tarjeta"},
}

var paymentStatuses = []form.Option{
	{Value: PaymentPending, Label: "Pendiente"},
	{Value: PaymentPartial, Label: "Parcial"},
	{Value: PaymentPaid, Label: "Pagado"},
}

func weekdayOptions() []form.Option {
	opts := make([]form.Option, 0, len(core.Weekdays))
	for _, d := range core.Weekdays {
		opts = append(opts, form.Option{Value: core.Fold(d), Label: d})
	}
	return opts
}

func oneOf(opts []form.Option) string {
	tag := "oneof="
	for i, o := range opts {
		if i > 0 {
			tag += " "
		}
		tag += o.Value
	}
	return tag
}

var (
	TeacherSchema = form.Schema{
		"name":      "notblank,max=120",
		"email":     "email",
		"phone":     "max=20",
		"specialty": "max=120",
		"color":     "hexcolor",
	}
	TeacherFields = []form.FieldConfig{
		{Name: "name", Label: "Nombre", Type: form.Text, Required: true},
		{Name: "email", Label: "Correo", Type: form.Email},
		{Name: "phone", Label: "Teléfono", Type: form.Text},
		{Name: "specialty", Label: "Especialidad", Type: form.Text, Placeholder: "Ej. Marinera"},
		{Name: "color", Label: "Color", Type: form.Color},
	}

	ScheduleSchema = form.Schema{
		"name":       "max=120",
		"days":       "min=1,weekdays",
		"start_time": "hhmm",
		"end_time":   "hhmm",
	}
	ScheduleFields = []form.FieldConfig{
		{Name: "name", Label: "Nombre", Type: form.Text},
		{Name: "days", Label: "Días", Type: form.MultiSelect, Required: true, Options: weekdayOptions()},
		{Name: "start_time", Label: "Hora de inicio", Type: form.Time, Required: true},
		{Name: "end_time", Label: "Hora de fin", Type: form.Time, Required: true},
	}

	PeriodSchema = form.Schema{
		"name":      "notblank,max=120",
		"dates":     "len=2,dive,datetime=2006-01-02",
		"is_active": "",
	}
	PeriodFields = []form.FieldConfig{
		{Name: "name", Label: "Nombre", Type: form.Text, Required: true, Placeholder: "Ej. Verano 2025"},
		{Name: "dates", Label: "Fechas", Type: form.DateRange, Required: true},
		{Name: "is_active", Label: "Activo", Type: form.Checkbox},
	}

	StudentSchema = form.Schema{
		"name":            "notblank,max=120",
		"document_number": "max=20",
		"email":           "email",
		"phone":           "max=20",
		"birth_date":      "datetime=2006-01-02",
		"is_minor":        "",
		"guardian_name":   "notblank,max=120",
		"guardian_phone":  "notblank,max=20",
		"height":          "gt=0,lte=3",
		"photo_url":       "url",
		"notes":           "max=500",
	}
	StudentFields = []form.FieldConfig{
		{Name: "name", Label: "Nombre completo", Type: form.Text, Required: true},
		{Name: "document_number", Label: "DNI", Type: form.Text},
		{Name: "email", Label: "Correo", Type: form.Email},
		{Name: "phone", Label: "Teléfono", Type: form.Text},
		{Name: "birth_date", Label: "Fecha de nacimiento", Type: form.Date},
		{Name: "is_minor", Label: "Es menor de edad", Type: form.Checkbox},
		{Name: "guardian_name", Label: "Apoderado", Type: form.Text, Required: true,
			DependsOn: &form.Condition{Field: "is_minor"}},
		{Name: "guardian_phone", Label: "Teléfono del apoderado", Type: form.Text, Required: true,
			DependsOn: &form.Condition{Field: "is_minor"}},
		{Name: "height", Label: "Estatura (m)", Type: form.Height},
		{Name: "photo_url", Label: "Foto", Type: form.Image},
		{Name: "notes", Label: "Notas", Type: form.Textarea},
	}

	CourseSchema = form.Schema{
		"name":          "notblank,max=120",
		"description":   "max=500",
		"color":         "hexcolor",
		"teacher_id":    "uuid4",
		"schedule_id":   "uuid4",
		"period_id":     "uuid4",
		"price":         "gte=0",
		"capacity":      "gte=1",
		"total_classes": "gte=1",
	}
	CourseFields = []form.FieldConfig{
		{Name: "name", Label: "Nombre", Type: form.Text, Required: true},
		{Name: "description", Label: "Descripción", Type: form.Textarea},
		{Name: "color", Label: "Color", Type: form.Color},
		{Name: "teacher_id", Label: "Profesor", Type: form.Select},
		{Name: "schedule_id", Label: "Horario", Type: form.Select},
		{Name: "period_id", Label: "Periodo", Type: form.Select},
		{Name: "price", Label: "Precio (S/)", Type: form.Price, Required: true},
		{Name: "capacity", Label: "Vacantes", Type: form.Integer},
		{Name: "total_classes", Label: "Número de clases", Type: form.Integer},
	}

	EnrollmentSchema = form.Schema{
		"student_id":    "uuid4",
		"course_id":     "uuid4",
		"total_classes": "gte=1",
	}

	PaymentSchema = form.Schema{
		"method":  oneOf(PaymentMethods),
		"amount":  "gte=0",
		"status":  oneOf(paymentStatuses),
		"paid_at": "datetime=2006-01-02",
	}
	PaymentFields = []form.FieldConfig{
		{Name: "method", Label: "Método de pago", Type: form.Select, Required: true, Options: PaymentMethods},
		{Name: "amount", Label: "Monto (S/)", Type: form.Price, Required: true},
		{Name: "status", Label: "Estado", Type: form.Radio, Required: true, Options: paymentStatuses},
		{Name: "paid_at", Label: "Fecha de pago", Type: form.Date, Required: true,
			DependsOn: &form.Condition{Field: "status", Value: PaymentPaid}},
	}

	VolunteerSchema = form.Schema{
		"name":  "notblank,max=120",
		"email": "email",
		"phone": "max=20",
		"role":  "max=60",
	}
	VolunteerFields = []form.FieldConfig{
		{Name: "name", Label: "Nombre", Type: form.Text, Required: true},
		{Name: "email", Label: "Correo", Type: form.Email},
		{Name: "phone", Label: "Teléfono", Type: form.Text},
		{Name: "role", Label: "Rol", Type: form.Text, Placeholder: "Ej. Recepción"},
	}
)

// enrollmentFields fills the number of classes from the chosen course.
func enrollmentFields(courses func(id string) (Course, bool)) []form.FieldConfig {
	return []form.FieldConfig{
		{Name: "student_id", Label: "Alumno", Type: form.Select, Required: true},
		{Name: "course_id", Label: "Curso", Type: form.Select, Required: true,
			OnChange: func(value interface{}, values form.Values) {
				if c, ok := courses(fmt.Sprint(value)); ok && c.TotalClasses > 0 {
					values["total_classes"] = c.TotalClasses
				}
			}},
		{Name: "total_classes", Label: "Número de clases", Type: form.Integer, Required: true},
	}
}

// Forms are the dialogs' forms of one academy.
type Forms struct {
	Teacher    *form.Form
	Schedule   *form.Form
	Period     *form.Form
	Student    *form.Form
	Course     *form.Form
	Enrollment *form.Form
	Payment    *form.Form
	Volunteer  *form.Form
}

func newForms(courses func(id string) (Course, bool), validate *validator.Validate, translator ut.Translator) Forms {
	return Forms{
		Teacher:    form.Must(form.New(TeacherSchema, TeacherFields, validate, translator)),
		Schedule:   form.Must(form.New(ScheduleSchema, ScheduleFields, validate, translator)),
		Period:     form.Must(form.New(PeriodSchema, PeriodFields, validate, translator)),
		Student:    form.Must(form.New(StudentSchema, StudentFields, validate, translator)),
		Course:     form.Must(form.New(CourseSchema, CourseFields, validate, translator)),
		Enrollment: form.Must(form.New(EnrollmentSchema, enrollmentFields(courses), validate, translator)),
		Payment:    form.Must(form.New(PaymentSchema, PaymentFields, validate, translator)),
		Volunteer:  form.Must(form.New(VolunteerSchema, VolunteerFields, validate, translator)),
	}
}
