package academy

import (
	"context"

	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
	"github.com/vanderidme15/vz-academias-sub001/core/form"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
	"github.com/vanderidme15/vz-academias-sub001/core/table"
)

type (
	// CustomForm edits part of the selected record from a custom row action.
	CustomForm[T dialog.Item] struct {
		Title   string
		Form    *form.Form
		Initial func(T) interface{}
		// Payload turns the validated values into the update sent to the store.
		Payload func(form.Values) map[string]interface{}
	}

	// Page is a management page: a table over a store, and the dialogs editing it.
	Page[T dialog.Item] struct {
		Slug     string
		Title    string
		Singular string

		Store *store.Store[T]
		Form  *form.Form
		Table *table.Table[T]

		Custom map[string]CustomForm[T]
		// References loads what select options are built from; nil when the form has none.
		References func(ctx context.Context)
	}
)

func (a *Academy) TeacherPage() Page[Teacher] {
	return Page[Teacher]{
		Slug: "teachers", Title: "Profesores", Singular: "profesor",
		Store: a.Teachers, Form: a.Forms.Teacher, Table: TeacherTable,
	}
}

func (a *Academy) SchedulePage() Page[Schedule] {
	return Page[Schedule]{
		Slug: "schedules", Title: "Horarios", Singular: "horario",
		Store: a.Schedules, Form: a.Forms.Schedule, Table: ScheduleTable,
	}
}

func (a *Academy) PeriodPage() Page[Period] {
	return Page[Period]{
		Slug: "periods", Title: "Periodos", Singular: "periodo",
		Store: a.Periods, Form: a.Forms.Period, Table: PeriodTable,
	}
}

func (a *Academy) StudentPage() Page[Student] {
	return Page[Student]{
		Slug: "students", Title: "Alumnos", Singular: "alumno",
		Store: a.Students, Form: a.Forms.Student, Table: StudentTable,
	}
}

func (a *Academy) CoursePage() Page[Course] {
	return Page[Course]{
		Slug: "courses", Title: "Cursos", Singular: "curso",
		Store: a.Courses, Form: a.Forms.Course, Table: CourseTable,
		References: func(ctx context.Context) {
			a.Teachers.FetchAll(ctx)
			a.Schedules.FetchAll(ctx)
			a.Periods.FetchAll(ctx)
		},
	}
}

func (a *Academy) EnrollmentPage() Page[Enrollment] {
	return Page[Enrollment]{
		Slug: "enrollments", Title: "Matrículas", Singular: "matrícula",
		Store: a.Enrollments, Form: a.Forms.Enrollment, Table: EnrollmentTable,
		Custom: map[string]CustomForm[Enrollment]{
			ActionPayment: {
				Title:   "Registrar pago",
				Form:    a.Forms.Payment,
				Initial: func(e Enrollment) interface{} { return e.Payment },
				Payload: func(values form.Values) map[string]interface{} {
					return map[string]interface{}{"payment": map[string]interface{}(values)}
				},
			},
		},
		References: func(ctx context.Context) {
			a.Students.FetchAll(ctx)
			a.Courses.FetchAll(ctx)
		},
	}
}

func (a *Academy) VolunteerPage() Page[Volunteer] {
	return Page[Volunteer]{
		Slug: "volunteers", Title: "Voluntarios", Singular: "voluntario",
		Store: a.Volunteers, Form: a.Forms.Volunteer, Table: VolunteerTable,
	}
}

// ActiveForm returns the form of the open create/edit dialog, its title and the values it opens with.
func (p Page[T]) ActiveForm(h *dialog.Handlers[T]) (*form.Form, string, form.Values) {
	if h.SelectedItem == nil {
		return p.Form, "Registrar " + p.Singular, p.Form.Initial(nil)
	}
	if cf, ok := p.Custom[h.Action()]; ok {
		return cf.Form, cf.Title, cf.Form.Initial(cf.Initial(*h.SelectedItem))
	}
	return p.Form, "Editar " + p.Singular, p.Form.Initial(*h.SelectedItem)
}

// Submit saves the open dialog: a custom action updates the selected record with its payload,
// otherwise the record is created or updated. The dialog closes once the record is saved.
func (p Page[T]) Submit(ctx context.Context, h *dialog.Handlers[T], values form.Values) (*T, map[string]string) {
	cf, ok := p.Custom[h.Action()]
	if !ok || h.SelectedItem == nil {
		return form.Submit(ctx, p.Form, values, h, p.Store)
	}

	payload, errs := cf.Form.Validate(values)
	if errs != nil {
		return nil, errs
	}
	saved := p.Store.Update(ctx, cf.Payload(payload), (*h.SelectedItem).GetID())
	if saved != nil {
		h.Close()
	}
	return saved, nil
}
