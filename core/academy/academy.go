package academy

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/form"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
)

type (
	// Academy is the set of stores and forms of one tenant.
	Academy struct {
		ID string

		Teachers    *store.Store[Teacher]
		Schedules   *store.Store[Schedule]
		Periods     *store.Store[Period]
		Students    *store.Store[Student]
		Courses     *store.Store[Course]
		Enrollments *store.Store[Enrollment]
		Volunteers  *store.Store[Volunteer]

		Forms Forms

		notifier notify.Notifier
		receipts Receipts
	}

	// Registry lazily builds one Academy per tenant and keeps it for the lifetime of the app.
	Registry struct {
		db         backend.Client
		notifier   notify.Notifier
		auditor    store.Auditor
		validate   *validator.Validate
		translator ut.Translator
		receipts   Receipts

		mu        sync.Mutex
		academies map[string]*Academy
	}
)

func NewRegistry(
	db backend.Client,
	notifier notify.Notifier,
	auditor store.Auditor,
	validate *validator.Validate,
	translator ut.Translator,
	receipts Receipts,
) *Registry {
	return &Registry{
		db:         db,
		notifier:   notifier,
		auditor:    auditor,
		validate:   validate,
		translator: translator,
		receipts:   receipts,
		academies:  make(map[string]*Academy),
	}
}

// Academy returns the academy `id`, building it on first use.
func (r *Registry) Academy(id string) *Academy {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.academies[id]; ok {
		return a
	}
	a := New(id, r.db, r.notifier, r.auditor, r.validate, r.translator, r.receipts)
	r.academies[id] = a
	return a
}

// New returns the academy `id`. Teachers, students and enrollments are audited.
// A nil auditor or receipts disables them.
func New(
	id string,
	db backend.Client,
	notifier notify.Notifier,
	auditor store.Auditor,
	validate *validator.Validate,
	translator ut.Translator,
	receipts Receipts,
) *Academy {
	a := &Academy{ID: id, notifier: notifier, receipts: receipts}

	a.Teachers = store.New[Teacher](db, notifier, store.Options[Teacher]{
		Table: TableTeachers, Label: "profesores", Tenant: id, Auditor: auditor,
	})
	a.Schedules = store.New[Schedule](db, notifier, store.Options[Schedule]{
		Table: TableSchedules, Label: "horarios", Tenant: id,
		Sort: SortSchedules,
	})
	a.Periods = store.New[Period](db, notifier, store.Options[Period]{
		Table: TablePeriods, Label: "periodos", Tenant: id,
	})
	a.Students = store.New[Student](db, notifier, store.Options[Student]{
		Table: TableStudents, Label: "alumnos", Tenant: id, Auditor: auditor,
	})
	a.Courses = store.New[Course](db, notifier, store.Options[Course]{
		Table: TableCourses, Label: "cursos", Tenant: id,
		Expand: []string{"teacher", "schedule", "period"},
	})
	a.Enrollments = store.New[Enrollment](db, notifier, store.Options[Enrollment]{
		Table: TableEnrollments, Label: "matrículas", Tenant: id, Auditor: auditor,
		Expand: []string{"student", "course"},
	})
	a.Volunteers = store.New[Volunteer](db, notifier, store.Options[Volunteer]{
		Table: TableVolunteers, Label: "voluntarios", Tenant: id,
	})

	a.Forms = newForms(a.Courses.Find, validate, translator)
	return a
}

// Options returns the select options of the fields referencing other records.
// The lists come from the stores as currently loaded.
func (a *Academy) Options() map[string][]form.Option {
	return map[string][]form.Option{
		"teacher_id":  options(a.Teachers.Items(), func(t Teacher) string { return t.Name }),
		"schedule_id": options(a.Schedules.Items(), func(s Schedule) string { return s.Summary() }),
		"period_id":   options(a.Periods.Items(), func(p Period) string { return p.Name }),
		"student_id":  options(a.Students.Items(), func(s Student) string { return s.Name }),
		"course_id":   options(a.Courses.Items(), func(c Course) string { return c.Name }),
	}
}

func options[T store.Entity](items []T, label func(T) string) []form.Option {
	opts := make([]form.Option, 0, len(items))
	for _, item := range items {
		opts = append(opts, form.Option{Value: item.GetID(), Label: label(item)})
	}
	return opts
}

// FetchReferences loads the lists the select options come from.
func (a *Academy) FetchReferences(ctx context.Context) {
	a.Teachers.FetchAll(ctx)
	a.Schedules.FetchAll(ctx)
	a.Periods.FetchAll(ctx)
	a.Students.FetchAll(ctx)
	a.Courses.FetchAll(ctx)
}
