package academy

import (
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
)

// Tables
const (
	TableTeachers    = "teachers"
	TableSchedules   = "schedules"
	TablePeriods     = "periods"
	TableStudents    = "students"
	TableCourses     = "courses"
	TableEnrollments = "enrollments"
	TableVolunteers  = "volunteers"
)

func text(names ...string) []backend.Column {
	cols := make([]backend.Column, 0, len(names))
	for _, n := range names {
		cols = append(cols, backend.Column{Name: n, Type: backend.TypeText})
	}
	return cols
}

func columns(groups ...[]backend.Column) []backend.Column {
	var cols []backend.Column
	for _, g := range groups {
		cols = append(cols, g...)
	}
	return cols
}

// Schema describes the academy tables for the backend.
var Schema = backend.NewSchema(
	backend.TableSchema{
		Name:     TableTeachers,
		Columns:  text("academy_id", "name", "email", "phone", "specialty", "color"),
		Required: []string{"academy_id", "name"},
	},
	backend.TableSchema{
		Name: TableSchedules,
		Columns: columns(
			text("academy_id", "name", "start_time", "end_time"),
			[]backend.Column{{Name: "days", Type: backend.TypeJSON}},
		),
		Required: []string{"academy_id", "days", "start_time", "end_time"},
	},
	backend.TableSchema{
		Name: TablePeriods,
		Columns: columns(
			text("academy_id", "name"),
			[]backend.Column{
				{Name: "dates", Type: backend.TypeJSON},
				{Name: "is_active", Type: backend.TypeBool},
			},
		),
		Required: []string{"academy_id", "name", "dates"},
	},
	backend.TableSchema{
		Name: TableStudents,
		Columns: columns(
			text("academy_id", "name", "document_number", "email", "phone", "birth_date",
				"guardian_name", "guardian_phone", "photo_url", "notes"),
			[]backend.Column{
				{Name: "is_minor", Type: backend.TypeBool},
				{Name: "height", Type: backend.TypeNumber},
			},
		),
		Required: []string{"academy_id", "name"},
	},
	backend.TableSchema{
		Name: TableCourses,
		Columns: columns(
			text("academy_id", "name", "description", "color", "teacher_id", "schedule_id", "period_id"),
			[]backend.Column{
				{Name: "price", Type: backend.TypeNumber},
				{Name: "capacity", Type: backend.TypeNumber},
				{Name: "total_classes", Type: backend.TypeNumber},
			},
		),
		Relations: []backend.Relation{
			{Name: "teacher", Column: "teacher_id", Table: TableTeachers},
			{Name: "schedule", Column: "schedule_id", Table: TableSchedules},
			{Name: "period", Column: "period_id", Table: TablePeriods},
		},
		Required: []string{"academy_id", "name"},
	},
	backend.TableSchema{
		Name: TableEnrollments,
		Columns: columns(
			text("academy_id", "student_id", "course_id"),
			[]backend.Column{
				{Name: "payment", Type: backend.TypeJSON},
				{Name: "attendance", Type: backend.TypeJSON},
				{Name: "classes_taken", Type: backend.TypeNumber},
				{Name: "total_classes", Type: backend.TypeNumber},
			},
		),
		Relations: []backend.Relation{
			{Name: "student", Column: "student_id", Table: TableStudents},
			{Name: "course", Column: "course_id", Table: TableCourses},
		},
		Required: []string{"academy_id", "student_id", "course_id"},
	},
	backend.TableSchema{
		Name: TableVolunteers,
		Columns: columns(
			text("academy_id", "name", "email", "phone", "role"),
			[]backend.Column{{Name: "checked_in_at", Type: backend.TypeTime}},
		),
		Required: []string{"academy_id", "name"},
	},
)
