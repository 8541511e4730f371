// Package academy holds the entities of an academy and wires their stores, forms and tables.
package academy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
)

// Payment statuses
const (
	PaymentPending = "pendiente"
	PaymentPartial = "parcial"
	PaymentPaid    = "pagado"
)

func optionalString(s string) null.String {
	return null.NewString(s, s != "")
}

type Teacher struct {
	ID        string    `json:"id"`
	AcademyID string    `json:"academy_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Specialty string    `json:"specialty"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t Teacher) GetID() string { return t.ID }
func (t Teacher) DisplayFields() dialog.Display {
	return dialog.Display{Name: optionalString(t.Name), Description: optionalString(t.Specialty)}
}

type Schedule struct {
	ID        string    `json:"id"`
	AcademyID string    `json:"academy_id"`
	Name      string    `json:"name"`
	Days      []string  `json:"days"`
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`   // HH:MM
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Schedule) GetID() string { return s.ID }
func (s Schedule) DisplayFields() dialog.Display {
	return dialog.Display{Name: optionalString(s.Name), Title: optionalString(s.Summary())}
}

// Summary reads like "lunes, miércoles 18:00 - 19:30".
func (s Schedule) Summary() string {
	days := strings.Join(s.Days, ", ")
	if s.StartTime == "" {
		return days
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s - %s", days, s.StartTime, s.EndTime))
}

// weekdayIndex of the first day; schedules without a known day go last.
func (s Schedule) weekdayIndex() int {
	if len(s.Days) > 0 {
		if idx := core.WeekdayIndex(s.Days[0]); idx > 0 {
			return idx
		}
	}
	return len(core.Weekdays) + 1
}

// SortSchedules orders schedules by the weekday of their first day, then by start time.
func SortSchedules(schedules []Schedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		a, b := schedules[i].weekdayIndex(), schedules[j].weekdayIndex()
		if a != b {
			return a < b
		}
		return schedules[i].StartTime < schedules[j].StartTime
	})
}

type Period struct {
	ID        string    `json:"id"`
	AcademyID string    `json:"academy_id"`
	Name      string    `json:"name"`
	Dates     []string  `json:"dates"` // [start, end] as YYYY-MM-DD
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Period) GetID() string { return p.ID }
func (p Period) DisplayFields() dialog.Display {
	return dialog.Display{Name: optionalString(p.Name), Title: optionalString(p.Range())}
}

func (p Period) Range() string {
	if len(p.Dates) != 2 {
		return ""
	}
	return p.Dates[0] + " al " + p.Dates[1]
}

type Student struct {
	ID             string       `json:"id"`
	AcademyID      string       `json:"academy_id"`
	Name           string       `json:"name"`
	DocumentNumber string       `json:"document_number"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	BirthDate      string       `json:"birth_date"`
	IsMinor        bool         `json:"is_minor"`
	GuardianName   string       `json:"guardian_name"`
	GuardianPhone  string       `json:"guardian_phone"`
	Height         null.Float64 `json:"height"` // meters
	PhotoURL       string       `json:"photo_url"`
	Notes          string       `json:"notes"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (s Student) GetID() string { return s.ID }
func (s Student) DisplayFields() dialog.Display {
	return dialog.Display{Name: optionalString(s.Name), Description: optionalString(s.DocumentNumber)}
}

type Course struct {
	ID           string    `json:"id"`
	AcademyID    string    `json:"academy_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Color        string    `json:"color"`
	TeacherID    string    `json:"teacher_id"`
	ScheduleID   string    `json:"schedule_id"`
	PeriodID     string    `json:"period_id"`
	Price        float64   `json:"price"`
	Capacity     int       `json:"capacity"`
	TotalClasses int       `json:"total_classes"`
	Teacher      *Teacher  `json:"teacher,omitempty"`
	Schedule     *Schedule `json:"schedule,omitempty"`
	Period       *Period   `json:"period,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c Course) GetID() string { return c.ID }
func (c Course) DisplayFields() dialog.Display {
	return dialog.Display{
		Name:        optionalString(c.Name),
		Amount:      null.NewFloat64(c.Price, c.Price > 0),
		Description: optionalString(c.Description),
	}
}

type Payment struct {
	Method string       `json:"method"`
	Amount null.Float64 `json:"amount"`
	Status string       `json:"status"`
	PaidAt string       `json:"paid_at"` // YYYY-MM-DD
}

type Attendance struct {
	At time.Time `json:"at"`
	By string    `json:"by"`
}

type Enrollment struct {
	ID           string       `json:"id"`
	AcademyID    string       `json:"academy_id"`
	StudentID    string       `json:"student_id"`
	CourseID     string       `json:"course_id"`
	Student      *Student     `json:"student,omitempty"`
	Course       *Course      `json:"course,omitempty"`
	Payment      Payment      `json:"payment"`
	Attendance   []Attendance `json:"attendance"`
	ClassesTaken int          `json:"classes_taken"`
	TotalClasses int          `json:"total_classes"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (e Enrollment) GetID() string { return e.ID }
func (e Enrollment) DisplayFields() dialog.Display {
	d := dialog.Display{Amount: e.Payment.Amount}
	if e.Student != nil {
		d.Name = optionalString(e.Student.Name)
	}
	if e.Course != nil {
		d.Title = optionalString(e.Course.Name)
	}
	return d
}

// DisplayName is shown on the check-in confirmation.
func (e Enrollment) DisplayName() string {
	if e.Student != nil && e.Student.Name != "" {
		return e.Student.Name
	}
	return e.ID
}

// ClassesLeft returns the number of classes still available (-1 when unlimited).
func (e Enrollment) ClassesLeft() int {
	if e.TotalClasses <= 0 {
		return -1
	}
	if left := e.TotalClasses - e.ClassesTaken; left > 0 {
		return left
	}
	return 0
}

type Volunteer struct {
	ID          string    `json:"id"`
	AcademyID   string    `json:"academy_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Role        string    `json:"role"`
	CheckedInAt null.Time `json:"checked_in_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (v Volunteer) GetID() string       { return v.ID }
func (v Volunteer) DisplayName() string { return v.Name }
func (v Volunteer) DisplayFields() dialog.Display {
	return dialog.Display{Name: optionalString(v.Name), Description: optionalString(v.Role)}
}
