package academy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

// MsgNoClassesLeft is shown when an enrollment has used all its classes.
const MsgNoClassesLeft = "La matrícula ya completó todas sus clases"

var (
	NowFunc = time.Now // mockable

	ErrNoClassesLeft = errors.New("enrollment has no classes left")
	ErrNotSaved      = errors.New("check-in was not saved")
)

// Receipts is notified once an attendance has been recorded.
type Receipts interface {
	AttendanceRecorded(ctx context.Context, e Enrollment)
}

// CheckInConfig returns the lookup & mutation of a check-in kind.
func (a *Academy) CheckInConfig(kind checkin.Kind) (checkin.Config, error) {
	switch kind {
	case checkin.KindEnrollment:
		return checkin.Config{Kind: kind, Lookup: a.lookupEnrollment, CheckIn: a.checkInEnrollment}, nil
	case checkin.KindVolunteer:
		return checkin.Config{Kind: kind, Lookup: a.lookupVolunteer, CheckIn: a.checkInVolunteer}, nil
	}
	return checkin.Config{}, checkin.ErrUnknownKind
}

// QR codes carry the record id; anything that is not an id cannot match.
func validCode(code string) bool {
	_, err := uuid.Parse(code)
	return err == nil
}

func (a *Academy) lookupEnrollment(ctx context.Context, code string) checkin.Subject {
	if !validCode(code) {
		return nil
	}
	if e := a.Enrollments.FetchByID(ctx, code); e != nil {
		return *e
	}
	return nil
}

func (a *Academy) lookupVolunteer(ctx context.Context, code string) checkin.Subject {
	if !validCode(code) {
		return nil
	}
	if v := a.Volunteers.FetchByID(ctx, code); v != nil {
		return *v
	}
	return nil
}

// checkInEnrollment appends an attendance and counts the class taken.
func (a *Academy) checkInEnrollment(ctx context.Context, id string) error {
	e := a.Enrollments.FetchByID(ctx, id)
	if e == nil {
		return ErrNotSaved
	}
	if e.ClassesLeft() == 0 {
		a.notifier.Error(ctx, MsgNoClassesLeft)
		return ErrNoClassesLeft
	}

	by := "system"
	if usr, ok := user.FromContext(ctx); ok {
		by = usr.DisplayName()
	}
	attendance := append(append([]Attendance{}, e.Attendance...), Attendance{At: NowFunc().UTC(), By: by})

	updated := a.Enrollments.Update(ctx, map[string]interface{}{
		"attendance":    attendance,
		"classes_taken": e.ClassesTaken + 1,
	}, id)
	if updated == nil {
		return ErrNotSaved
	}
	if a.receipts != nil {
		a.receipts.AttendanceRecorded(ctx, *updated)
	}
	return nil
}

func (a *Academy) checkInVolunteer(ctx context.Context, id string) error {
	if v := a.Volunteers.Update(ctx, map[string]interface{}{"checked_in_at": NowFunc().UTC()}, id); v == nil {
		return ErrNotSaved
	}
	return nil
}
