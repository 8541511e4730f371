package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
	"github.com/vanderidme15/vz-academias-sub001/core/form"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/table"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

type (
	navLink struct {
		Path   string
		Title  string
		Active bool
	}

	layout struct {
		AppName string
		Title   string
		User    *user.User
		Nav     []navLink
		Notices []notify.Notice
	}

	loginView struct {
		layout
		Username string
		Error    string
	}

	homeView struct {
		layout
		Counts []navCount
	}

	navCount struct {
		navLink
		Count int
	}

	dialogView struct {
		Open     bool
		Title    string
		Edit     bool
		Controls []form.Control
	}

	deleteView struct {
		Open        bool
		Description string
	}

	pageView struct {
		layout
		Slug     string
		Singular string
		Headers  []string
		Rows     []table.Row
		Actions  []table.RowAction
		Dialog   dialogView
		Delete   deleteView
	}

	checkInView struct {
		layout
		Kind     checkin.Kind
		State    checkin.State
		Camera   bool
		Matched  string
		Scanning bool
	}
)

func (l *layout) setAppName(name string) { l.AppName = name }

var navigation = []navLink{
	{Path: "/", Title: "Inicio"},
	{Path: "/teachers", Title: "Profesores"},
	{Path: "/schedules", Title: "Horarios"},
	{Path: "/periods", Title: "Periodos"},
	{Path: "/students", Title: "Alumnos"},
	{Path: "/courses", Title: "Cursos"},
	{Path: "/enrollments", Title: "Matrículas"},
	{Path: "/volunteers", Title: "Voluntarios"},
	{Path: "/checkin/enrollment", Title: "Asistencia"},
	{Path: "/checkin/volunteer", Title: "Ingreso de voluntarios"},
}

// layout returns the layout of a signed in page, draining the session's pending notices.
func (s *Server) layout(ctx echo.Context, title, active string) layout {
	l := layout{Title: title, Nav: make([]navLink, 0, len(navigation))}
	for _, link := range navigation {
		link.Active = link.Path == active
		l.Nav = append(l.Nav, link)
	}
	if sess, err := contextSession(ctx); err == nil {
		usr := sess.User
		l.User = &usr
		l.Notices = s.Inbox.Drain(sess.ID)
	}
	return l
}
