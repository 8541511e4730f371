package user

import (
	"context"
	"errors"
	"time"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

var (
	// errors
	ErrNotFound       = errors.New("usuario no encontrado")
	ErrEmailExists    = errors.New("ya existe un usuario con este correo")
	ErrUsernameExists = errors.New("ya existe un usuario con este nombre de usuario")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, user User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, user User) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		ResetPassword(ctx context.Context, uname, pwd string) error
		AddUser(ctx context.Context, academyID, uname, email, pwd string, isAdmin bool) (User, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		AcademyID: nu.AcademyID,
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ResetPassword sets a new password on the user identified by `uname` (username or email).
func (svc *service) ResetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if tag := PasswordPolicyViolation(pwd, usr.Name, usr.Username, usr.Email); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: PasswordPolicyText(tag)})
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// AddUser updates or creates an active user.
func (svc *service) AddUser(ctx context.Context, academyID, uname, email, pwd string, isAdmin bool) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: lookup})
	exists := err == nil
	if err != nil && err != ErrNotFound {
		return User{}, err
	}
	if !exists {
		now := NowFunc().UTC()
		usr = User{
			AcademyID: academyID,
			Name:      uname,
			Username:  uname,
			Email:     email,
			Roles:     StaffRoles,
			CreatedAt: now,
		}
	}
	if isAdmin {
		usr.Roles = AllRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = NowFunc().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}

	if exists {
		return svc.repo.UpdateUser(ctx, usr)
	}
	if err := svc.CheckUniqueness(ctx, usr.Username, usr.Email); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}
