package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Staff (front desk, check-in)
	RoleStaff = "staff:"
)

var (
	AdminRoles = []string{RoleAdmin, RoleAdminOwner}
	StaffRoles = []string{RoleStaff}
	AllRoles   = getAllRoles()

	rolePriorities = map[string]int{
		RoleAdminOwner: 30,
		RoleAdmin:      21,
		RoleStaff:      11,
	}

	Roles = []Role{
		{Name: "Personal", Value: RoleStaff},
		{Name: "Administrador", Value: RoleAdmin},
		{Name: "Propietario", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 3)
	all = append(all, AdminRoles...)
	all = append(all, StaffRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	AcademyID    string    `json:"academy_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsStaff() bool {
	return u.RoleStartsWith(RoleStaff)
}

// DisplayName is used as the actor of audit logs.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	AcademyID       string   `json:"academy_id" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// GetFilter looks a user up by ID or by username-or-email.
type GetFilter struct {
	ID              string
	UsernameOrEmail string
}

type userCtxKey struct{}

// NewContext returns a copy of ctx carrying the authenticated user.
func NewContext(ctx context.Context, usr User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, usr)
}

// FromContext returns the authenticated user carried by ctx, if any.
func FromContext(ctx context.Context) (User, bool) {
	usr, ok := ctx.Value(userCtxKey{}).(User)
	return usr, ok
}
