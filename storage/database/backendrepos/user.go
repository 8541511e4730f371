// Package backendrepos implements domain repositories on top of a backend.Client.
package backendrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

const userTable = "users"

// UserTable is the schema of the users table.
var UserTable = backend.TableSchema{
	Name: userTable,
	Columns: []backend.Column{
		{Name: "academy_id", Type: backend.TypeText},
		{Name: "name", Type: backend.TypeText},
		{Name: "username", Type: backend.TypeText},
		{Name: "email", Type: backend.TypeText},
		{Name: "is_active", Type: backend.TypeBool},
		{Name: "roles", Type: backend.TypeJSON},
		{Name: "password_hash", Type: backend.TypeText},
		{Name: "last_login", Type: backend.TypeTime},
	},
	Required: []string{"academy_id", "name", "password_hash"},
}

type userRepository struct {
	db backend.Client
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db backend.Client) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	user.User
	PasswordHash string     `json:"password_hash"`
	LastLogin    *time.Time `json:"last_login"`
}

func toRow(usr user.User) backend.Row {
	row := backend.Row{
		"academy_id":    usr.AcademyID,
		"name":          usr.Name,
		"username":      usr.Username,
		"email":         usr.Email,
		"is_active":     usr.IsActive,
		"roles":         usr.Roles,
		"password_hash": string(usr.PasswordHash),
		"last_login":    nil,
	}
	if !usr.LastLogin.IsZero() {
		row["last_login"] = usr.LastLogin.UTC()
	}
	return row
}

func fromRow(row backend.Row) (user.User, error) {
	b, err := json.Marshal(row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "marshalling user row")
	}
	var ur userRow
	if err := json.Unmarshal(b, &ur); err != nil {
		return user.User{}, errors.Wrap(err, "unmarshalling user row")
	}
	usr := ur.User
	usr.PasswordHash = []byte(ur.PasswordHash)
	if ur.LastLogin != nil {
		usr.LastLogin = *ur.LastLogin
	}
	return usr, nil
}

func (repo *userRepository) selectBy(ctx context.Context, column, value string) ([]user.User, error) {
	rows, err := repo.db.SelectAll(ctx, userTable, backend.SelectOptions{Filters: map[string]interface{}{column: value}})
	if err != nil {
		return nil, errors.Wrap(err, "selecting users by "+column)
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		usr, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	if username != "" {
		users, err := repo.selectBy(ctx, "username", username)
		if err != nil {
			return err
		}
		for _, usr := range users {
			if !isExcluded(usr, excludedUsers) {
				return user.ErrUsernameExists
			}
		}
	}
	if email != "" {
		users, err := repo.selectBy(ctx, "email", email)
		if err != nil {
			return err
		}
		for _, usr := range users {
			if !isExcluded(usr, excludedUsers) {
				return user.ErrEmailExists
			}
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := repo.db.Insert(ctx, userTable, toRow(usr), backend.SelectOptions{})
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return fromRow(row)
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	if filter.ID != "" {
		row, err := repo.db.SelectByID(ctx, userTable, filter.ID, backend.SelectOptions{})
		if err != nil {
			if backend.IsNotFound(err) {
				return user.User{}, user.ErrNotFound
			}
			return user.User{}, errors.Wrap(err, "selecting user by id")
		}
		return fromRow(row)
	}

	if filter.UsernameOrEmail == "" {
		return user.User{}, user.ErrNotFound
	}
	for _, column := range []string{"username", "email"} {
		users, err := repo.selectBy(ctx, column, filter.UsernameOrEmail)
		if err != nil {
			return user.User{}, err
		}
		if len(users) > 0 {
			return users[0], nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row, err := repo.db.Update(ctx, userTable, usr.ID, toRow(usr), backend.SelectOptions{})
	if err != nil {
		if backend.IsNotFound(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return fromRow(row)
}
