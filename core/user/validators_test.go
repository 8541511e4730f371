package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/backendrepos"
	"github.com/vanderidme15/vz-academias-sub001/tests"
)

func TestPasswordPolicyViolation(t *testing.T) {
	tests := []struct {
		name string
		pwd  string
		want string
	}{
		{name: "too short", pwd: "Ab1#", want: "pwdminlen"},
		{name: "with space", pwd: "Abc 123#x", want: "pwdnospace"},
		{name: "all numeric", pwd: "12345678", want: "pwdnotallnum"},
		{name: "not complex", pwd: "abcdefgh1", want: "pwdcplx"},
		{name: "like the email", pwd: "Rosa@test.pe1", want: "pwdtoosim"},
		{name: "valid", pwd: "Xk9#mPq2vL!z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := user.PasswordPolicyViolation(tt.pwd, "Rosa Díaz", "rosa", "rosa@test.pe")
			assert.Equal(t, tt.want, got)
			if tt.want != "" {
				assert.NotEmpty(t, user.PasswordPolicyText(got))
			}
		})
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	repo := backendrepos.NewUserRepository(testutil.NewUserDB())
	svc := user.NewService(repo)
	rosa := testutil.CreateUser(t, repo, "acad", "Rosa", "rosa", "rosa@test.pe", "Xk9#mPq2vL!z", user.StaffRoles)
	ctx := context.Background()

	tests := []struct {
		name      string
		uname     string
		email     string
		excl      []user.User
		wantField string
	}{
		{name: "free", uname: "luis", email: "luis@test.pe"},
		{name: "username taken", uname: "rosa", email: "otra@test.pe", wantField: "username"},
		{name: "email taken", uname: "otra", email: "rosa@test.pe", wantField: "email"},
		{name: "own record", uname: "rosa", email: "rosa@test.pe", excl: []user.User{rosa}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckUniqueness(ctx, tt.uname, tt.email, tt.excl...)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.FieldMap(), tt.wantField)
		})
	}
}

func TestService_ResetPassword(t *testing.T) {
	repo := backendrepos.NewUserRepository(testutil.NewUserDB())
	svc := user.NewService(repo)
	usr := testutil.CreateUser(t, repo, "acad", "Rosa", "rosa", "rosa@test.pe", "Xk9#mPq2vL!z", user.StaffRoles)
	ctx := context.Background()

	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, "nadie", "Nueva#Clave9"))

	var verr *core.ValidationError
	require.ErrorAs(t, svc.ResetPassword(ctx, "rosa", "corta"), &verr)
	assert.Contains(t, verr.FieldMap(), "password")

	require.NoError(t, svc.ResetPassword(ctx, "ROSA@test.pe", "Nueva#Clave9"))
	got, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("Nueva#Clave9"))
}
