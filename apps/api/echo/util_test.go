package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/vanderidme15/vz-academias-sub001/apps/api/echo"
	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/academy"
	"github.com/vanderidme15/vz-academias-sub001/core/audit"
	"github.com/vanderidme15/vz-academias-sub001/core/auth"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/session"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
	"github.com/vanderidme15/vz-academias-sub001/services/email"
	"github.com/vanderidme15/vz-academias-sub001/services/qrscan"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/backendrepos"
	inmemdb "github.com/vanderidme15/vz-academias-sub001/storage/database/inmem"
	"github.com/vanderidme15/vz-academias-sub001/tests"
)

const (
	academyA = "0b8e3c1a-9d4f-4e62-8a7b-5c1d2e3f4a01"
	academyB = "0b8e3c1a-9d4f-4e62-8a7b-5c1d2e3f4a02"
	password = "Clave#Segura42"
)

type testApp struct {
	srv     *echoapi.Server
	usrRepo user.Repository
	admin   user.User
	staff   user.User
	other   user.User
}

func setup(t *testing.T) *testApp {
	t.Helper()
	conf := &core.Config{
		AppName:   "Academias",
		Env:       "test",
		Build:     "test",
		TestMode:  true,
		Debug:     true,
		SecretKey: "secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
	logger := testutil.NewLogger(t)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	db := inmemdb.Open(academy.Schema.Merge(backend.NewSchema(backendrepos.UserTable, audit.Table)))
	usrRepo := backendrepos.NewUserRepository(db)
	sessions := session.NewMemory(time.Hour)
	authSvc := auth.NewService(conf, user.NewService(usrRepo), sessions)
	gate := auth.NewGate(authSvc, logger)
	t.Cleanup(gate.Close)

	inbox := notify.NewInbox(logger)
	recorder := audit.NewRecorder(db, logger)
	receipts := academy.NewMailer(emailsvc.NewConsoleServiceMock(conf, logger), qrscan.Badge, logger)

	srv, err := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Auth:       authSvc,
		Gate:       gate,
		Sessions:   sessions,
		Inbox:      inbox,
		Academies:  academy.NewRegistry(db, inbox, recorder, validate, translator, receipts),
		CheckIns: checkin.NewManager(inbox, func() checkin.Camera {
			return qrscan.NewFrameCamera()
		}),
		Audit:          recorder,
		DisableReqLogs: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{
		srv:     srv,
		usrRepo: usrRepo,
		admin:   testutil.CreateUser(t, usrRepo, academyA, "Rosa Díaz", "rosa", "rosa@test.pe", password, user.AllRoles),
		staff:   testutil.CreateUser(t, usrRepo, academyA, "Pedro Ruiz", "pedro", "pedro@test.pe", password, user.StaffRoles),
		other:   testutil.CreateUser(t, usrRepo, academyB, "Lucía Soto", "lucia", "lucia@test.pe", password, user.AllRoles),
	}
}

// do serves a request and returns the response.
func (app *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
		contentType = "application/octet-stream"
	case url.Values:
		r = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, _ := json.Marshal(b)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) login(t *testing.T, usr user.User) string {
	t.Helper()
	rec := app.do(http.MethodPost, "/v1/auth/login", "", echoapi.LoginRequest{Username: usr.Username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
}
