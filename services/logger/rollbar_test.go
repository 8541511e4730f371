package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: true})
	defer logger.Close()

	usr := user.User{ID: "u1", Username: "ana", AcademyID: "acad"}
	logger.Error("saving enrollment", errors.New("connection refused"), usr)
	logger.Debug("scan started")

	out := buf.String()
	assert.Contains(t, out, "ERROR: saving enrollment")
	assert.Contains(t, out, "connection refused")
	assert.NotContains(t, out, "ana", "users are reported, not printed")
	assert.Contains(t, out, "DEBUG: scan started")
}

func TestRollbarLogger_Prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), &core.Config{Debug: true})
	defer logger.Close()

	tests := []struct {
		name       string
		args       []interface{}
		wantErr    error
		wantExtras map[string]interface{}
		wantPerson string
	}{
		{
			name:       "error, users and extras",
			args:       []interface{}{errBoom, user.User{ID: "u1", AcademyID: "acad"}, map[string]interface{}{"kind": "enrollment"}, &user.User{ID: "u2"}},
			wantErr:    errBoom,
			wantExtras: map[string]interface{}{"kind": "enrollment", "message": "msg"},
			wantPerson: "u1",
		},
		{
			name:       "message only",
			args:       nil,
			wantExtras: map[string]interface{}{},
		},
		{
			name:       "second error and loose values",
			args:       []interface{}{errBoom, errors.New("late"), 42, nil},
			wantErr:    errBoom,
			wantExtras: map[string]interface{}{"message": "msg", "args": []interface{}{"late", 42}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rep := logger.prepare("msg", tc.args)
			assert.Equal(t, tc.wantErr, rep.err)
			assert.Equal(t, tc.wantExtras, rep.extras)
			if tc.wantPerson != "" {
				assert.Equal(t, map[string]interface{}{"academy_id": "acad"}, logger.client.Custom())
			} else {
				assert.Empty(t, logger.client.Custom())
			}
		})
	}
}

var errBoom = errors.New("boom")

func TestRollbarLogger_ReportsAllLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: true})
	defer logger.Close()

	usr := &user.User{ID: "u1", AcademyID: "acad"}
	logger.Info("academy created", usr)
	logger.Warn("retrying", map[string]interface{}{"attempt": 2})
	logger.Error("saving", errBoom)

	out := buf.String()
	assert.Contains(t, out, "INFO: academy created")
	assert.Contains(t, out, "WARN: retrying")
	assert.Contains(t, out, "ERROR: saving")
}
