// Package audit keeps a trail of the mutations done on sensitive entities.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

const logTable = "audit_logs"

var Table = backend.TableSchema{
	Name: logTable,
	Columns: []backend.Column{
		{Name: "academy_id", Type: backend.TypeText},
		{Name: "entity", Type: backend.TypeText},
		{Name: "action", Type: backend.TypeText},
		{Name: "record_id", Type: backend.TypeText},
		{Name: "actor", Type: backend.TypeText},
		{Name: "diff", Type: backend.TypeText},
	},
	Required: []string{"entity", "action", "record_id"},
}

type (
	Log struct {
		ID        string    `json:"id"`
		AcademyID string    `json:"academy_id"`
		Entity    string    `json:"entity"`
		Action    string    `json:"action"`
		RecordID  string    `json:"record_id"`
		Actor     string    `json:"actor"`
		Diff      string    `json:"diff"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Recorder writes audit logs through the backend.
	Recorder struct {
		db     backend.Client
		logger core.Logger
	}
)

var _ store.Auditor = (*Recorder)(nil)

func NewRecorder(db backend.Client, logger core.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record stores the diff between `before` and `after` (either may be nil).
// Failures are logged: the audited mutation has already been applied.
func (r *Recorder) Record(ctx context.Context, entity, action, id string, before, after interface{}) {
	diff, err := Diff(before, after)
	if err != nil {
		r.logger.Error(fmt.Sprintf("audit: diffing %s %s: %v", entity, id, err), err)
	}

	values := backend.Row{
		"entity":    entity,
		"action":    action,
		"record_id": id,
		"actor":     "system",
		"diff":      diff,
	}
	if usr, ok := user.FromContext(ctx); ok {
		values["actor"] = usr.DisplayName()
		values["academy_id"] = usr.AcademyID
	}

	if _, err = r.db.Insert(ctx, logTable, values, backend.SelectOptions{}); err != nil {
		r.logger.Error(fmt.Sprintf("audit: recording %s %s: %v", entity, id, err), errors.Wrap(err, "inserting audit log"))
	}
}

// List returns the audit logs of an academy, newest first, optionally restricted to an entity.
func (r *Recorder) List(ctx context.Context, academyID, entity string) ([]Log, error) {
	filters := map[string]interface{}{"academy_id": academyID}
	if entity != "" {
		filters["entity"] = entity
	}
	rows, err := r.db.SelectAll(ctx, logTable, backend.SelectOptions{Filters: filters, Ordering: core.NewestFirst})
	if err != nil {
		return nil, errors.Wrap(err, "selecting audit logs")
	}

	b, err := json.Marshal(rows)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling audit logs")
	}
	logs := make([]Log, 0, len(rows))
	if err := json.Unmarshal(b, &logs); err != nil {
		return nil, errors.Wrap(err, "unmarshalling audit logs")
	}
	return logs, nil
}

// Diff returns the unified diff of the indented JSON representations of `before` and `after`.
func Diff(before, after interface{}) (string, error) {
	a, err := lines(before)
	if err != nil {
		return "", err
	}
	b, err := lines(after)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "antes",
		ToFile:   "después",
		Context:  1,
	})
}

func lines(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(strings.TrimSpace(string(b))), nil
}
