package sqlxdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/storage/database"
)

var courses = backend.TableSchema{
	Name: "courses",
	Columns: []backend.Column{
		{Name: "academy_id", Type: backend.TypeText},
		{Name: "name", Type: backend.TypeText},
		{Name: "price", Type: backend.TypeNumber},
		{Name: "teacher_id", Type: backend.TypeText},
		{Name: "dates", Type: backend.TypeJSON},
	},
	Relations: []backend.Relation{{Name: "teacher", Column: "teacher_id", Table: "teachers"}},
}

func TestNormalize(t *testing.T) {
	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.FixedZone("PET", -5*3600))
	row, err := normalize(courses, map[string]interface{}{
		"id":         []byte("2f1c"),
		"name":       []byte("Marinera"),
		"price":      []byte("150.50"),
		"dates":      []byte(`["2026-03-01","2026-06-30"]`),
		"teacher_id": nil,
		"created_at": at,
		"extra":      []byte("x"),
	})
	require.NoError(t, err)

	assert.Equal(t, "2f1c", row["id"])
	assert.Equal(t, "Marinera", row["name"])
	assert.Equal(t, 150.5, row["price"])
	assert.Equal(t, []interface{}{"2026-03-01", "2026-06-30"}, row["dates"])
	assert.Nil(t, row["teacher_id"])
	assert.Equal(t, at.UTC(), row["created_at"])
	assert.Equal(t, "x", row["extra"])

	_, err = normalize(courses, map[string]interface{}{"dates": []byte("{")})
	assert.Error(t, err)
}

func TestParam(t *testing.T) {
	assert.Equal(t, `["a","b"]`, param(courses, "dates", []string{"a", "b"}))
	assert.Nil(t, param(courses, "teacher_id", ""))
	assert.Equal(t, "", param(courses, "name", ""))
	assert.Equal(t, 8.0, param(courses, "price", 8.0))
	assert.Nil(t, param(courses, "dates", nil))
}

func TestWhere(t *testing.T) {
	cond, args, err := where(courses, map[string]interface{}{"name": "Salsa", "academy_id": "a1"}, 3)
	require.NoError(t, err)
	assert.Equal(t, `"academy_id" = $3 AND "name" = $4`, cond)
	assert.Equal(t, []interface{}{"a1", "Salsa"}, args)

	cond, args, err = where(courses, nil, 1)
	require.NoError(t, err)
	assert.Empty(t, cond)
	assert.Empty(t, args)

	_, _, err = where(courses, map[string]interface{}{"1=1; --": "x"}, 1)
	assert.Error(t, err)
}

func TestOrderBy(t *testing.T) {
	order, err := orderBy(courses, nil)
	require.NoError(t, err)
	assert.Equal(t, `"created_at" DESC, id`, order)

	order, err = orderBy(courses, []core.DBOrdering{{Field: "name", Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, `"name" ASC, id`, order)

	_, err = orderBy(courses, []core.DBOrdering{{Field: "nope"}})
	assert.Error(t, err)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"fk violation", &pq.Error{Code: "23503", Message: "violates foreign key"}, backend.CodeValidation},
		{"not null", &pq.Error{Code: "23502", Message: "null value"}, backend.CodeValidation},
		{"bad number", errors.Wrap(&pq.Error{Code: "22P02", Message: "invalid input"}, "query"), backend.CodeValidation},
		{"connection", &pq.Error{Code: "08006", Message: "connection failure"}, backend.CodeUnknown},
		{"other", errors.New("boom"), backend.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, backend.Code(mapError(tt.err, "querying")))
		})
	}
}

// TestDB runs against a migrated postgres database (TEST_DATABASE_URL).
func TestDB(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	conn, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, database.Migrate(conn.DB, "up"))

	schema := backend.NewSchema(
		backend.TableSchema{Name: "teachers", Columns: []backend.Column{
			{Name: "academy_id", Type: backend.TypeText},
			{Name: "name", Type: backend.TypeText},
		}},
		backend.TableSchema{Name: "courses", Columns: []backend.Column{
			{Name: "academy_id", Type: backend.TypeText},
			{Name: "name", Type: backend.TypeText},
			{Name: "price", Type: backend.TypeNumber},
			{Name: "teacher_id", Type: backend.TypeText},
		}, Relations: courses.Relations},
	)
	db := New(conn, schema)
	ctx := context.Background()
	academy := "test-" + uuid.NewString()

	teacher, err := db.Insert(ctx, "teachers", backend.Row{"academy_id": academy, "name": "Rosa"}, backend.SelectOptions{})
	require.NoError(t, err)
	course, err := db.Insert(ctx, "courses", backend.Row{
		"academy_id": academy, "name": "Marinera", "price": 120.0, "teacher_id": teacher.String("id"),
	}, backend.Opts("teacher"))
	require.NoError(t, err)
	assert.Equal(t, 120.0, course["price"])
	assert.Equal(t, "Rosa", course["teacher"].(backend.Row).String("name"))

	course, err = db.Update(ctx, "courses", course.String("id"), backend.Row{"price": 90.0}, backend.SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 90.0, course["price"])
	assert.Equal(t, "Marinera", course["name"])

	rows, err := db.SelectAll(ctx, "courses", backend.SelectOptions{Filters: map[string]interface{}{"academy_id": academy}})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// referenced teacher cannot go
	err = db.Delete(ctx, "teachers", teacher.String("id"))
	assert.True(t, backend.IsValidation(err))

	require.NoError(t, db.Delete(ctx, "courses", course.String("id")))
	require.NoError(t, db.Delete(ctx, "teachers", teacher.String("id")))
	assert.True(t, backend.IsNotFound(db.Delete(ctx, "teachers", teacher.String("id"))))

	_, err = db.SelectByID(ctx, "courses", "not-a-uuid", backend.SelectOptions{})
	assert.True(t, backend.IsNotFound(err))
}
