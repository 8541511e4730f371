package form_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
	"github.com/vanderidme15/vz-academias-sub001/core/form"
)

type student struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	IsMinor      bool    `json:"is_minor"`
	GuardianName string  `json:"guardian_name"`
	Height       float64 `json:"height"`
}

func (s student) GetID() string                 { return s.ID }
func (s student) DisplayFields() dialog.Display { return dialog.Display{Name: null.StringFrom(s.Name)} }

var (
	schema = form.Schema{
		"name":          "notblank",
		"email":         "omitempty,email",
		"is_minor":      "",
		"guardian_name": "notblank",
		"level":         "",
		"notes":         "max=10",
		"height":        "gt=0,lte=3",
	}
	fields = []form.FieldConfig{
		{Name: "name", Label: "Nombre", Type: form.Text, Required: true},
		{Name: "email", Label: "Correo", Type: form.Email},
		{Name: "is_minor", Label: "Menor de edad", Type: form.Checkbox},
		{Name: "guardian_name", Label: "Apoderado", Type: form.Text, Required: true,
			DependsOn: &form.Condition{Field: "is_minor", Value: true}},
		{Name: "level", Label: "Nivel", Type: form.Select, Options: []form.Option{{Value: "a"}, {Value: "x"}},
			DisabledWhen: &form.Condition{Field: "email"}},
		{Name: "notes", Label: "Notas", Type: form.Textarea, DependsOn: &form.Condition{Field: "guardian_name"}},
		{Name: "height", Label: "Talla", Type: form.Height},
	}
)

func newForm(t *testing.T) *form.Form {
	t.Helper()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	f, err := form.New(schema, fields, validate, translator)
	require.NoError(t, err)
	return f
}

func TestNew_FieldNotInSchema(t *testing.T) {
	_, err := form.New(form.Schema{}, []form.FieldConfig{{Name: "name"}}, validator.New(), nil)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		fields      []form.FieldConfig
		values      form.Values
		wantVisible []string
		wantHidden  []string
		wantEnabled []string
		wantDisable []string
	}{
		{
			name: "equals",
			fields: []form.FieldConfig{
				{Name: "a"}, {Name: "b", DependsOn: &form.Condition{Field: "a", Value: "x"}},
			},
			values:      form.Values{"a": "x"},
			wantVisible: []string{"a", "b"},
		},
		{
			name: "not equal",
			fields: []form.FieldConfig{
				{Name: "a"}, {Name: "b", DependsOn: &form.Condition{Field: "a", Value: "x"}},
			},
			values:      form.Values{"a": "y"},
			wantVisible: []string{"a"},
			wantHidden:  []string{"b"},
		},
		{
			name: "has",
			fields: []form.FieldConfig{
				{Name: "days", Type: form.MultiSelect}, {Name: "b", DependsOn: &form.Condition{Field: "days", Value: "lunes"}},
			},
			values:      form.Values{"days": []string{"martes", "lunes"}},
			wantVisible: []string{"days", "b"},
		},
		{
			name: "any value",
			fields: []form.FieldConfig{
				{Name: "a"}, {Name: "b", DependsOn: &form.Condition{Field: "a"}},
			},
			values:     form.Values{"a": ""},
			wantHidden: []string{"b"},
		},
		{
			name: "chained dependency",
			fields: []form.FieldConfig{
				{Name: "c", DependsOn: &form.Condition{Field: "b"}},
				{Name: "a"},
				{Name: "b", DependsOn: &form.Condition{Field: "a", Value: "x"}},
			},
			values:     form.Values{"a": "y", "b": "stale"},
			wantHidden: []string{"b", "c"},
		},
		{
			name: "disabled when",
			fields: []form.FieldConfig{
				{Name: "a"}, {Name: "b", DisabledWhen: &form.Condition{Field: "a", Value: 1}},
			},
			values:      form.Values{"a": 1},
			wantVisible: []string{"a", "b"},
			wantEnabled: []string{"a"},
			wantDisable: []string{"b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.values.Copy()
			state := form.Evaluate(tt.fields, tt.values)
			for _, name := range tt.wantVisible {
				assert.True(t, state.IsVisible(name), name)
			}
			for _, name := range tt.wantHidden {
				assert.False(t, state.IsVisible(name), name)
				assert.False(t, state.IsEnabled(name), name)
			}
			for _, name := range tt.wantEnabled {
				assert.True(t, state.IsEnabled(name), name)
			}
			for _, name := range tt.wantDisable {
				assert.False(t, state.IsEnabled(name), name)
			}
			assert.Equal(t, before, tt.values, "Evaluate must not modify values")
		})
	}
}

func TestForm_Render(t *testing.T) {
	f := newForm(t)

	controls := f.Render(form.Values{"name": "Ana", "email": "ana@academia.pe"}, map[string]string{"name": "oops"})
	names := make([]string, 0, len(controls))
	for _, c := range controls {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"name", "email", "is_minor", "level", "height"}, names)
	assert.Equal(t, "oops", controls[0].Error)
	assert.Equal(t, "Ana", controls[0].Value)
	assert.True(t, controls[3].Disabled, "level is disabled while an email is set")

	controls = f.Render(form.Values{"is_minor": true, "guardian_name": "Rosa"}, nil)
	assert.Len(t, controls, 7)
}

func TestForm_ValidatePurgesHiddenFields(t *testing.T) {
	f := newForm(t)

	payload, errs := f.Validate(form.Values{
		"name":          "Luis",
		"is_minor":      false,
		"guardian_name": "stale guardian",
		"notes":         "stale",
		"unknown":       "dropped",
	})
	assert.Nil(t, errs)
	assert.Equal(t, "Luis", payload["name"])
	assert.NotContains(t, payload, "guardian_name")
	assert.NotContains(t, payload, "notes")
	assert.NotContains(t, payload, "unknown")
	assert.Contains(t, payload, "is_minor")
}

func TestForm_ValidateKeepsDisabledValues(t *testing.T) {
	f := newForm(t)

	payload, errs := f.Validate(form.Values{"name": "Luis", "email": "luis@academia.pe", "level": "a"})
	assert.Nil(t, errs)
	assert.Equal(t, "a", payload["level"])
}

func TestForm_ValidateMessages(t *testing.T) {
	f := newForm(t)

	tests := []struct {
		name   string
		values form.Values
		want   map[string]string
	}{
		{
			name:   "required",
			values: form.Values{"name": "  "},
			want:   map[string]string{"name": "este campo no puede estar vacío"},
		},
		{
			name:   "missing",
			values: form.Values{},
			want:   map[string]string{"name": "este campo es obligatorio"},
		},
		{
			name:   "visible dependent required",
			values: form.Values{"name": "Ana", "is_minor": true},
			want:   map[string]string{"guardian_name": "este campo es obligatorio"},
		},
		{
			name:   "email",
			values: form.Values{"name": "Ana", "email": "not-an-email"},
			want:   map[string]string{"email": "debe ser un correo electrónico válido"},
		},
		{
			name:   "max",
			values: form.Values{"name": "Ana", "is_minor": true, "guardian_name": "Rosa", "notes": "demasiado largo"},
			want:   map[string]string{"notes": "debe tener como máximo 10"},
		},
		{
			name:   "optional empty is not validated",
			values: form.Values{"name": "Ana", "email": "", "height": nil},
		},
		{
			name:   "not a number",
			values: form.Values{"name": "Ana", "height": "alto"},
			want:   map[string]string{"height": form.MsgNotANumber},
		},
		{
			name:   "number",
			values: form.Values{"name": "Ana", "height": 4.2},
			want:   map[string]string{"height": "debe ser menor o igual a 3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := f.Validate(tt.values)
			if tt.want == nil {
				assert.Nil(t, errs)
				return
			}
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestForm_Change(t *testing.T) {
	var seen interface{}
	fields := []form.FieldConfig{
		{Name: "course_id", Type: form.Select, OnChange: func(v interface{}, values form.Values) {
			seen = v
			values["total_classes"] = 12
		}},
		{Name: "total_classes", Type: form.Integer},
	}
	f, err := form.New(form.Schema{"course_id": "required", "total_classes": ""}, fields, validator.New(), nil)
	require.NoError(t, err)

	values := form.Values{"course_id": ""}
	changed := f.Change(values, "course_id", "c1")
	assert.Equal(t, "c1", seen)
	assert.Equal(t, 12, changed["total_classes"])
	assert.Equal(t, "", values["course_id"], "input values are not modified")
}

func TestForm_Initial(t *testing.T) {
	f := newForm(t)

	values := f.Initial(nil)
	assert.Equal(t, false, values["is_minor"])
	assert.Nil(t, values["name"])

	values = f.Initial(student{ID: "s1", Name: "Ana", IsMinor: true, GuardianName: "Rosa", Height: 1.6})
	assert.Equal(t, "Ana", values["name"])
	assert.Equal(t, true, values["is_minor"])
	assert.Equal(t, "Rosa", values["guardian_name"])
	assert.Equal(t, 1.6, values["height"])
	assert.NotContains(t, values, "id")
}

func TestForm_Coerce(t *testing.T) {
	f := form.Must(form.New(
		form.Schema{"days": "", "classes": "", "name": ""},
		[]form.FieldConfig{
			{Name: "days", Type: form.MultiSelect},
			{Name: "classes", Type: form.Integer},
			{Name: "name", Type: form.Text},
		},
		validator.New(), nil,
	))

	values := f.Coerce(map[string]interface{}{
		"days":    []interface{}{"lunes", "martes"},
		"classes": 8.0,
		"name":    "Salsa",
		"id":      "x",
	})
	assert.Equal(t, form.Values{"days": []string{"lunes", "martes"}, "classes": 8, "name": "Salsa"}, values)
}

func TestParse(t *testing.T) {
	fields := []form.FieldConfig{
		{Name: "name", Type: form.Text},
		{Name: "capacity", Type: form.Integer},
		{Name: "price", Type: form.Price},
		{Name: "bad", Type: form.Integer},
		{Name: "active", Type: form.Checkbox},
		{Name: "off", Type: form.Checkbox},
		{Name: "days", Type: form.MultiSelect},
		{Name: "dates", Type: form.DateRange},
		{Name: "color", Type: form.Color},
		{Name: "missing", Type: form.Date},
	}
	data := url.Values{
		"name":       {"  Ana  "},
		"capacity":   {"20"},
		"price":      {"150,50"},
		"bad":        {"veinte"},
		"active":     {"on"},
		"days":       {"lunes", "", "miércoles"},
		"dates_from": {"2024-03-01"},
		"dates_to":   {"2024-07-31"},
		"color":      {""},
	}

	values := form.Parse(fields, data)
	assert.Equal(t, "Ana", values["name"])
	assert.Equal(t, 20, values["capacity"])
	assert.Equal(t, 150.5, values["price"])
	assert.Equal(t, "veinte", values["bad"])
	assert.Equal(t, true, values["active"])
	assert.Equal(t, false, values["off"])
	assert.Equal(t, []string{"lunes", "miércoles"}, values["days"])
	assert.Equal(t, []string{"2024-03-01", "2024-07-31"}, values["dates"])
	assert.Nil(t, values["color"])
	assert.NotContains(t, values, "missing")
}

type submitterMock struct {
	created []map[string]interface{}
	updated []string
	fail    bool
}

func (s *submitterMock) Create(_ context.Context, values map[string]interface{}) *student {
	s.created = append(s.created, values)
	if s.fail {
		return nil
	}
	return &student{ID: "new", Name: values["name"].(string)}
}

func (s *submitterMock) Update(_ context.Context, values map[string]interface{}, id string) *student {
	s.updated = append(s.updated, id)
	if s.fail {
		return nil
	}
	return &student{ID: id, Name: values["name"].(string)}
}

func TestSubmit(t *testing.T) {
	f := newForm(t)
	ctx := context.Background()

	t.Run("no selected item creates", func(t *testing.T) {
		var h dialog.Handlers[student]
		h.OpenEdit(student{ID: "s1"})
		h.SetSelectedItem(nil)
		s := new(submitterMock)

		saved, errs := form.Submit[student](ctx, f, form.Values{"name": "Ana"}, &h, s)
		assert.Nil(t, errs)
		require.NotNil(t, saved)
		assert.Len(t, s.created, 1)
		assert.Empty(t, s.updated, "the edit handler must never be called")
		assert.False(t, h.OpenDialog)
	})

	t.Run("selected item updates", func(t *testing.T) {
		var h dialog.Handlers[student]
		h.OpenEdit(student{ID: "s1", Name: "Ana"})
		s := new(submitterMock)

		saved, errs := form.Submit[student](ctx, f, form.Values{"name": "Ana María"}, &h, s)
		assert.Nil(t, errs)
		require.NotNil(t, saved)
		assert.Empty(t, s.created)
		assert.Equal(t, []string{"s1"}, s.updated)
		assert.False(t, h.OpenDialog)
		assert.Nil(t, h.SelectedItem)
	})

	t.Run("invalid values are not submitted", func(t *testing.T) {
		var h dialog.Handlers[student]
		h.OpenCreate()
		s := new(submitterMock)

		saved, errs := form.Submit[student](ctx, f, form.Values{"name": ""}, &h, s)
		assert.Nil(t, saved)
		assert.Contains(t, errs, "name")
		assert.Empty(t, s.created)
		assert.True(t, h.OpenDialog)
	})

	t.Run("unparsable number is not submitted", func(t *testing.T) {
		var h dialog.Handlers[student]
		h.OpenCreate()
		s := new(submitterMock)

		values := form.Parse(f.Fields(), url.Values{"name": {"Ana"}, "height": {"uno sesenta"}})
		saved, errs := form.Submit[student](ctx, f, values, &h, s)
		assert.Nil(t, saved)
		assert.Equal(t, map[string]string{"height": form.MsgNotANumber}, errs)
		assert.Empty(t, s.created)
		assert.True(t, h.OpenDialog)
	})

	t.Run("backend failure keeps the dialog open", func(t *testing.T) {
		var h dialog.Handlers[student]
		h.OpenCreate()
		s := &submitterMock{fail: true}

		saved, errs := form.Submit[student](ctx, f, form.Values{"name": "Ana"}, &h, s)
		assert.Nil(t, saved)
		assert.Nil(t, errs)
		assert.True(t, h.OpenDialog)
	})

	t.Run("hidden dependent field is not in the payload", func(t *testing.T) {
		var h dialog.Handlers[student]
		h.OpenCreate()
		s := new(submitterMock)

		_, errs := form.Submit[student](ctx, f, form.Values{"name": "Ana", "is_minor": false, "guardian_name": "Rosa"}, &h, s)
		assert.Nil(t, errs)
		require.Len(t, s.created, 1)
		assert.NotContains(t, s.created[0], "guardian_name")
	})
}
