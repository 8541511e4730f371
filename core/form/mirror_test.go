package form_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core/form"
)

func TestControl_Mirror(t *testing.T) {
	tests := []struct {
		name  string
		field form.FieldConfig
		value interface{}
		want  url.Values
	}{
		{"text", form.FieldConfig{Name: "name", Type: form.Text}, "Ana", url.Values{"name": {"Ana"}}},
		{"select", form.FieldConfig{Name: "level", Type: form.Select}, "a", url.Values{"level": {"a"}}},
		{"integer", form.FieldConfig{Name: "capacity", Type: form.Integer}, 20, url.Values{"capacity": {"20"}}},
		{"price", form.FieldConfig{Name: "price", Type: form.Price}, 150.5, url.Values{"price": {"150.5"}}},
		{"checked", form.FieldConfig{Name: "active", Type: form.Checkbox}, true, url.Values{"active": {"true"}}},
		{"unchecked", form.FieldConfig{Name: "active", Type: form.Checkbox}, false, url.Values{}},
		{"multi-select", form.FieldConfig{Name: "days", Type: form.MultiSelect}, []string{"lunes", "jueves"}, url.Values{"days": {"lunes", "jueves"}}},
		{"date-range", form.FieldConfig{Name: "dates", Type: form.DateRange}, []string{"2024-03-01", "2024-07-31"},
			url.Values{"dates_from": {"2024-03-01"}, "dates_to": {"2024-07-31"}}},
		{"nil", form.FieldConfig{Name: "color", Type: form.Color}, nil, url.Values{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := form.Control{FieldConfig: tt.field, Value: tt.value, Disabled: true}
			posted := c.Mirror()
			assert.Equal(t, tt.want, posted)

			parsed := form.Parse([]form.FieldConfig{tt.field}, posted)
			if tt.value == nil {
				assert.Nil(t, parsed[tt.field.Name])
				return
			}
			assert.Equal(t, tt.value, parsed[tt.field.Name])
		})
	}
}

// A disabled control keeps its value through a render and submit cycle.
func TestForm_DisabledValueSurvivesSubmit(t *testing.T) {
	f := newForm(t)

	controls := f.Render(form.Values{"name": "Luis", "email": "luis@academia.pe", "level": "a"}, nil)
	posted := url.Values{"name": {"Luis"}, "email": {"luis@academia.pe"}}
	var disabled int
	for _, c := range controls {
		if !c.Disabled {
			continue
		}
		disabled++
		for k, vs := range c.Mirror() {
			posted[k] = vs
		}
	}
	require.Equal(t, 1, disabled)

	payload, errs := f.Validate(form.Parse(f.Fields(), posted))
	assert.Nil(t, errs)
	assert.Equal(t, "a", payload["level"])
}
