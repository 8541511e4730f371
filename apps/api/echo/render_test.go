package echoapi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core/form"
	appfs "github.com/vanderidme15/vz-academias-sub001/fs"
)

func TestRenderer_DisabledControlsArePosted(t *testing.T) {
	r, err := newRenderer(appfs.FS, "templates/pages", "Academias")
	require.NoError(t, err)

	view := &pageView{
		Slug: "enrollments",
		Dialog: dialogView{Open: true, Title: "Editar matrícula", Controls: []form.Control{
			{FieldConfig: form.FieldConfig{Name: "course_id", Type: form.Select, Options: []form.Option{{Value: "c1", Label: "Salsa"}}}, Value: "c1", Disabled: true},
			{FieldConfig: form.FieldConfig{Name: "days", Type: form.MultiSelect}, Value: []string{"lunes", "jueves"}, Disabled: true},
			{FieldConfig: form.FieldConfig{Name: "total_classes", Type: form.Integer}, Value: 8},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "page", view, nil))
	out := buf.String()

	assert.Contains(t, out, `<title>`)
	assert.Contains(t, out, `<input type="hidden" name="course_id" value="c1">`)
	assert.Contains(t, out, `<input type="hidden" name="days" value="lunes">`)
	assert.Contains(t, out, `<input type="hidden" name="days" value="jueves">`)
	assert.NotContains(t, out, `type="hidden" name="total_classes"`, "enabled inputs are posted as they are")
}
