package echoapi

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/form"
)

const baseTemplate = "_base.gohtml"

// renderer renders the dashboard pages. Each page is parsed along with the `_base` layout.
type renderer struct {
	appName   string
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(fsys fs.FS, dir, appName string) (*renderer, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing page templates")
	}

	r := &renderer{appName: appName, templates: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		fname := path.Base(file)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, ".gohtml")
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, path.Join(dir, baseTemplate), file)
		if err != nil {
			return nil, errors.Wrap(err, fname)
		}
		r.templates[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("page template %q not found", name)
	}
	if v, ok := data.(interface{ setAppName(string) }); ok {
		v.setAppName(r.appName)
	}
	return t.ExecuteTemplate(w, baseTemplate, data)
}

var templateFuncs = template.FuncMap{
	"str":      valueString,
	"selected": selected,
	"rangeAt":  rangeAt,
	"isType":   func(c form.Control, typ string) bool { return string(c.Type) == typ },
}

// valueString formats a form value for an input.
func valueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, ", ")
	}
	return fmt.Sprint(v)
}

// selected reports whether `option` is the value, or one of the values, of a control.
func selected(v interface{}, option string) bool {
	switch val := v.(type) {
	case []string:
		for _, s := range val {
			if s == option {
				return true
			}
		}
		return false
	case bool:
		return strconv.FormatBool(val) == option
	}
	return valueString(v) == option
}

// rangeAt returns the i-th bound of a date range value.
func rangeAt(v interface{}, i int) string {
	if list, ok := v.([]string); ok && i < len(list) {
		return list[i]
	}
	return ""
}
