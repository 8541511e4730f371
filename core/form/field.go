// Package form renders declarative field lists, resolves their interdependencies and validates them.
package form

import (
	"fmt"
	"reflect"
)

type FieldType string

// Field types
const (
	Text        FieldType = "text"
	Email       FieldType = "email"
	Password    FieldType = "password"
	Integer     FieldType = "integer"
	Price       FieldType = "price"
	Textarea    FieldType = "textarea"
	Select      FieldType = "select"
	MultiSelect FieldType = "multi-select"
	Checkbox    FieldType = "checkbox"
	Date        FieldType = "date"
	DateRange   FieldType = "date-range"
	Color       FieldType = "color"
	Image       FieldType = "image"
	Height      FieldType = "height"
	Radio       FieldType = "radio"
	Time        FieldType = "time"
)

type (
	// Values are the current values of a form, keyed by field name.
	Values map[string]interface{}

	// Schema maps a field name to its validator tag (e.g. "required,notblank").
	Schema map[string]string

	Option struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}

	// Condition is satisfied when Field equals Value, or has Value when Field holds a list.
	// A nil Value is satisfied by any non-empty value.
	Condition struct {
		Field string      `json:"field"`
		Value interface{} `json:"value"`
	}

	FieldConfig struct {
		Name        string    `json:"name"`
		Label       string    `json:"label"`
		Type        FieldType `json:"type"`
		Required    bool      `json:"required"`
		Placeholder string    `json:"placeholder,omitempty"`
		Options     []Option  `json:"options,omitempty"`

		DependsOn    *Condition `json:"depends_on,omitempty"`
		DisabledWhen *Condition `json:"disabled_when,omitempty"`
		// OnChange may adjust other values after this field changed.
		OnChange func(value interface{}, values Values) `json:"-"`
	}

	// State is the set of visible and enabled field names for some values.
	State struct {
		Visible map[string]bool
		Enabled map[string]bool
	}
)

func (s State) IsVisible(name string) bool { return s.Visible[name] }
func (s State) IsEnabled(name string) bool { return s.Enabled[name] }

// Copy returns a shallow copy of the values.
func (v Values) Copy() Values {
	cp := make(Values, len(v))
	for k, val := range v {
		cp[k] = val
	}
	return cp
}

// Satisfied evaluates the condition against `values`.
func (c Condition) Satisfied(values Values) bool {
	val, ok := values[c.Field]
	if !ok || isEmpty(val) {
		return false
	}
	if c.Value == nil {
		return true
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if sameValue(rv.Index(i).Interface(), c.Value) {
				return true
			}
		}
		return false
	}
	return sameValue(val, c.Value)
}

func sameValue(a, b interface{}) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case bool:
		return !val
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr:
		return rv.IsNil()
	}
	return false
}

// Evaluate returns which fields are visible and enabled for `values`.
// A field is hidden when its DependsOn condition is not satisfied, or when the field it depends on is hidden.
// A visible field is disabled when its DisabledWhen condition is satisfied.
func Evaluate(fields []FieldConfig, values Values) State {
	byName := make(map[string]FieldConfig, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	state := State{
		Visible: make(map[string]bool, len(fields)),
		Enabled: make(map[string]bool, len(fields)),
	}
	resolving := make(map[string]bool, len(fields))

	var visible func(name string) bool
	visible = func(name string) bool {
		if v, done := state.Visible[name]; done {
			return v
		}
		f, ok := byName[name]
		if !ok {
			return true // not a field of this form (e.g. a fixed value)
		}
		if resolving[name] {
			return false // dependency cycle
		}
		resolving[name] = true
		v := f.DependsOn == nil || (visible(f.DependsOn.Field) && f.DependsOn.Satisfied(values))
		resolving[name] = false
		state.Visible[name] = v
		return v
	}

	for _, f := range fields {
		if visible(f.Name) {
			state.Enabled[f.Name] = f.DisabledWhen == nil || !f.DisabledWhen.Satisfied(values)
		} else {
			state.Enabled[f.Name] = false
		}
	}
	return state
}
