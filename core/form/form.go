package form

import (
	"encoding/json"
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// MsgNotANumber is reported for numeric fields holding something else.
const MsgNotANumber = "debe ser un número"

type (
	// Form pairs a field list with its validation schema.
	Form struct {
		fields     []FieldConfig
		schema     Schema
		validate   *validator.Validate
		translator ut.Translator
	}

	// Control is one rendered input.
	Control struct {
		FieldConfig
		Value    interface{}
		Disabled bool
		Error    string
	}
)

// New returns a Form. Every field must have an entry in the schema.
func New(schema Schema, fields []FieldConfig, validate *validator.Validate, translator ut.Translator) (*Form, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if _, ok := schema[f.Name]; !ok {
			return nil, errors.Errorf("form: field %q is not in the validation schema", f.Name)
		}
		if seen[f.Name] {
			return nil, errors.Errorf("form: duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	return &Form{fields: fields, schema: schema, validate: validate, translator: translator}, nil
}

// Must is like New but panics on error. Meant for package level form definitions.
func Must(f *Form, err error) *Form {
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Form) Fields() []FieldConfig { return f.fields }

func (f *Form) Field(name string) (FieldConfig, bool) {
	for _, fld := range f.fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return FieldConfig{}, false
}

// Render returns one control per visible field, in declared order.
func (f *Form) Render(values Values, errs map[string]string) []Control {
	state := Evaluate(f.fields, values)
	controls := make([]Control, 0, len(f.fields))
	for _, fld := range f.fields {
		if !state.IsVisible(fld.Name) {
			continue
		}
		controls = append(controls, Control{
			FieldConfig: fld,
			Value:       values[fld.Name],
			Disabled:    !state.IsEnabled(fld.Name),
			Error:       errs[fld.Name],
		})
	}
	return controls
}

// Purge returns the values of the visible fields only. Values of hidden fields are dropped,
// values of disabled (but visible) fields are kept.
func (f *Form) Purge(values Values) Values {
	state := Evaluate(f.fields, values)
	out := make(Values, len(f.fields))
	for _, fld := range f.fields {
		if !state.IsVisible(fld.Name) {
			continue
		}
		if v, ok := values[fld.Name]; ok {
			out[fld.Name] = v
		}
	}
	return out
}

// Validate purges hidden fields and validates the remaining ones against the schema.
// It returns the payload to submit, and field-level messages when validation failed.
func (f *Form) Validate(values Values) (Values, map[string]string) {
	payload := f.Purge(values)
	state := Evaluate(f.fields, values)

	errs := make(map[string]string)
	for _, fld := range f.fields {
		if !state.IsVisible(fld.Name) {
			continue
		}
		val := payload[fld.Name]
		if !isEmpty(val) && !hasFieldType(fld.Type, val) {
			errs[fld.Name] = MsgNotANumber
			continue
		}
		tag := f.tag(fld)
		if tag == "" || (!fld.Required && isEmpty(val) && !strings.Contains(tag, "required")) {
			continue
		}
		if err := f.validate.Var(val, tag); err != nil {
			errs[fld.Name] = f.message(err)
		}
	}
	if len(errs) > 0 {
		return payload, errs
	}
	return payload, nil
}

// hasFieldType reports whether a non-empty value has the Go type Parse gives to numeric fields.
// Other field types accept anything.
func hasFieldType(typ FieldType, val interface{}) bool {
	switch typ {
	case Integer:
		_, ok := val.(int)
		return ok
	case Price, Height:
		switch val.(type) {
		case int, float64:
			return true
		}
		return false
	}
	return true
}

func (f *Form) tag(fld FieldConfig) string {
	tag := f.schema[fld.Name]
	if fld.Required && !strings.Contains(tag, "required") {
		if tag == "" {
			return "required"
		}
		return "required," + tag
	}
	return tag
}

func (f *Form) message(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		if f.translator != nil {
			return vErrs[0].Translate(f.translator)
		}
		return vErrs[0].Error()
	}
	return err.Error()
}

// Change sets `name` to `value` and runs the field's OnChange callback. `values` is not modified.
func (f *Form) Change(values Values, name string, value interface{}) Values {
	out := values.Copy()
	out[name] = value
	if fld, ok := f.Field(name); ok && fld.OnChange != nil {
		fld.OnChange(value, out)
	}
	return out
}

// Initial returns the values a dialog opens with: defaults in create mode (selected == nil),
// the selected record's attributes in edit mode.
func (f *Form) Initial(selected interface{}) Values {
	values := make(Values, len(f.fields))
	for _, fld := range f.fields {
		values[fld.Name] = zero(fld.Type)
	}
	if selected == nil {
		return values
	}

	b, err := json.Marshal(selected)
	if err != nil {
		return values
	}
	var attrs map[string]interface{}
	if err := json.Unmarshal(b, &attrs); err != nil {
		return values
	}
	for _, fld := range f.fields {
		if v, ok := attrs[fld.Name]; ok && v != nil {
			values[fld.Name] = coerce(fld.Type, v)
		}
	}
	return values
}

// Coerce converts JSON decoded values (numbers as float64, lists as []interface{}) to the Go type
// of their field. Unknown keys are dropped.
func (f *Form) Coerce(values map[string]interface{}) Values {
	out := make(Values, len(f.fields))
	for _, fld := range f.fields {
		if v, ok := values[fld.Name]; ok {
			out[fld.Name] = coerce(fld.Type, v)
		}
	}
	return out
}

func zero(typ FieldType) interface{} {
	switch typ {
	case Checkbox:
		return false
	case MultiSelect, DateRange:
		return []string{}
	}
	return nil
}

// coerce converts a JSON decoded value to the Go type Parse would produce for the field.
func coerce(typ FieldType, v interface{}) interface{} {
	switch typ {
	case Integer:
		if n, ok := v.(float64); ok {
			return int(n)
		}
	case MultiSelect, DateRange:
		if list, ok := v.([]interface{}); ok {
			out := make([]string, 0, len(list))
			for _, item := range list {
				out = append(out, fmt.Sprint(item))
			}
			return out
		}
	case Date:
		// timestamps are edited as dates
		if s, ok := v.(string); ok && len(s) > len(dateLayout) {
			return s[:len(dateLayout)]
		}
	}
	return v
}
