package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "este campo no puede estar vacío"

	hhmmTag   = "hhmm"
	hhmmText  = "la hora debe tener el formato HH:MM"
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	weekdaysTag  = "weekdays"
	weekdaysText = "días inválidos"

	// overridden default texts; form controls show them next to the field, so no field name
	overrides = map[string]string{
		"required":      "este campo es obligatorio",
		"required_with": "este campo es obligatorio",
		"email":         "debe ser un correo electrónico válido",
		"hexcolor":      "debe ser un color válido",
		"url":           "debe ser una URL válida",
		"uuid4":         "debe ser un identificador válido",
		"datetime":      "debe ser una fecha válida",
		"oneof":         "debe ser una de las opciones disponibles",
		"numeric":       "debe ser un número",
	}
	paramOverrides = map[string]string{
		"min": "debe tener al menos {0}",
		"max": "debe tener como máximo {0}",
		"gte": "debe ser mayor o igual a {0}",
		"lte": "debe ser menor o igual a {0}",
		"gt":  "debe ser mayor a {0}",
		"len": "debe tener exactamente {0} elementos",
	}
)

// NewTranslator returns the spanish translator used for validation messages.
func NewTranslator() ut.Translator {
	_es := es.New()
	uni := ut.New(_es, _es)
	translator, _ := uni.GetTranslator("es")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = es_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText)

	_ = validate.RegisterValidation(weekdaysTag, weekdaysValidation)
	RegisterCustomTranslation(validate, translator, weekdaysTag, weekdaysText)

	for tag, text := range overrides {
		RegisterCustomTranslation(validate, translator, tag, text, true)
	}
	for tag, text := range paramOverrides {
		registerParamTranslation(validate, translator, tag, text)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func registerParamTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	key := tag + "-param"
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(key, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(key, fe.Param())
			return s
		},
	)
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// hhmmValidation only allows 24h times like "08:30".
func hhmmValidation(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

// weekdaysValidation checks that every day of a []string is a known weekday.
func weekdaysValidation(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < field.Len(); i++ {
		day, ok := field.Index(i).Interface().(string)
		if !ok || WeekdayIndex(day) == 0 {
			return false
		}
	}
	return true
}
