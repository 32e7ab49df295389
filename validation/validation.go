// Package validation evaluates the per-form field constraints before any
// data access is attempted.
package validation

import (
	"reflect"
	"sort"
	"strings"

	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/shopspring/decimal"
)

// Error carries one message per offending field, keyed by JSON name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// NewError builds a single-field validation error.
func NewError(field, message string) *Error {
	return &Error{Fields: map[string]string{field: message}}
}

// Normalizer is implemented by forms that trim or canonicalise their input
// before validation.
type Normalizer interface {
	Normalize()
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New builds a validator with Spanish messages. phoneRegion is the default
// region used by the "phone" tag.
func New(phoneRegion string) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return jsonName(f)
	})

	spanish := es.New()
	uni := ut.New(spanish, spanish)
	trans, _ := uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	register(v, trans, "amount", "{0} debe ser un monto válido mayor o igual a cero", isAmount)
	register(v, trans, "date", "{0} debe ser una fecha válida (AAAA-MM-DD)", isDate)
	register(v, trans, "phone", "{0} no es un número de teléfono válido", func(fl validator.FieldLevel) bool {
		return utils.ValidatePhone(fl.Field().String(), phoneRegion)
	})

	return &Validator{validate: v, trans: trans}
}

// Struct normalises and validates a form. It returns nil or *Error.
func (v *Validator) Struct(form any) error {
	if n, ok := form.(Normalizer); ok {
		n.Normalize()
	}
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		key := fe.Field()
		if sf, found := t.FieldByName(fe.StructField()); found {
			key = jsonName(sf)
		}
		if _, exists := out.Fields[key]; !exists {
			out.Fields[key] = fe.Translate(v.trans)
		}
	}
	return out
}

func register(v *validator.Validate, trans ut.Translator, tag, message string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
	err := v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		})
	if err != nil {
		panic(err)
	}
}

func isAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

func isDate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
