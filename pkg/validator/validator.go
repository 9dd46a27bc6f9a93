package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse detalle de un campo que no pasó la validación.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Nombres de campo según el tag json para que el cliente reconozca el error
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("movement_type", oneOfFold("in", "out"))
	_ = validate.RegisterValidation("adjust_action", oneOfFold("increase", "decrease", "set"))
}

// oneOfFold acepta cualquiera de los valores sin distinguir mayúsculas.
func oneOfFold(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		for _, v := range values {
			if strings.EqualFold(s, v) {
				return true
			}
		}
		return false
	}
}

// ValidateStruct devuelve los errores por campo; nil si data es válido.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var out []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*ErrorResponse{{FailedField: "body", Tag: "invalid"}}
	}
	for _, e := range verrs {
		out = append(out, &ErrorResponse{
			FailedField: e.Field(),
			Tag:         e.Tag(),
			Value:       e.Param(),
		})
	}
	return out
}
