// Валидация запросов HTTP API через go-playground/validator.
//
// Основные возможности:
//   - Проверка структур запросов по тегам validate.
//   - Проверка дат в формате YYYY-MM-DD.
package shopplan

import (
	"time"

	"github.com/go-playground/validator"
)

const dateLayout = "2006-01-02"

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("isoDate", isoDateValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func isoDateValidator(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}
