package api

import (
	"github.com/go-playground/validator/v10"

	"rentalhub/internal/domain/entity"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		method := fl.Field().String()
		return method == entity.PaymentMethodCash || method == entity.PaymentMethodKhalti
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
