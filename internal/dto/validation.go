package dto

import (
	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs custom binding validations on gin's validator.
// Called once at startup, before routes are served.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// period validates the YYYY-MM accounting period format.
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := domain.ParsePeriod(fl.Field().String())
		return err == nil
	})
}
