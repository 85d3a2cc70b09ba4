package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"physio-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func stringRule(check func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return check(fl.Field().String())
	}
}

func New() *Validator {
	v := validator.New()

	// Report fields by their json name so details match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("date", stringRule(func(value string) bool {
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	}))

	v.RegisterValidation("clock", stringRule(func(value string) bool {
		_, err := time.Parse("15:04", value)
		return err == nil
	}))

	phoneRegex := regexp.MustCompile(`^\+?[0-9 ]{7,20}$`)
	v.RegisterValidation("phone", stringRule(phoneRegex.MatchString))

	v.RegisterValidation("role", stringRule(models.IsValidRole))
	v.RegisterValidation("treatment", stringRule(models.IsValidTreatment))
	v.RegisterValidation("method", stringRule(models.IsValidPaymentMethod))
	v.RegisterValidation("txtype", stringRule(models.IsValidTransactionType))

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
