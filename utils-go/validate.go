package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxOrganizationName keeps "org_" + name within PostgreSQL's 63 byte identifiers.
const MaxOrganizationName = 59

var (
	organizationName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

// ValidationError carries every failed field of a request.
type ValidationError struct {
	Errors []*ErrorResponse
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Errors))
	for i, f := range e.Errors {
		fields[i] = fmt.Sprintf("%s (%s)", f.FailedField, f.Tag)
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// Validator returns the shared validator. Field names are reported by their json tag and
// the "orgname" tag checks organization names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if len(name) == 0 {
				name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
			}
			return name
		})
		if err := validate.RegisterValidation("orgname", func(fl validator.FieldLevel) bool {
			return ValidOrganizationName(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	})
	return validate
}

func ValidOrganizationName(name string) bool {
	return len(name) > 0 && len(name) <= MaxOrganizationName && organizationName.MatchString(name)
}

func ValidateStruct(err error) []*ErrorResponse {
	var errors []*ErrorResponse
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Validate runs the shared validator on s and returns a *ValidationError on failure.
func Validate(s interface{}) error {
	if errs := ValidateStruct(Validator().Struct(s)); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
