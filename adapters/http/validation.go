package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
)

var registerOnce sync.Once

// RegisterValidators installs the custom "password" rule and makes field
// errors report JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return len(user.PasswordProblems(fl.Field().String())) == 0
		})
	})
}

// bindError converts binding failures into a client error with per-field
// messages.
func bindError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Tag() == "password" {
				for _, p := range user.PasswordProblems(fmt.Sprint(fe.Value())) {
					fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: p})
				}
				continue
			}
			fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return apperror.NewValidationFailed(fields...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperror.NewTooLarge(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.As(err, &syntaxErr):
		return apperror.NewInvalidInput("request body is not valid JSON", err)
	case errors.As(err, &typeErr):
		return apperror.NewValidationFailed(apperror.FieldError{Field: typeErr.Field, Message: "has the wrong type"})
	}
	return apperror.NewInvalidInput("invalid request body", err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return fmt.Sprintf("failed the %q rule", fe.Tag())
}
