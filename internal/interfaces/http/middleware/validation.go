package middleware

import (
	"reflect"
	"strings"
	"sync"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// SetupValidator registers JSON field names and the custom tags on gin's
// validator. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return shared.IsSlug(fl.Field().String())
		})
	})
}

// ValidationDetails converts validator errors to response details. Other
// errors yield nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo obrigatório"
	case "email":
		return "E-mail inválido"
	case "min":
		if e.Kind() == reflect.String {
			return "Deve ter pelo menos " + e.Param() + " caracteres"
		}
		if e.Kind() == reflect.Slice {
			return "Informe pelo menos " + e.Param() + " item(ns)"
		}
		return "Deve ser no mínimo " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Deve ter no máximo " + e.Param() + " caracteres"
		}
		return "Deve ser no máximo " + e.Param()
	case "oneof":
		return "Deve ser um de: " + e.Param()
	case "uuid":
		return "UUID inválido"
	case "url":
		return "URL inválida"
	case "slug":
		return "Use apenas letras minúsculas, números e hífens"
	default:
		return "Valor inválido"
	}
}
