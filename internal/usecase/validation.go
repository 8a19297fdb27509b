package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/petfeed-tech/catalog-backend/pkg/e"

	"github.com/go-playground/validator/v10"
)

var barcodeRegexp = regexp.MustCompile(`^\d{8,14}$`)

// Validation оборачивает go-playground/validator и переводит его ошибки
// в список e.FieldError с человекочитаемыми сообщениями.
// Проверка никогда не останавливается на первом нарушении.
type Validation struct {
	validate *validator.Validate
}

func NewValidation() *Validation {
	validate := validator.New()
	validate.RegisterValidation("barcode", validateBarcode)

	// В сообщениях об ошибках используются имена полей из json-тегов
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validation{validate: validate}
}

// Validate проверяет структуру и возвращает все найденные нарушения.
func (v *Validation) Validate(i interface{}) []e.FieldError {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []e.FieldError{e.NewFieldError("", err.Error())}
	}

	fields := make([]e.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, e.NewFieldError(fieldPath(fe), fieldMessage(fe)))
	}

	return fields
}

// fieldPath обрезает имя корневой структуры: "CreateProductReq.ingredients[0].status"
// превращается в "ingredients[0].status".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s item(s)", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a well-formed URL", fe.Field())
	case "barcode":
		return fmt.Sprintf("%s must consist of 8 to 14 digits", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation on the '%s' rule", fe.Field(), fe.Tag())
	}
}

func validateBarcode(fl validator.FieldLevel) bool {
	return barcodeRegexp.MatchString(fl.Field().String())
}

// ValidBarcode проверяет формат штрихкода до обращения к хранилищу.
func ValidBarcode(barcode string) bool {
	return barcodeRegexp.MatchString(barcode)
}
