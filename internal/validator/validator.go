// Package validator はgo-playground/validatorをechoのValidatorとして使う。
// 失敗時はフィールドのmsgタグをそのままエラーメッセージにする
package validator

import (
	"errors"
	"reflect"
	"strings"

	"storefront/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

// echo.Validatorを満たす
type RequestValidator struct {
	v *playground.Validate
}

func New() *RequestValidator {
	v := playground.New()
	//エラーにjson名を出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

// 最初に失敗したフィールドだけ返す
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return usecase.NewError(usecase.ErrValidation, "Invalid request")
	}
	return usecase.NewError(usecase.ErrValidation, message(i, verrs[0]))
}

func message(i interface{}, fe playground.FieldError) string {
	if f, ok := lookupField(reflect.TypeOf(i), fe.StructNamespace()); ok {
		if msg := f.Tag.Get("msg"); msg != "" {
			return msg
		}
	}

	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "email":
		return "Invalid email address"
	default:
		return fe.Field() + " is invalid"
	}
}

// "Req.Variants[0].Size" をたどってフィールド定義を探す
func lookupField(t reflect.Type, namespace string) (reflect.StructField, bool) {
	parts := strings.Split(namespace, ".")
	var f reflect.StructField
	for _, name := range parts[1:] {
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return reflect.StructField{}, false
		}
		var ok bool
		if f, ok = t.FieldByName(name); !ok {
			return reflect.StructField{}, false
		}
		t = f.Type
	}
	return f, len(parts) > 1
}
