// Package service 实现门户的业务规则：账号、职位、投递、统计与管理视图。
// 返回的错误均为 *apperr.Error，由 HTTP 层映射为状态码。
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"careercraft/internal/apperr"
	"careercraft/internal/notify"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateInput 把 validator 的第一条错误转换为面向用户的 InvalidInput。
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Unexpected("validate input", err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.InvalidInput(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return apperr.InvalidInput(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "oneof":
		return apperr.InvalidInput(fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "min":
		return apperr.InvalidInput(fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
	case "max":
		return apperr.InvalidInput(fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
	case "excludesall":
		return apperr.InvalidInput(fmt.Sprintf("%s must not contain %q", fe.Field(), fe.Param()))
	default:
		return apperr.InvalidInput(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func optionalText(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalText(*value)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, notify.Message) {}

func orDiscard(n notify.Notifier) notify.Notifier {
	if n == nil {
		return discardNotifier{}
	}
	return n
}
