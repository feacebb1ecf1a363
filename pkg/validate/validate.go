// Package validate 封装 go-playground/validator 单例，用于边界输入（借阅记录、图书、配置）校验。
package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	v     *validator.Validate
	vOnce sync.Once
)

// Validator 返回单例，线程安全，内部缓存结构体信息。
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
	})
	return v
}

// FieldError 是单个字段的校验失败。
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e FieldError) Error() string {
	switch e.Tag {
	case "required":
		return e.Field + " is required"
	case "gte", "lte", "gt", "lt", "min", "max", "oneof":
		return fmt.Sprintf("%s must satisfy %s=%s", e.Field, e.Tag, e.Param)
	default:
		return fmt.Sprintf("%s failed on %s", e.Field, e.Tag)
	}
}

// Errors 是一次校验的全部字段错误。
type Errors []FieldError

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Struct 校验结构体，失败时返回 Errors。
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return out
}
