package util

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

var registerOnce sync.Once

// ValidateUsername 用户名只允许字母、数字和下划线，长度 3 到 30
func ValidateUsername(fl validator.FieldLevel) bool {
	username, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return usernamePattern.MatchString(username)
}

// RegisterValidators 在 gin 的校验引擎上注册自定义规则
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := v.RegisterValidation("username", ValidateUsername); err != nil {
				Logger.Error("注册用户名校验器失败", Error(err))
			}
		}
	})
}
