package handlers

import (
	"fmt"
	"strings"
	"sync"

	"ginvault/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators 在 gin 绑定引擎上注册 subdomain、tier 校验标签
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = fmt.Errorf("绑定引擎不是 validator/v10")
			return
		}
		if err := v.RegisterValidation("subdomain", validateSubdomain); err != nil {
			validatorsErr = err
			return
		}
		validatorsErr = v.RegisterValidation("tier", validateTier)
	})
	return validatorsErr
}

func validateSubdomain(fl validator.FieldLevel) bool {
	return models.IsValidSubdomain(strings.ToLower(strings.TrimSpace(fl.Field().String())))
}

func validateTier(fl validator.FieldLevel) bool {
	return models.IsValidTier(fl.Field().String())
}
