package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"ginvault/internal/services"
	"ginvault/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// parseID 解析路径中的ID参数，失败时直接返回400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "ID格式错误")
		return 0, false
	}
	return uint(id), true
}

// bindError 返回第一个校验失败的字段
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		response.BadRequest(c, fmt.Sprintf("参数错误: %s 不满足 %s", fe.Field(), fe.Tag()))
		return
	}
	response.BadRequest(c, "参数错误")
}

func clientMeta(c *gin.Context) services.ClientMeta {
	return services.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		ClientIP:  c.ClientIP(),
	}
}

// queryBool 可选布尔查询参数，未传返回nil
func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s 参数格式错误", key)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s 参数格式错误", key)
	}
	return &v, nil
}

func deleted(c *gin.Context) {
	response.Success(c, gin.H{"message": "删除成功"})
}
