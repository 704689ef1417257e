package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := logrus.New()
	l.SetOutput(io.Discard)
	logger.SetLogger(l)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", apperrors.Conflict("子域名已被使用"), http.StatusConflict, "子域名已被使用"},
		{"unique violation", fmt.Errorf("创建用户: %w", gorm.ErrDuplicatedKey), http.StatusConflict, "资源已存在"},
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, "资源不存在"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "服务器内部错误"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/api/v1/users", nil)

			FromError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.message, body.Error)
		})
	}
}

func TestFromError_UpgradeRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, apperrors.UpgradeRequired("请升级套餐", "basic"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.UpgradeRequired)
	assert.Equal(t, "basic", body.RequiredTier)
}
