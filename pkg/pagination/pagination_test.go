package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePageParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, DefaultPageSize},
		{"?page=3&page_size=5", 3, 5},
		{"?page=0&page_size=-1", 1, DefaultPageSize},
		{"?page=abc&page_size=1000", 1, MaxPageSize},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/gins"+tc.query, nil)

		p := ParsePageParams(c)
		assert.Equal(t, tc.wantPage, p.Page, tc.query)
		assert.Equal(t, tc.wantPageSize, p.PageSize, tc.query)
	}
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	info = NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, info.TotalPages)
	assert.False(t, info.HasNext)
	assert.False(t, info.HasPrev)

	info = NewPageInfo(3, 10, 30)
	assert.False(t, info.HasNext)
}

func TestOffset(t *testing.T) {
	p := &PageParams{Page: 4, PageSize: 25}
	assert.Equal(t, 75, p.GetOffset())
	assert.Equal(t, 25, p.GetLimit())
}
