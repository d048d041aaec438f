package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(t *testing.T, url string) *gin.Context {
	t.Helper()

	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", url, nil)
	return ctx
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		page    int
		perPage int
	}{
		{"defaults", "/?", 1, 10},
		{"explicit", "/?page=3&per_page=25", 3, 25},
		{"capped", "/?per_page=1000", 1, 50},
		{"garbage", "/?page=abc&per_page=-5", 1, 10},
		{"zero page", "/?page=0", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePagination(testContext(t, tt.url))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 40, Pagination{Page: 5, PerPage: 10}.Offset())
}

func TestParseSort(t *testing.T) {
	allowed := map[string]bool{"name": true, "created_at": true}

	ctx := testContext(t, "/?sort_by=name&sort_order=asc")
	assert.Equal(t, "name asc", ParseSort(ctx, allowed, "created_at", "desc"))

	// Columns outside the allow-list fall back to the default.
	ctx = testContext(t, "/?sort_by=password_hash&sort_order=sideways")
	assert.Equal(t, "created_at desc", ParseSort(ctx, allowed, "created_at", "desc"))

	ctx = testContext(t, "/")
	assert.Equal(t, "created_at desc", ParseSort(ctx, allowed, "created_at", "desc"))
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(Pagination{Page: 2, PerPage: 10}, 35)
	assert.Equal(t, 2, info.Page)
	assert.Equal(t, 4, info.TotalPages)
	assert.Equal(t, int64(35), info.TotalItems)

	info = NewPageInfo(Pagination{Page: 1, PerPage: 10}, 0)
	assert.Equal(t, 0, info.TotalPages)

	info = NewPageInfo(Pagination{Page: 1, PerPage: 10}, 30)
	assert.Equal(t, 3, info.TotalPages)
}
