package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// GetPaginationParams reads the zero-based page and per_page parameters. ok is false when the
// request asks for no pagination.
func GetPaginationParams(c *gin.Context) (page, pageSize int, ok bool) {
	rawPage, ok := c.GetQuery("page")
	if !ok {
		return 0, 0, false
	}
	page, _ = strconv.Atoi(rawPage)
	pageSize, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPageSize)))

	if page < 0 {
		page = 0
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize, true
}

// Paginate returns the items on the zero-based page. Pages past the end are empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 0 || page > len(items)/pageSize {
		return []T{}
	}
	start := page * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if pageSize < end-start {
		end = start + pageSize
	}
	return items[start:end]
}
