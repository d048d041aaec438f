package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPerPage = 10
	maxPerPage     = 50
)

type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePagination reads the shared page/per_page query parameters. per_page is
// capped at 50.
func ParsePagination(ctx *gin.Context) Pagination {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(ctx.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))

	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}

	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{Page: page, PerPage: perPage}
}

// ParseSort reads sort_by/sort_order, falling back to the defaults when the
// requested column is not in the per-resource allow-list.
func ParseSort(ctx *gin.Context, allowed map[string]bool, defaultField, defaultOrder string) string {
	field := ctx.DefaultQuery("sort_by", defaultField)

	if !allowed[field] {
		field = defaultField
	}

	order := ctx.DefaultQuery("sort_order", defaultOrder)

	if order != "asc" && order != "desc" {
		order = defaultOrder
	}

	return field + " " + order
}

type PageInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

func NewPageInfo(p Pagination, total int64) PageInfo {
	totalPages := int(total) / p.PerPage

	if int(total)%p.PerPage != 0 {
		totalPages++
	}

	return PageInfo{
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
		TotalItems: total,
	}
}
