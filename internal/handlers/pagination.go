package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParsePagination parses standard pagination query params from the request.
// It enforces bounds and applies defaults when values are missing or invalid.
func ParsePagination(c *gin.Context, defaultPage, defaultSize, maxSize int) (int, int) {
	pageStr := c.DefaultQuery("page", strconv.Itoa(defaultPage))
	sizeStr := c.DefaultQuery("page_size", strconv.Itoa(defaultSize))

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = defaultPage
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	return page, size
}

// ParseIntQuery parses an optional integer query param, returning zero when
// it is absent or malformed.
func ParseIntQuery(c *gin.Context, key string) int {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseIntListQuery parses a comma-separated list of integers from a query
// param, skipping malformed entries.
func ParseIntListQuery(c *gin.Context, key string) []int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			continue
		}
		ids = append(ids, n)
	}
	return ids
}

// WritePaginated standardizes paginated responses with a flexible items key
// and a pagination block.
func WritePaginated(c *gin.Context, itemsKey string, items any, page, pageSize, total int) {
	c.JSON(http.StatusOK, gin.H{
		itemsKey: items,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}
