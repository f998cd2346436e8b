package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageSize is used when page_size is omitted.
	DefaultPageSize = 10
	// MaxPageSize caps page_size.
	MaxPageSize = 50
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage parses the page and page_size query parameters. page defaults to 1 and
// page_size defaults to DefaultPageSize, capped at MaxPageSize.
func ParsePage(c *gin.Context) (Page, error) {
	number, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || number < 1 {
		return Page{}, fmt.Errorf("invalid page parameter: must be a positive integer")
	}

	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size < 1 || size > MaxPageSize {
		return Page{}, fmt.Errorf("invalid page_size parameter: must be between 1 and %d", MaxPageSize)
	}

	return Page{Number: number, Size: size}, nil
}
