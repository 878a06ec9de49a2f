package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
)

const (
	pageParam       = "page"
	defaultPageSize = 10
)

// Paginator renders page-number pagination with absolute next/previous links.
type Paginator struct {
	Size int
}

func NewPaginator(size int) Paginator {
	if size <= 0 {
		size = defaultPageSize
	}
	return Paginator{Size: size}
}

type pageResponse struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// Page reads the page query parameter. It writes a 404 and returns false
// when the value is not a positive integer.
func (p Paginator) Page(c *gin.Context) (models.Page, bool) {
	page := models.Page{Number: 1, Size: p.Size}
	raw := c.Query(pageParam)
	if raw == "" {
		return page, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		invalidPage(c)
		return page, false
	}
	page.Number = n
	return page, true
}

// Respond writes one page of results. A page past the last one is a 404,
// except page 1 of an empty list.
func (p Paginator) Respond(c *gin.Context, page models.Page, total int64, results any) {
	pages := page.Pages(total)
	if page.Number > 1 && page.Number > pages {
		invalidPage(c)
		return
	}

	resp := pageResponse{Count: total, Results: results}
	if page.Number < pages {
		next := pageURL(c, page.Number+1)
		resp.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1)
		resp.Previous = &prev
	}
	c.JSON(http.StatusOK, resp)
}

func invalidPage(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
}

// pageURL rebuilds the request URL pointing at page n. Page 1 drops the
// parameter entirely.
func pageURL(c *gin.Context, n int) string {
	u := url.URL{
		Scheme: requestScheme(c),
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	q := c.Request.URL.Query()
	if n <= 1 {
		q.Del(pageParam)
	} else {
		q.Set(pageParam, strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
