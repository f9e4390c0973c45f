// Package render turns results into the JSON envelope every endpoint answers with:
// {"success": true, "<entity>": value} or {"success": false, "error": message, "details": ...}.
package render

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// isoLayout matches JavaScript's Date.prototype.toISOString once the time is in UTC.
const isoLayout = "2006-01-02T15:04:05.000Z"

func ISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func ISOPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ISO(*t)
	return &s
}

// Number renders a decimal as a bare JSON number.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func NumberPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := Number(*d)
	return &n
}

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

func Entity(c *gin.Context, status int, name string, value any) {
	c.JSON(status, gin.H{
		"success": true,
		name:      value,
	})
}

func List(c *gin.Context, name string, items any, page Pagination) {
	c.JSON(200, gin.H{
		"success":    true,
		name:         items,
		"pagination": page,
	})
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
	})
}

func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func ErrorDetails(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"details": details,
	})
}
