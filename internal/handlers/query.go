package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"propertyhub/internal/render"
	"propertyhub/internal/repository"
	"propertyhub/internal/validate"
)

// pageFromQuery reads limit and offset. Non-numeric values are a validation error.
func pageFromQuery(c *gin.Context) (repository.Page, error) {
	var page repository.Page
	var violations validate.Violations

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			violations = append(violations, validate.Violation{Field: "limit", Rule: "min", Message: "must be a positive integer"})
		}
		page.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			violations = append(violations, validate.Violation{Field: "offset", Rule: "gte", Message: "must be a non-negative integer"})
		}
		page.Offset = n
	}
	if violations != nil {
		return repository.Page{}, violations
	}
	return page.Normalize(), nil
}

func pagination(page repository.Page, total int64) render.Pagination {
	return render.Pagination{Limit: page.Limit, Offset: page.Offset, Total: total}
}

// parseDate converts a value that already passed the iso8601 rule.
func parseDate(field, value string) (time.Time, error) {
	t, err := validate.ParseISO(value)
	if err != nil {
		return time.Time{}, validate.Violations{{Field: field, Rule: "iso8601", Message: "must be an ISO-8601 date"}}
	}
	return t, nil
}

func parseDatePtr(field string, value *string) (*time.Time, error) {
	t, err := validate.ParseISOPtr(value)
	if err != nil {
		return nil, validate.Violations{{Field: field, Rule: "iso8601", Message: "must be an ISO-8601 date"}}
	}
	return t, nil
}

// jsonColumn encodes free-form attributes; nil clears the column.
func jsonColumn(value map[string]any) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
