// Package validate binds request bodies against the binding tags declared on
// request structs and reports violations per JSON field.
package validate

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, item := range v {
		parts = append(parts, item.Field+": "+item.Message)
	}
	return strings.Join(parts, "; ")
}

var setupOnce sync.Once

// Setup registers the custom rules on gin's validator engine. Safe to call repeatedly.
func Setup() {
	setupOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		engine.RegisterTagNameFunc(jsonFieldName)
		engine.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = engine.RegisterValidation("iso8601", isISO8601)
	})
}

// Bind decodes the JSON body into T and validates it. An empty body is
// validated as the zero T.
func Bind[T any](c *gin.Context) (T, Violations) {
	Setup()

	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		if !errors.Is(err, io.EOF) {
			return in, Translate(err)
		}
		if err := binding.Validator.ValidateStruct(&in); err != nil {
			return in, Translate(err)
		}
	}
	return in, nil
}

// Translate turns a binding error into field-indexed violations.
func Translate(err error) Violations {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(Violations, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, Violation{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Message: message(fe),
			})
		}
		return out
	}
	return Violations{{Field: "body", Rule: "json", Message: err.Error()}}
}

// ParseISO parses the timestamp forms accepted by the iso8601 rule and returns it in UTC.
// A date-time must carry its offset; a bare date is midnight UTC.
func ParseISO(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 date %q", value)
}

// ParseISOPtr is ParseISO for optional values; nil or empty yields nil.
func ParseISOPtr(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := ParseISO(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isISO8601(fl validator.FieldLevel) bool {
	value := fl.Field()
	if value.Kind() != reflect.String {
		return false
	}
	_, err := ParseISO(value.String())
	return err == nil
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// fieldPath drops the root struct name from the namespace: "req.owners[0].userId" -> "owners[0].userId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "iso8601":
		return "must be an ISO-8601 date"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "excluded_with":
		return "cannot be combined with " + fe.Param()
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}
