// Package pipeline runs the validate, operate and serialize stages of an entity
// route once authentication and authorization middleware have passed.
package pipeline

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/identity"
	"propertyhub/internal/middleware"
	"propertyhub/internal/models"
	"propertyhub/internal/render"
	"propertyhub/internal/repository"
	"propertyhub/internal/service"
	"propertyhub/internal/validate"
)

// Result is what an operation hands to the serializer.
type Result struct {
	Status  int
	Entity  string
	Value   any
	Message string
	Page    *render.Pagination
}

func OK(entity string, value any) Result {
	return Result{Status: http.StatusOK, Entity: entity, Value: value}
}

func Created(entity string, value any) Result {
	return Result{Status: http.StatusCreated, Entity: entity, Value: value}
}

func List(entity string, items any, page render.Pagination) Result {
	return Result{Status: http.StatusOK, Entity: entity, Value: items, Page: &page}
}

// Deleted builds the "<Entity> deleted successfully" message result.
func Deleted(entity string) Result {
	return Result{Status: http.StatusOK, Message: entity + " deleted successfully"}
}

type Operation func(c *gin.Context, user models.User) (Result, error)

func Handle(run Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			render.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		result, err := run(c, user)
		if err != nil {
			Fail(c, err)
			return
		}
		Write(c, result)
	}
}

// HandleJSON validates the body into T before the operation sees it. An invalid
// body ends the request with 400 and a per-field report.
func HandleJSON[T any](run func(c *gin.Context, user models.User, in T) (Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			render.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		in, violations := validate.Bind[T](c)
		if violations != nil {
			render.ErrorDetails(c, http.StatusBadRequest, "Validation failed", violations)
			return
		}

		result, err := run(c, user, in)
		if err != nil {
			Fail(c, err)
			return
		}
		Write(c, result)
	}
}

func Write(c *gin.Context, result Result) {
	switch {
	case result.Page != nil:
		render.List(c, result.Entity, result.Value, *result.Page)
	case result.Message != "":
		render.Message(c, result.Status, result.Message)
	default:
		render.Entity(c, result.Status, result.Entity, result.Value)
	}
}

// Fail maps an operation error onto the response status.
func Fail(c *gin.Context, err error) {
	var ruleErr *service.RuleError
	var violations validate.Violations

	switch {
	case errors.As(err, &violations):
		render.ErrorDetails(c, http.StatusBadRequest, "Validation failed", violations)
	case errors.As(err, &ruleErr):
		render.Error(c, http.StatusBadRequest, ruleErr.Message)
	case errors.Is(err, repository.ErrNotFound):
		render.Error(c, http.StatusNotFound, notFoundMessage(c))
	case errors.Is(err, service.ErrForbidden):
		render.Error(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrUnauthenticated):
		render.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrConflict):
		render.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		render.Error(c, http.StatusConflict, "Record already exists")
	default:
		_ = c.Error(err)
		render.Error(c, http.StatusInternalServerError, err.Error())
	}
}

// notFoundMessage names the innermost entity addressed by an id in the route,
// e.g. /api/properties/:id/documents/:documentId -> "Document not found".
func notFoundMessage(c *gin.Context) string {
	segments := strings.Split(strings.TrimPrefix(c.FullPath(), "/api/"), "/")
	name := ""
	for i, segment := range segments {
		if i > 0 && strings.HasPrefix(segment, ":") {
			if n, ok := entityNames[segments[i-1]]; ok {
				name = n
			}
		}
	}
	if name == "" {
		return "Not found"
	}
	return name + " not found"
}

var entityNames = map[string]string{
	"events":        "Event",
	"participants":  "Participant",
	"properties":    "Property",
	"documents":     "Document",
	"contracts":     "Contract",
	"payments":      "Payment",
	"users":         "User",
	"organizations": "Organization",
	"join-requests": "Join request",
}
