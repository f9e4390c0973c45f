package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/service"
	"propertyhub/internal/validate"
)

var documentKinds = map[string]models.DocumentKind{
	string(models.DocumentKindPhoto):     models.DocumentKindPhoto,
	string(models.DocumentKindFloorPlan): models.DocumentKindFloorPlan,
	string(models.DocumentKindContract):  models.DocumentKindContract,
	string(models.DocumentKindOther):     models.DocumentKindOther,
}

func (h HandlerSet) UploadPropertyDocument(c *gin.Context, user models.User) (pipeline.Result, error) {
	resourceID := c.Param("id")
	if err := h.properties.CheckAccess(c.Request.Context(), user, resourceID); err != nil {
		return pipeline.Result{}, err
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Storage.MaxUploadBytes+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Result{}, validate.Violations{{Field: "file", Rule: "max", Message: "exceeds the maximum upload size"}}
		}
		return pipeline.Result{}, validate.Violations{{Field: "file", Rule: "required", Message: "is required"}}
	}
	defer file.Close()

	var kind models.DocumentKind
	if raw := c.PostForm("kind"); raw != "" {
		k, ok := documentKinds[raw]
		if !ok {
			return pipeline.Result{}, validate.Violations{{Field: "kind", Rule: "oneof", Message: "must be one of: PHOTO, FLOOR_PLAN, CONTRACT, OTHER"}}
		}
		kind = k
	}

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadInput{
		ResourceID: resourceID,
		User:       user,
		File:       file,
		Header:     header,
		Kind:       kind,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Created("document", newDocumentView(doc)), nil
}

func (h HandlerSet) ListPropertyDocuments(c *gin.Context, user models.User) (pipeline.Result, error) {
	resourceID := c.Param("id")
	if err := h.properties.CheckAccess(c.Request.Context(), user, resourceID); err != nil {
		return pipeline.Result{}, err
	}
	docs, err := h.documents.List(c.Request.Context(), resourceID)
	if err != nil {
		return pipeline.Result{}, err
	}
	views := make([]documentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, newDocumentView(d))
	}
	return pipeline.OK("documents", views), nil
}

func (h HandlerSet) GetPropertyDocument(c *gin.Context, user models.User) (pipeline.Result, error) {
	resourceID := c.Param("id")
	if err := h.properties.CheckAccess(c.Request.Context(), user, resourceID); err != nil {
		return pipeline.Result{}, err
	}
	doc, url, err := h.documents.Link(c.Request.Context(), resourceID, c.Param("documentId"))
	if err != nil {
		return pipeline.Result{}, err
	}
	view := newDocumentView(doc)
	view.URL = url
	return pipeline.OK("document", view), nil
}

func (h HandlerSet) DeletePropertyDocument(c *gin.Context, user models.User) (pipeline.Result, error) {
	resourceID := c.Param("id")
	if err := h.properties.CheckAccess(c.Request.Context(), user, resourceID); err != nil {
		return pipeline.Result{}, err
	}
	if err := h.documents.Delete(c.Request.Context(), resourceID, c.Param("documentId")); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Deleted("Document"), nil
}
