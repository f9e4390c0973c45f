package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/internal/models"
	"propertyhub/internal/repository"
)

var pdfBody = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

func TestDocumentUploadAndLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manager := f.user(t, "pm@example.com", models.UserRolePropertyManager)
	flat := f.resource(t, manager, "Flat", nil)

	file, header := upload("../plans/floor plan.pdf", "application/pdf", pdfBody)
	doc, err := f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager, File: file, Header: header})
	require.NoError(t, err)

	assert.Equal(t, "floor plan.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, models.DocumentKindOther, doc.Kind)
	assert.EqualValues(t, len(pdfBody), doc.SizeBytes)
	assert.True(t, strings.HasPrefix(doc.ObjectKey, "resources/"+flat.ID+"/"))
	assert.True(t, f.store.has(doc.ObjectKey))

	got, link, err := f.documents.Link(ctx, flat.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Contains(t, link, "https://files.test/"+doc.ObjectKey)

	docs, err := f.documents.List(ctx, flat.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	// A row pointing at another object fails the signature check.
	require.NoError(t, f.db.Model(&models.ResourceDocument{}).Where("id = ?", doc.ID).Update("object_key", "resources/other.pdf").Error)
	_, _, err = f.documents.Link(ctx, flat.ID, doc.ID)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestDocumentUploadRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manager := f.user(t, "pm@example.com", models.UserRolePropertyManager)
	flat := f.resource(t, manager, "Flat", nil)

	_, err := f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager})
	assert.Equal(t, "A file is required.", ruleMessage(t, err))

	file, header := upload("notes.txt", "", []byte("just some text"))
	_, err = f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager, File: file, Header: header})
	assert.Equal(t, "Unsupported file type.", ruleMessage(t, err))

	file, header = upload("plan.pdf", "image/png", pdfBody)
	_, err = f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager, File: file, Header: header})
	assert.Equal(t, "Declared content type image/png does not match detected application/pdf.", ruleMessage(t, err))

	file, header = upload("big.pdf", "application/pdf", pdfBody)
	header.Size = 2 << 20
	_, err = f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager, File: file, Header: header})
	assert.Contains(t, ruleMessage(t, err), "maximum upload size")

	f.store.putErr = errStoreDown
	file, header = upload("plan.pdf", "application/pdf", pdfBody)
	_, err = f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager, File: file, Header: header})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestDocumentSVGIsSanitized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manager := f.user(t, "pm@example.com", models.UserRolePropertyManager)
	flat := f.resource(t, manager, "Flat", nil)

	body := []byte(`<svg xmlns="http://www.w3.org/2000/svg" onload="x()"><script>x()</script><rect width="4"/></svg>`)
	file, header := upload("plan.svg", "", body)
	doc, err := f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: manager, File: file, Header: header})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentKindPhoto, doc.Kind)

	stored := string(f.store.objects[doc.ObjectKey])
	assert.NotContains(t, stored, "onload")
	assert.NotContains(t, stored, "<script")
}

func TestDocumentDeleteAndPropertyDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.user(t, "admin@example.com", models.UserRoleAdmin)
	flat := f.resource(t, admin, "Flat", nil)

	var keys []string
	for i := 0; i < 2; i++ {
		file, header := upload("plan.pdf", "application/pdf", pdfBody)
		doc, err := f.documents.Upload(ctx, UploadInput{ResourceID: flat.ID, User: admin, File: file, Header: header, Kind: models.DocumentKindFloorPlan})
		require.NoError(t, err)
		keys = append(keys, doc.ObjectKey)
	}

	docs, err := f.documents.List(ctx, flat.ID)
	require.NoError(t, err)
	require.NoError(t, f.documents.Delete(ctx, flat.ID, docs[0].ID))
	assert.False(t, f.store.has(docs[0].ObjectKey))
	assert.ErrorIs(t, f.documents.Delete(ctx, flat.ID, docs[0].ID), repository.ErrNotFound)

	// Object removal failures do not fail the property delete.
	f.store.removeErr = errStoreDown
	require.NoError(t, f.properties.Delete(ctx, admin, flat.ID))
	f.store.removeErr = nil
	_, err = f.resources.GetByID(ctx, flat.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Len(t, keys, 2)
}
