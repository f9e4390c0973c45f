package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"propertyhub/internal/ids"
	"propertyhub/internal/media/sniffer"
	"propertyhub/internal/media/svg"
	"propertyhub/internal/models"
	"propertyhub/internal/repository"
	"propertyhub/internal/security"
)

var ErrSignatureMismatch = errors.New("document signature mismatch")

// ObjectStore is the part of the object storage client documents need.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (int64, error)
	PresignGet(ctx context.Context, key, fileName string) (*url.URL, error)
	Remove(ctx context.Context, key string) error
}

type UploadInput struct {
	ResourceID string
	User       models.User
	File       multipart.File
	Header     *multipart.FileHeader
	Kind       models.DocumentKind
}

type DocumentService struct {
	documents *repository.DocumentRepository
	store     ObjectStore
	secret    string
	maxBytes  int64
	log       zerolog.Logger
}

func NewDocumentService(documents *repository.DocumentRepository, store ObjectStore, secret string, maxBytes int64, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		documents: documents,
		store:     store,
		secret:    secret,
		maxBytes:  maxBytes,
		log:       log,
	}
}

func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (models.ResourceDocument, error) {
	if input.File == nil || input.Header == nil {
		return models.ResourceDocument{}, rule("A file is required.")
	}
	if s.maxBytes > 0 && input.Header.Size > s.maxBytes {
		return models.ResourceDocument{}, rule(fmt.Sprintf("File exceeds the maximum upload size of %d bytes.", s.maxBytes))
	}

	result, head, err := sniffer.Detect(input.File)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return models.ResourceDocument{}, rule("Unsupported file type.")
		}
		return models.ResourceDocument{}, fmt.Errorf("detect type: %w", err)
	}

	declared := sniffer.MimeTypeFromHTTP(http.Header(input.Header.Header))
	if declared != "" && declared != result.MIME {
		return models.ResourceDocument{}, rule(fmt.Sprintf("Declared content type %s does not match detected %s.", declared, result.MIME))
	}

	rest, err := io.ReadAll(input.File)
	if err != nil {
		return models.ResourceDocument{}, fmt.Errorf("read file: %w", err)
	}
	data := append(head, rest...)
	if len(data) == 0 {
		return models.ResourceDocument{}, rule("The file is empty.")
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return models.ResourceDocument{}, rule("Unsupported file type.")
		}
		data = clean
	}

	kind := input.Kind
	if kind == "" {
		kind = models.DocumentKindOther
		if result.Type.IsImage() {
			kind = models.DocumentKindPhoto
		}
	}

	docID := ids.New()
	objectKey := path.Join("resources", input.ResourceID, fmt.Sprintf("%s.%s", docID, result.Type))

	size, err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return models.ResourceDocument{}, err
	}

	sum := sha256.Sum256(data)
	doc := models.ResourceDocument{
		ID:          docID,
		ResourceID:  input.ResourceID,
		UploadedBy:  input.User.ID,
		FileName:    filepath.Base(input.Header.Filename),
		ContentType: result.MIME,
		Kind:        kind,
		Bucket:      s.store.Bucket(),
		ObjectKey:   objectKey,
		SizeBytes:   size,
		Checksum:    sum[:],
		Signature:   security.SignDocument(s.secret, docID, objectKey),
	}

	if err := s.documents.Create(ctx, &doc); err != nil {
		if rmErr := s.store.Remove(ctx, objectKey); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("object_key", objectKey).Msg("remove orphaned object failed")
		}
		return models.ResourceDocument{}, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, resourceID string) ([]models.ResourceDocument, error) {
	return s.documents.ListByResource(ctx, resourceID)
}

// Link returns the document row and a presigned download URL for it. Rows whose
// signature no longer matches their object key are refused.
func (s *DocumentService) Link(ctx context.Context, resourceID, id string) (models.ResourceDocument, string, error) {
	doc, err := s.documents.Get(ctx, resourceID, id)
	if err != nil {
		return models.ResourceDocument{}, "", err
	}
	if !security.VerifyDocument(s.secret, doc.Signature, doc.ID, doc.ObjectKey) {
		s.log.Error().Str("document_id", doc.ID).Msg("document signature mismatch")
		return models.ResourceDocument{}, "", ErrSignatureMismatch
	}

	u, err := s.store.PresignGet(ctx, doc.ObjectKey, doc.FileName)
	if err != nil {
		return models.ResourceDocument{}, "", err
	}
	return doc, u.String(), nil
}

func (s *DocumentService) Delete(ctx context.Context, resourceID, id string) error {
	doc, err := s.documents.Get(ctx, resourceID, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, resourceID, id); err != nil {
		return err
	}
	s.RemoveObjects(ctx, []models.ResourceDocument{doc})
	return nil
}

// RemoveObjects drops stored objects whose rows are already gone. Failures are
// logged and leave the object behind.
func (s *DocumentService) RemoveObjects(ctx context.Context, docs []models.ResourceDocument) {
	for _, doc := range docs {
		if err := s.store.Remove(ctx, doc.ObjectKey); err != nil {
			s.log.Warn().Err(err).Str("object_key", doc.ObjectKey).Msg("remove object failed")
		}
	}
}
