package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/queue"
	"propertyhub/internal/repository"
	"propertyhub/internal/testutil"
)

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, job queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	removeErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Bucket() string { return "test-documents" }

func (s *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (int64, error) {
	if s.putErr != nil {
		return 0, s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return int64(len(data)), nil
}

func (s *memoryStore) PresignGet(_ context.Context, key, fileName string) (*url.URL, error) {
	return &url.URL{Scheme: "https", Host: "files.test", Path: "/" + key, RawQuery: "name=" + url.QueryEscape(fileName)}, nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func upload(name, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{},
		Size:     int64(len(data)),
	}
	if contentType != "" {
		header.Header.Set("Content-Type", contentType)
	}
	return memFile{bytes.NewReader(data)}, header
}

var errStoreDown = errors.New("store down")

// fixture wires every service over one sqlite database.
type fixture struct {
	db        *gorm.DB
	users     *repository.UserRepository
	orgs      *repository.OrganizationRepository
	resources *repository.ResourceRepository
	requests  *repository.JoinRequestRepository
	contracts *repository.ContractRepository

	provider  *identity.LocalProvider
	publisher *recordingPublisher
	store     *memoryStore

	auth       *AuthService
	documents  *DocumentService
	properties *PropertyService
	events     *EventService
	leases     *LeaseService
	joins      *JoinRequestService
	orgService *OrganizationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zerolog.Nop()

	f := &fixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		orgs:      repository.NewOrganizationRepository(db),
		resources: repository.NewResourceRepository(db),
		requests:  repository.NewJoinRequestRepository(db),
		contracts: repository.NewContractRepository(db),
		provider:  identity.NewLocalProvider(db, "session-secret", time.Hour),
		publisher: &recordingPublisher{},
		store:     newMemoryStore(),
	}
	f.auth = NewAuthService(f.provider, f.users, f.orgs, log)
	f.documents = NewDocumentService(repository.NewDocumentRepository(db), f.store, "signature-secret", 1<<20, log)
	f.properties = NewPropertyService(f.resources, f.documents, log)
	f.events = NewEventService(repository.NewEventRepository(db), f.resources, f.users, log)
	f.leases = NewLeaseService(f.contracts, f.users, f.properties, log)
	f.joins = NewJoinRequestService(f.requests, f.users, f.orgs, f.provider, f.publisher, log)
	f.orgService = NewOrganizationService(f.orgs, log)
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.UserRole) models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: role}
	require.NoError(t, f.users.Create(context.Background(), &u))
	return u
}

func (f *fixture) resource(t *testing.T, by models.User, label string, parentID *string) models.Resource {
	t.Helper()
	r, err := f.properties.Create(context.Background(), by, models.Resource{
		Label:    label,
		Type:     models.ResourceTypeUnit,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return r
}
