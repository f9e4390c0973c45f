// Package identity is the authentication collaborator: it owns credentials and
// session tokens and turns a token back into the identity that holds it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"propertyhub/internal/models"
	"propertyhub/internal/security"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

type Identity struct {
	ID    string
	Email string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

type Provider interface {
	// GetUser resolves a session token. It never caches: every call re-validates.
	GetUser(ctx context.Context, token string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	// Provision stores an identity whose password was hashed earlier.
	Provision(ctx context.Context, email string, passwordHash []byte) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	IssueSession(ctx context.Context, email string) (Session, error)
	// Rename moves the credential registered under from to the address to.
	// A missing credential is not an error.
	Rename(ctx context.Context, from, to string) error
	// Remove deletes the credential registered under email, if any. Sessions
	// issued for it stop resolving.
	Remove(ctx context.Context, email string) error
}

// LocalProvider keeps identities in the application database and signs HS256 session tokens.
type LocalProvider struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

func NewLocalProvider(db *gorm.DB, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{db: db, secret: secret, ttl: ttl}
}

// GetUser resolves the token subject against the stored credentials, so a
// renamed identity keeps its sessions and a removed one loses them.
func (p *LocalProvider) GetUser(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := security.ParseSessionToken(token, p.secret)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	var record models.Identity
	err = p.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, err
	}
	return Identity{ID: record.ID, Email: record.Email}, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (Identity, error) {
	if password == "" {
		return Identity{}, fmt.Errorf("password required")
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return Identity{}, err
	}
	return p.Provision(ctx, email, hash)
}

func (p *LocalProvider) Provision(ctx context.Context, email string, passwordHash []byte) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" || len(passwordHash) == 0 {
		return Identity{}, fmt.Errorf("email and password required")
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Identity{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return Identity{}, err
	}
	if count > 0 {
		return Identity{}, ErrEmailTaken
	}

	record := models.Identity{Email: email, PasswordHash: passwordHash}
	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		return Identity{}, fmt.Errorf("create identity: %w", err)
	}
	return Identity{ID: record.ID, Email: record.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	record, err := p.find(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	ok, err := security.VerifyPassword(password, record.PasswordHash)
	if err != nil || !ok {
		return Session{}, ErrInvalidCredentials
	}
	return p.issue(record)
}

// IssueSession mints a token for an existing identity without a password check.
// Used by operator tooling only.
func (p *LocalProvider) IssueSession(ctx context.Context, email string) (Session, error) {
	record, err := p.find(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	return p.issue(record)
}

func (p *LocalProvider) Rename(ctx context.Context, from, to string) error {
	from, to = normalizeEmail(from), normalizeEmail(to)
	if from == to {
		return nil
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Identity{}).Where("email = ?", to).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		err := tx.Model(&models.Identity{}).Where("email = ?", from).Update("email", to).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	})
}

func (p *LocalProvider) Remove(ctx context.Context, email string) error {
	return p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Delete(&models.Identity{}).Error
}

func (p *LocalProvider) find(ctx context.Context, email string) (models.Identity, error) {
	var record models.Identity
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&record).Error
	return record, err
}

func (p *LocalProvider) issue(record models.Identity) (Session, error) {
	token, expires, err := security.IssueSessionToken(p.secret, record.ID, record.Email, p.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresAt: expires,
		Identity:  Identity{ID: record.ID, Email: record.Email},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
