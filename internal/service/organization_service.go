package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"propertyhub/internal/models"
	"propertyhub/internal/repository"
)

type OrganizationService struct {
	orgs *repository.OrganizationRepository
	log  zerolog.Logger
}

func NewOrganizationService(orgs *repository.OrganizationRepository, log zerolog.Logger) *OrganizationService {
	return &OrganizationService{orgs: orgs, log: log}
}

// Create stores an organization. An empty slug is derived from the name.
func (s *OrganizationService) Create(ctx context.Context, name, slug string) (models.Organization, error) {
	org := models.Organization{Name: strings.TrimSpace(name), Slug: s.slug(name, slug)}
	if org.Slug == "" {
		return models.Organization{}, rule("Organization slug must contain a letter or digit.")
	}
	if err := s.orgs.Create(ctx, &org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Organization{}, conflict("An organization with this slug already exists.")
		}
		return models.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	return s.orgs.GetByID(ctx, org.ID)
}

func (s *OrganizationService) Update(ctx context.Context, id, name, slug string) (models.Organization, error) {
	fields := map[string]any{
		"name": strings.TrimSpace(name),
		"slug": s.slug(name, slug),
	}
	if fields["slug"] == "" {
		return models.Organization{}, rule("Organization slug must contain a letter or digit.")
	}
	org, err := s.orgs.Update(ctx, id, fields)
	if errors.Is(err, repository.ErrDuplicate) {
		return models.Organization{}, conflict("An organization with this slug already exists.")
	}
	return org, err
}

func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	err := s.orgs.DeleteGuarded(ctx, id)
	switch {
	case errors.Is(err, repository.ErrOrganizationHasMembers):
		return rule("Cannot delete organization that still has members.")
	case errors.Is(err, repository.ErrOrganizationOwnsAssets):
		return rule("Cannot delete organization that owns properties.")
	default:
		return err
	}
}

func (s *OrganizationService) slug(name, slug string) string {
	if strings.TrimSpace(slug) != "" {
		return Slugify(slug)
	}
	return Slugify(name)
}
