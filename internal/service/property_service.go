package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"propertyhub/internal/models"
	"propertyhub/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// PropertyService applies the property rules that span more than one row:
// owner scoping, the parent hierarchy and the delete guard.
type PropertyService struct {
	resources *repository.ResourceRepository
	documents *DocumentService
	log       zerolog.Logger
}

func NewPropertyService(resources *repository.ResourceRepository, documents *DocumentService, log zerolog.Logger) *PropertyService {
	return &PropertyService{
		resources: resources,
		documents: documents,
		log:       log,
	}
}

// Access loads a resource the user may see. OWNER users only see resources
// they own; everyone else allowed by the policy sees all of them.
func (s *PropertyService) Access(ctx context.Context, user models.User, id string) (models.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return models.Resource{}, err
	}
	if user.Role != models.UserRoleOwner {
		return resource, nil
	}
	for _, owner := range resource.Owners {
		if owner.UserID != nil && *owner.UserID == user.ID {
			return resource, nil
		}
	}
	return models.Resource{}, ErrForbidden
}

// CheckAccess is Access for callers that only need the yes or no.
func (s *PropertyService) CheckAccess(ctx context.Context, user models.User, id string) error {
	if user.Role != models.UserRoleOwner {
		ok, err := s.resources.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}
		return nil
	}
	_, err := s.Access(ctx, user, id)
	return err
}

func (s *PropertyService) List(ctx context.Context, user models.User, filter repository.ResourceFilter, page repository.Page) ([]models.Resource, int64, error) {
	if user.Role == models.UserRoleOwner {
		filter.OwnerUserID = user.ID
	}
	return s.resources.List(ctx, filter, page)
}

func (s *PropertyService) Children(ctx context.Context, user models.User, id string) ([]models.Resource, error) {
	if err := s.CheckAccess(ctx, user, id); err != nil {
		return nil, err
	}
	return s.resources.Children(ctx, id)
}

// Create stores a resource and its owners. An OWNER creating a resource is
// added as an owner when the payload leaves them out.
func (s *PropertyService) Create(ctx context.Context, user models.User, resource models.Resource) (models.Resource, error) {
	if resource.ParentID != nil {
		if err := s.CheckAccess(ctx, user, *resource.ParentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return models.Resource{}, rule("Parent property not found.")
			}
			return models.Resource{}, err
		}
	}

	if user.Role == models.UserRoleOwner && !ownsDirectly(resource.Owners, user.ID) {
		userID := user.ID
		resource.Owners = append(resource.Owners, models.ResourceOwner{UserID: &userID})
	}
	if err := checkShares(resource.Owners); err != nil {
		return models.Resource{}, err
	}

	if err := s.resources.Create(ctx, &resource); err != nil {
		return models.Resource{}, err
	}
	return s.resources.GetByID(ctx, resource.ID)
}

// Update overwrites the given columns. A parent change may not create a cycle.
func (s *PropertyService) Update(ctx context.Context, user models.User, id string, fields map[string]any) (models.Resource, error) {
	if _, err := s.Access(ctx, user, id); err != nil {
		return models.Resource{}, err
	}

	if parentID, ok := fields["parent_id"].(*string); ok && parentID != nil {
		if err := s.checkParent(ctx, user, id, *parentID); err != nil {
			return models.Resource{}, err
		}
	}

	return s.resources.Update(ctx, id, fields)
}

func (s *PropertyService) ReplaceOwners(ctx context.Context, user models.User, id string, owners []models.ResourceOwner) (models.Resource, error) {
	if _, err := s.Access(ctx, user, id); err != nil {
		return models.Resource{}, err
	}
	if user.Role == models.UserRoleOwner && !ownsDirectly(owners, user.ID) {
		return models.Resource{}, rule("You cannot remove yourself from the owners of a property you manage as owner.")
	}
	if err := checkShares(owners); err != nil {
		return models.Resource{}, err
	}
	return s.resources.ReplaceOwners(ctx, id, owners)
}

// Delete runs the guarded delete and drops the stored documents of the resource.
func (s *PropertyService) Delete(ctx context.Context, user models.User, id string) error {
	if _, err := s.Access(ctx, user, id); err != nil {
		return err
	}

	docs, err := s.resources.DeleteGuarded(ctx, id)
	switch {
	case errors.Is(err, repository.ErrResourceHasChildren):
		return rule("Cannot delete property with child properties. Please delete or reassign child properties first.")
	case errors.Is(err, repository.ErrResourceHasContracts):
		return rule("Cannot delete property with rental contracts. Please terminate or remove the contracts first.")
	case errors.Is(err, repository.ErrResourceHasEvents):
		return rule("Cannot delete property with events. Please delete the events first.")
	case err != nil:
		return err
	}

	if s.documents != nil && len(docs) > 0 {
		s.documents.RemoveObjects(ctx, docs)
	}
	return nil
}

func (s *PropertyService) checkParent(ctx context.Context, user models.User, id, parentID string) error {
	if parentID == id {
		return rule("A property cannot be its own parent.")
	}
	if err := s.CheckAccess(ctx, user, parentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return rule("Parent property not found.")
		}
		return err
	}

	// Walk up from the new parent; meeting id means the move would close a loop.
	seen := map[string]struct{}{}
	current := parentID
	for current != "" {
		if current == id {
			return rule("A property cannot be moved below one of its own descendants.")
		}
		if _, ok := seen[current]; ok {
			break
		}
		seen[current] = struct{}{}

		ancestor, err := s.resources.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				break
			}
			return err
		}
		if ancestor.ParentID == nil {
			break
		}
		current = *ancestor.ParentID
	}
	return nil
}

func ownsDirectly(owners []models.ResourceOwner, userID string) bool {
	for _, owner := range owners {
		if owner.UserID != nil && *owner.UserID == userID {
			return true
		}
	}
	return false
}

func checkShares(owners []models.ResourceOwner) error {
	total := decimal.Zero
	for _, owner := range owners {
		if owner.SharePercent != nil {
			total = total.Add(*owner.SharePercent)
		}
	}
	if total.GreaterThan(hundred) {
		return rule("Owner shares cannot exceed 100 percent.")
	}
	return nil
}
