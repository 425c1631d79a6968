package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/sousadrivikis20-lab/Alugabv/internal/app/authz"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/blobstore"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

var (
	errPropertyNotFound     = common.NotFound("property not found")
	errNeighborhoodRequired = common.Validation("neighborhood is required")
)

type PropertyService struct {
	properties repository.PropertyRepository
	blobs      blobstore.Store
	filter     ContentFilter
	maxImages  int
	log        logging.Logger
}

func NewPropertyService(
	properties repository.PropertyRepository,
	blobs blobstore.Store,
	filter ContentFilter,
	maxImages int,
	log logging.Logger,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		blobs:      blobs,
		filter:     filter,
		maxImages:  maxImages,
		log:        log,
	}
}

func (s *PropertyService) List(ctx context.Context) ([]model.Property, error) {
	return s.properties.ListAll(ctx)
}

func (s *PropertyService) Get(ctx context.Context, id string) (*model.Property, error) {
	return s.properties.FindByID(ctx, id)
}

// Create publishes a listing owned by user. Images are uploaded only after
// every check passed and are reclaimed if the insert fails.
func (s *PropertyService) Create(ctx context.Context, user *model.SessionUser, draft *model.Property, images []blobstore.Object) (*model.Property, error) {
	if err := authz.CanCreateProperty(user); err != nil {
		return nil, err
	}
	draft.ApplyDefaults()
	if draft.Neighborhood == nil || strings.TrimSpace(*draft.Neighborhood) == "" {
		return nil, errNeighborhoodRequired
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := s.screen(draft.Name, draft.Description); err != nil {
		return nil, err
	}
	if err := s.checkImageCount(len(images)); err != nil {
		return nil, err
	}

	urls, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}
	draft.ID = uuid.NewString()
	draft.OwnerID = user.ID
	draft.OwnerUsername = user.Username
	draft.Images = urls

	if err := s.properties.Create(ctx, draft); err != nil {
		s.reclaim(ctx, urls)
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.log.Info(ctx, "property created", "property_id", draft.ID, "owner_id", user.ID, "images", len(urls))
	return s.properties.FindByID(ctx, draft.ID)
}

// Update applies a partial update. New images are appended to the stored list.
func (s *PropertyService) Update(ctx context.Context, user *model.SessionUser, id string, upd model.PropertyUpdate, images []blobstore.Object) (*model.Property, error) {
	current, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModifyProperty(user, current); err != nil {
		return nil, err
	}
	if err := s.screen(upd.Name.Value, upd.Description.Value); err != nil {
		return nil, err
	}
	// legacy rows may lack a neighborhood, but an update cannot remove one
	if upd.Neighborhood.Set && (upd.Neighborhood.Value == nil || strings.TrimSpace(*upd.Neighborhood.Value) == "") {
		return nil, errNeighborhoodRequired
	}

	merged := *current
	upd.ApplyTo(&merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if upd.IsEmpty() && len(images) == 0 {
		return current, nil
	}
	if err := s.checkImageCount(len(images)); err != nil {
		return nil, err
	}

	urls, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}
	if len(urls) > 0 {
		upd.Images = model.Some(append(slices.Clone(current.Images), urls...))
	}

	updated, err := s.properties.Update(ctx, id, upd, user.Actor())
	if err != nil {
		s.reclaim(ctx, urls)
		return nil, err
	}
	s.log.Info(ctx, "property updated", "property_id", id, "user_id", user.ID)
	return updated, nil
}

// Delete removes the listing and then its stored images.
func (s *PropertyService) Delete(ctx context.Context, user *model.SessionUser, id string) error {
	current, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanModifyProperty(user, current); err != nil {
		return err
	}
	n, err := s.properties.Delete(ctx, id, user.Actor())
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if n == 0 {
		return errPropertyNotFound
	}
	s.reclaim(ctx, current.Images)
	s.log.Info(ctx, "property deleted", "property_id", id, "user_id", user.ID)
	return nil
}

// RemoveImage detaches ref from the listing. Removing an image that is not
// attached returns the listing unchanged.
func (s *PropertyService) RemoveImage(ctx context.Context, user *model.SessionUser, id, ref string) (*model.Property, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, common.BadRequest("imagePath is required")
	}
	current, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModifyProperty(user, current); err != nil {
		return nil, err
	}
	updated, removed, err := s.properties.RemoveImage(ctx, id, ref, user.Actor())
	if err != nil {
		return nil, err
	}
	if removed {
		if err := s.blobs.DeleteOne(ctx, ref); err != nil {
			s.log.Warn(ctx, "failed to delete image", "property_id", id, "err", err)
		}
	}
	return updated, nil
}

func (s *PropertyService) screen(texts ...string) error {
	for _, t := range texts {
		if t != "" && s.filter.IsProfane(t) {
			return common.Validation("listing contains disallowed words")
		}
	}
	return nil
}

func (s *PropertyService) checkImageCount(n int) error {
	if s.maxImages > 0 && n > s.maxImages {
		return common.Validation(fmt.Sprintf("at most %d images per request", s.maxImages))
	}
	return nil
}

// upload stores every image or none: on failure the ones already stored are
// deleted again.
func (s *PropertyService) upload(ctx context.Context, images []blobstore.Object) ([]string, error) {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s.blobs.Upload(ctx, img)
		if err != nil {
			s.reclaim(ctx, urls)
			return nil, fmt.Errorf("failed to upload image %q: %w", img.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *PropertyService) reclaim(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := s.blobs.DeleteMany(ctx, urls); err != nil {
		s.log.Warn(ctx, "failed to delete stored images", "count", len(urls), "err", err)
	}
}
