package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/cache"
	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
	"github.com/jcchakradhar/homenest/storage"
)

const MaxListingImages = 6

type ListingService struct {
	store   domain.ListingStore
	images  *cache.ImageCache
	storage *storage.FileStorage
	logger  *logrus.Logger
	tracer  trace.Tracer
}

func NewListingService(store domain.ListingStore, images *cache.ImageCache, fileStorage *storage.FileStorage, logger *logrus.Logger, tracer trace.Tracer) *ListingService {
	return &ListingService{
		store:   store,
		images:  images,
		storage: fileStorage,
		logger:  logger,
		tracer:  tracer,
	}
}

// Create persists a new listing owned by the authenticated caller. The
// owner reference always comes from the verified identity, never from the
// request body.
func (service *ListingService) Create(ctx context.Context, listing *domain.Listing, identity *domain.Identity) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Create")
	defer span.End()

	listing.UserRef = identity.ID

	if err := listing.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewValidation(err.Message)
	}

	created, err := service.store.Insert(ctx, listing)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("ListingService.Create : %s", err)
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	service.logger.Infof("ListingService.Create : listing %s created by %s", created.ID.Hex(), identity.ID)
	return created, nil
}

func (service *ListingService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Get")
	defer span.End()

	listing, err := service.store.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound(errors.ListingNotFound)
		}
		return nil, errors.NewInternal(errors.DatabaseError)
	}
	return listing, nil
}

// Update merges the supplied fields into the stored listing after the
// ownership check. Identity, owner and timestamps cannot be overridden.
func (service *ListingService) Update(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}, identity *domain.Identity) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Update")
	defer span.End()

	existing, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.UserRef != identity.ID {
		span.SetStatus(codes.Error, errors.NotYourListing)
		return nil, errors.NewForbidden(errors.NotYourListing)
	}

	for key := range fields {
		switch key {
		case "_id", "id", "userRef", "createdAt", "updatedAt":
			delete(fields, key)
		}
	}

	if err := decodeFields(fields, existing); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewValidation(err.Error())
	}

	if err := existing.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewValidation(err.Message)
	}

	updated, err := service.store.Update(ctx, existing)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("ListingService.Update : %s", err)
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	if service.images != nil {
		service.images.Invalidate(ctx, updated.ID.Hex())
	}

	return updated, nil
}

func (service *ListingService) Delete(ctx context.Context, id primitive.ObjectID, identity *domain.Identity) error {
	ctx, span := service.tracer.Start(ctx, "ListingService.Delete")
	defer span.End()

	existing, err := service.Get(ctx, id)
	if err != nil {
		return err
	}

	if existing.UserRef != identity.ID {
		span.SetStatus(codes.Error, errors.NotYourListing)
		return errors.NewForbidden(errors.NotYourListing)
	}

	if err := service.store.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("ListingService.Delete : %s", err)
		return errors.NewInternal(errors.DatabaseError)
	}

	if service.storage != nil {
		if err := service.storage.DeleteListingImages(ctx, id.Hex()); err != nil {
			service.logger.Errorf("ListingService.Delete : removing images of %s: %s", id.Hex(), err)
		}
	}
	if service.images != nil {
		service.images.Invalidate(ctx, id.Hex())
	}

	service.logger.Infof("ListingService.Delete : listing %s deleted by %s", id.Hex(), identity.ID)
	return nil
}

func (service *ListingService) Search(ctx context.Context, search *domain.ListingSearch) ([]*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.Search")
	defer span.End()

	listings, err := service.store.Search(ctx, search)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("ListingService.Search : %s", err)
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	// zero matches is an empty page, not an error
	if listings == nil {
		listings = []*domain.Listing{}
	}
	return listings, nil
}

func (service *ListingService) GetByOwner(ctx context.Context, userRef string) ([]*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.GetByOwner")
	defer span.End()

	listings, err := service.store.GetByOwner(ctx, userRef)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewInternal(errors.DatabaseError)
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}
	return listings, nil
}

// SaveImages stores the uploaded image files, appends their public URLs to
// the listing and persists it. The six-image cap holds across uploads.
func (service *ListingService) SaveImages(ctx context.Context, id primitive.ObjectID, identity *domain.Identity, images map[string][]byte) (*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.SaveImages")
	defer span.End()

	existing, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserRef != identity.ID {
		span.SetStatus(codes.Error, errors.NotYourListing)
		return nil, errors.NewForbidden(errors.NotYourListing)
	}

	if len(existing.ImageURLs)+len(images) > MaxListingImages {
		return nil, errors.NewValidation(errors.TooManyImages)
	}

	for originalName, content := range images {
		imageName := uuid.NewString() + extensionOf(originalName)
		if err := service.storage.SaveListingImage(ctx, id.Hex(), imageName, content); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, errors.NewInternal(errors.DatabaseError)
		}
		if err := service.images.Post(ctx, id.Hex(), imageName, content); err != nil {
			service.logger.Errorf("ListingService.SaveImages : caching %s: %s", imageName, err)
		}
		existing.ImageURLs = append(existing.ImageURLs, fmt.Sprintf("/api/listing/image/%s/%s", id.Hex(), imageName))
	}

	updated, err := service.store.Update(ctx, existing)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	if err := service.images.PostURLs(ctx, id.Hex(), updated.ImageURLs); err != nil {
		service.logger.Errorf("ListingService.SaveImages : caching urls: %s", err)
	}

	return updated, nil
}

func (service *ListingService) GetImage(ctx context.Context, listingID, imageName string) ([]byte, error) {
	ctx, span := service.tracer.Start(ctx, "ListingService.GetImage")
	defer span.End()

	if content, err := service.images.Get(ctx, listingID, imageName); err == nil {
		return content, nil
	}

	content, err := service.storage.GetImageContent(ctx, listingID, imageName)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewNotFound("Image not found")
	}

	if err := service.images.Post(ctx, listingID, imageName, content); err != nil {
		service.logger.Errorf("ListingService.GetImage : caching %s: %s", imageName, err)
	}

	return content, nil
}

func decodeFields(fields map[string]interface{}, target *domain.Listing) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}

func extensionOf(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
