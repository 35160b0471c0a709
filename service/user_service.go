package application

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
)

type UserService struct {
	store    domain.UserStore
	listings domain.ListingStore
	logger   *logrus.Logger
	tracer   trace.Tracer
}

func NewUserService(store domain.UserStore, listings domain.ListingStore, logger *logrus.Logger, tracer trace.Tracer) *UserService {
	return &UserService{
		store:    store,
		listings: listings,
		logger:   logger,
		tracer:   tracer,
	}
}

func (service *UserService) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.Get")
	defer span.End()

	user, err := service.store.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound(errors.UserNotFound)
		}
		return nil, errors.NewInternal(errors.DatabaseError)
	}
	return user, nil
}

// Update lets a user change their own profile. A supplied password is
// re-hashed before it is stored.
func (service *UserService) Update(ctx context.Context, id primitive.ObjectID, payload *domain.User, identity *domain.Identity) (*domain.User, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.Update")
	defer span.End()

	if id.Hex() != identity.ID {
		span.SetStatus(codes.Error, errors.NotYourAccount)
		return nil, errors.NewForbidden(errors.NotYourAccount)
	}

	existing, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Username != "" {
		existing.Username = payload.Username
	}
	if payload.Email != "" {
		existing.Email = payload.Email
	}
	if payload.Avatar != "" {
		existing.Avatar = payload.Avatar
	}
	if payload.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, errors.NewInternal(errors.DatabaseError)
		}
		existing.Password = string(hash)
	}

	if err := existing.ValidateUser(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewValidation(err.Message)
	}

	updated, err := service.store.Update(ctx, existing)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("UserService.Update : %s", err)
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	return updated.WithoutPassword(), nil
}

func (service *UserService) Delete(ctx context.Context, id primitive.ObjectID, identity *domain.Identity) error {
	ctx, span := service.tracer.Start(ctx, "UserService.Delete")
	defer span.End()

	if id.Hex() != identity.ID {
		span.SetStatus(codes.Error, errors.NotYourAccount)
		return errors.NewForbidden(errors.NotYourAccount)
	}

	if err := service.store.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if err == mongo.ErrNoDocuments {
			return errors.NewNotFound(errors.UserNotFound)
		}
		service.logger.Errorf("UserService.Delete : %s", err)
		return errors.NewInternal(errors.DatabaseError)
	}

	service.logger.Infof("UserService.Delete : account %s deleted", id.Hex())
	return nil
}

// Listings returns the caller's own listings.
func (service *UserService) Listings(ctx context.Context, id primitive.ObjectID, identity *domain.Identity) ([]*domain.Listing, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.Listings")
	defer span.End()

	if id.Hex() != identity.ID {
		span.SetStatus(codes.Error, errors.NotYourAccount)
		return nil, errors.NewForbidden("You can only view your own listings")
	}

	listings, err := service.listings.GetByOwner(ctx, id.Hex())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewInternal(errors.DatabaseError)
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}
	return listings, nil
}
