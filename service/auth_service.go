package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/jcchakradhar/homenest/authorization"
	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
)

type AuthService struct {
	store     domain.UserStore
	secretKey []byte
	logger    *logrus.Logger
	tracer    trace.Tracer
}

func NewAuthService(store domain.UserStore, secretKey string, logger *logrus.Logger, tracer trace.Tracer) *AuthService {
	return &AuthService{
		store:     store,
		secretKey: []byte(secretKey),
		logger:    logger,
		tracer:    tracer,
	}
}

func (service *AuthService) Signup(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	if err := user.ValidateUser(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewValidation(err.Message)
	}
	if user.Password == "" {
		return nil, errors.NewValidation("Password cannot be empty")
	}

	if _, err := service.store.GetByEmail(ctx, user.Email); err == nil {
		span.SetStatus(codes.Error, errors.EmailAlreadyExist)
		return nil, errors.NewConflict(errors.EmailAlreadyExist)
	} else if err != mongo.ErrNoDocuments {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	if _, err := service.store.GetByUsername(ctx, user.Username); err == nil {
		span.SetStatus(codes.Error, errors.UsernameExist)
		return nil, errors.NewConflict(errors.UsernameExist)
	} else if err != mongo.ErrNoDocuments {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.NewInternal(errors.DatabaseError)
	}
	user.Password = string(hash)

	created, err := service.store.Insert(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("AuthService.Signup : %s", err)
		return nil, errors.NewInternal(errors.DatabaseError)
	}

	service.logger.Infof("AuthService.Signup : user %s registered", created.ID.Hex())
	return created.WithoutPassword(), nil
}

// Signin checks the password and issues a fresh access token.
func (service *AuthService) Signin(ctx context.Context, email, password string) (*domain.User, string, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.Signin")
	defer span.End()

	user, err := service.store.GetByEmail(ctx, email)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if err == mongo.ErrNoDocuments {
			return nil, "", errors.NewUnauthorized(errors.InvalidCredentials)
		}
		return nil, "", errors.NewInternal(errors.DatabaseError)
	}

	if user.Password == "" {
		// federated account without a local password
		span.SetStatus(codes.Error, errors.InvalidCredentials)
		return nil, "", errors.NewUnauthorized(errors.InvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		span.SetStatus(codes.Error, errors.InvalidCredentials)
		return nil, "", errors.NewUnauthorized(errors.InvalidCredentials)
	}

	token, err := authorization.GenerateJWT(user, service.secretKey)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Errorf("AuthService.Signin : generating token: %s", err)
		return nil, "", errors.NewInternal(errors.DatabaseError)
	}

	return user.WithoutPassword(), token, nil
}

// Google signs a federated user in, creating the local account on first
// sight. The generated password is random and never disclosed.
func (service *AuthService) Google(ctx context.Context, name, email, photo string) (*domain.User, string, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.Google")
	defer span.End()

	if email == "" {
		return nil, "", errors.NewValidation("Email cannot be empty")
	}

	user, err := service.store.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if hashErr != nil {
			span.SetStatus(codes.Error, hashErr.Error())
			return nil, "", errors.NewInternal(errors.DatabaseError)
		}

		user, err = service.store.Insert(ctx, &domain.User{
			Username: domain.GenerateUsername(name),
			Email:    email,
			Password: string(hash),
			Avatar:   photo,
		})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			service.logger.Errorf("AuthService.Google : %s", err)
			return nil, "", errors.NewInternal(errors.DatabaseError)
		}
		service.logger.Infof("AuthService.Google : user %s created", user.ID.Hex())
	} else if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", errors.NewInternal(errors.DatabaseError)
	}

	token, err := authorization.GenerateJWT(user, service.secretKey)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", errors.NewInternal(errors.DatabaseError)
	}

	return user.WithoutPassword(), token, nil
}
