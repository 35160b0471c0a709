package authorization

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
)

// IdentityResolver turns a raw credential into the canonical identity.
// Handlers never learn which provider verified the caller.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
}

// LocalResolver verifies tokens this service issued itself.
type LocalResolver struct {
	key []byte
}

func NewLocalResolver(secretKey string) *LocalResolver {
	return &LocalResolver{key: []byte(secretKey)}
}

func (resolver *LocalResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := ParseClaims(token, resolver.key)
	if err != nil {
		return nil, errors.NewForbidden(errors.InvalidTokenError)
	}

	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.NewForbidden(errors.InvalidTokenError)
	}

	return &domain.Identity{
		ID:       claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

type externalUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// ExternalResolver verifies tokens against the hosted identity provider and
// reconciles the external account with the local user record, so the
// identity it returns always points at a local user.
type ExternalResolver struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	users      domain.UserStore
	cb         *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	tracer     trace.Tracer
}

func NewExternalResolver(baseURL, apiKey string, users domain.UserStore, logger *logrus.Logger, tracer trace.Tracer) *ExternalResolver {
	return &ExternalResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		users:      users,
		cb:         CircuitBreaker("identityProvider"),
		logger:     logger,
		tracer:     tracer,
	}
}

func (resolver *ExternalResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	ctx, span := resolver.tracer.Start(ctx, "ExternalResolver.Resolve")
	defer span.End()

	result, err := resolver.cb.Execute(func() (interface{}, error) {
		return resolver.fetchUser(ctx, token)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var statusErr *errors.StatusError
		if stderrors.As(err, &statusErr) {
			return nil, statusErr
		}
		resolver.logger.Errorf("ExternalResolver.Resolve : provider call failed: %s", err)
		return nil, errors.NewInternal(errors.IdentityProviderError)
	}

	return resolver.reconcile(ctx, result.(*externalUser))
}

func (resolver *ExternalResolver) fetchUser(ctx context.Context, token string) (*externalUser, error) {
	endpoint := fmt.Sprintf("%s/auth/v1/user", resolver.baseURL)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("apikey", resolver.apiKey)

	response, err := resolver.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return nil, errors.NewForbidden(errors.InvalidTokenError)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", response.StatusCode)
	}

	var user externalUser
	if err := json.NewDecoder(response.Body).Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.NewForbidden(errors.InvalidTokenError)
	}
	return &user, nil
}

// reconcile maps the provider account onto the local user collection,
// creating the local record on first sight.
func (resolver *ExternalResolver) reconcile(ctx context.Context, external *externalUser) (*domain.Identity, error) {
	user, err := resolver.users.GetByExternalID(ctx, external.ID)
	if err == nil {
		return identityOf(user), nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	user, err = resolver.users.GetByEmail(ctx, external.Email)
	if err == nil {
		user.ExternalID = external.ID
		if _, err := resolver.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return identityOf(user), nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	username := external.UserMetadata.FullName
	if username == "" {
		username = external.Email
	}
	created, err := resolver.users.Insert(ctx, &domain.User{
		Username:   domain.GenerateUsername(username),
		Email:      external.Email,
		ExternalID: external.ID,
	})
	if err != nil {
		return nil, err
	}
	resolver.logger.Infof("ExternalResolver.reconcile : created local user %s for external account", created.ID.Hex())
	return identityOf(created), nil
}

func identityOf(user *domain.User) *domain.Identity {
	return &domain.Identity{
		ID:       user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
	}
}

// ChainResolver tries each resolver in turn, keeping the first success.
type ChainResolver struct {
	resolvers []IdentityResolver
}

func NewChainResolver(resolvers ...IdentityResolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

func (chain *ChainResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	var lastErr error
	for _, resolver := range chain.resolvers {
		identity, err := resolver.Resolve(ctx, token)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.NewForbidden(errors.InvalidTokenError)
	}
	return nil, lastErr
}

// CachedResolver memoizes successful verifications so repeated requests with
// the same token skip the provider round trip.
type CachedResolver struct {
	next  IdentityResolver
	cache *ttlcache.Cache[string, *domain.Identity]
}

func NewCachedResolver(next IdentityResolver, ttl time.Duration) *CachedResolver {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.Identity](ttl),
		ttlcache.WithDisableTouchOnHit[string, *domain.Identity](),
	)
	go cache.Start()

	return &CachedResolver{
		next:  next,
		cache: cache,
	}
}

func (resolver *CachedResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	if item := resolver.cache.Get(token); item != nil {
		return item.Value(), nil
	}

	identity, err := resolver.next.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	resolver.cache.Set(token, identity, ttlcache.DefaultTTL)
	return identity, nil
}

func CircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var statusErr *errors.StatusError
				return stderrors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500
			},
		},
	)
}
