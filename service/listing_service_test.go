package application

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/domain"
	"github.com/jcchakradhar/homenest/errors"
)

type fakeListingStore struct {
	listings map[primitive.ObjectID]*domain.Listing
	inserts  int
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: map[primitive.ObjectID]*domain.Listing{}}
}

func (store *fakeListingStore) Insert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	store.inserts++
	listing.ID = primitive.NewObjectID()
	saved := *listing
	store.listings[listing.ID] = &saved
	return listing, nil
}

func (store *fakeListingStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	listing, ok := store.listings[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *listing
	return &copied, nil
}

func (store *fakeListingStore) Update(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	if _, ok := store.listings[listing.ID]; !ok {
		return nil, mongo.ErrNoDocuments
	}
	saved := *listing
	store.listings[listing.ID] = &saved
	return listing, nil
}

func (store *fakeListingStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := store.listings[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(store.listings, id)
	return nil
}

func (store *fakeListingStore) Search(ctx context.Context, search *domain.ListingSearch) ([]*domain.Listing, error) {
	return nil, nil
}

func (store *fakeListingStore) GetByOwner(ctx context.Context, userRef string) ([]*domain.Listing, error) {
	var matches []*domain.Listing
	for _, listing := range store.listings {
		if listing.UserRef == userRef {
			copied := *listing
			matches = append(matches, &copied)
		}
	}
	return matches, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newListingService(store domain.ListingStore) *ListingService {
	return NewListingService(store, nil, nil, quietLogger(), trace.NewNoopTracerProvider().Tracer("test"))
}

func validListing() *domain.Listing {
	return &domain.Listing{
		Name:         "Cozy cottage",
		Description:  "Two bedroom cottage close to the river",
		Address:      "12 River Road",
		Type:         domain.Rent,
		Bedrooms:     2,
		Bathrooms:    1,
		RegularPrice: 1200,
		ImageURLs:    []string{"/api/listing/image/a/b.jpg"},
	}
}

func TestCreateForcesOwner(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	listing := validListing()
	listing.UserRef = "someone-else"

	created, err := service.Create(context.Background(), listing, &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatalf("creating valid listing: %s", err)
	}
	if created.UserRef != "owner-1" {
		t.Errorf("owner must come from the identity, got %q", created.UserRef)
	}
	if store.inserts != 1 {
		t.Errorf("expected one insert, got %d", store.inserts)
	}
}

func TestCreateRejectsBadDiscount(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	listing := validListing()
	listing.Offer = true
	listing.RegularPrice = 10000
	listing.DiscountPrice = 12000

	_, err := service.Create(context.Background(), listing, &domain.Identity{ID: "owner-1"})
	if err == nil {
		t.Fatal("discount above regular price must be rejected")
	}
	if errors.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", errors.StatusOf(err))
	}
	if store.inserts != 0 {
		t.Error("rejected listing must not reach the store")
	}
}

func TestGetNotFound(t *testing.T) {
	service := newListingService(newFakeListingStore())

	_, err := service.Get(context.Background(), primitive.NewObjectID())
	if err == nil {
		t.Fatal("missing listing must be an error")
	}
	if errors.StatusOf(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %d", errors.StatusOf(err))
	}
}

func TestUpdateMergesFields(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	created, err := service.Create(context.Background(), validListing(), &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := service.Update(context.Background(), created.ID, map[string]interface{}{
		"name":         "Renovated cottage",
		"regularPrice": 1500,
	}, &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatalf("updating own listing: %s", err)
	}

	if updated.Name != "Renovated cottage" {
		t.Errorf("name not merged, got %q", updated.Name)
	}
	if updated.RegularPrice != 1500 {
		t.Errorf("regularPrice not merged, got %v", updated.RegularPrice)
	}
	if updated.Address != created.Address {
		t.Errorf("untouched field changed, got %q", updated.Address)
	}
}

func TestUpdateIgnoresProtectedFields(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	created, err := service.Create(context.Background(), validListing(), &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := service.Update(context.Background(), created.ID, map[string]interface{}{
		"userRef": "intruder",
		"name":    "Still mine",
	}, &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatal(err)
	}

	if updated.UserRef != "owner-1" {
		t.Errorf("owner must not be writable, got %q", updated.UserRef)
	}
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	created, err := service.Create(context.Background(), validListing(), &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.Update(context.Background(), created.ID, map[string]interface{}{
		"name": "Hijacked",
	}, &domain.Identity{ID: "intruder"})
	if err == nil {
		t.Fatal("update by a non-owner must fail")
	}
	if errors.StatusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403, got %d", errors.StatusOf(err))
	}

	stored := store.listings[created.ID]
	if stored.Name != "Cozy cottage" {
		t.Errorf("rejected update must leave the record unchanged, got %q", stored.Name)
	}
}

func TestUpdateRejectsInvalidMerge(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	created, err := service.Create(context.Background(), validListing(), &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.Update(context.Background(), created.ID, map[string]interface{}{
		"offer":         true,
		"discountPrice": 99999,
	}, &domain.Identity{ID: "owner-1"})
	if err == nil {
		t.Fatal("merge leaving the listing invalid must fail")
	}
	if errors.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", errors.StatusOf(err))
	}
}

func TestDeleteRejectsNonOwner(t *testing.T) {
	store := newFakeListingStore()
	service := newListingService(store)

	created, err := service.Create(context.Background(), validListing(), &domain.Identity{ID: "owner-1"})
	if err != nil {
		t.Fatal(err)
	}

	err = service.Delete(context.Background(), created.ID, &domain.Identity{ID: "intruder"})
	if errors.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if _, ok := store.listings[created.ID]; !ok {
		t.Error("rejected delete must leave the record in place")
	}

	if err := service.Delete(context.Background(), created.ID, &domain.Identity{ID: "owner-1"}); err != nil {
		t.Fatalf("owner delete: %s", err)
	}
	if _, ok := store.listings[created.ID]; ok {
		t.Error("listing must be gone after the owner deletes it")
	}
}

func TestSearchEmptyPage(t *testing.T) {
	service := newListingService(newFakeListingStore())

	listings, err := service.Search(context.Background(), domain.ParseListingSearch(nil))
	if err != nil {
		t.Fatalf("empty search: %s", err)
	}
	if listings == nil {
		t.Fatal("zero matches must be an empty slice, not nil")
	}
	if len(listings) != 0 {
		t.Errorf("expected no listings, got %d", len(listings))
	}
}

func TestGetByOwnerEmptyPage(t *testing.T) {
	service := newListingService(newFakeListingStore())

	listings, err := service.GetByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if listings == nil {
		t.Fatal("zero matches must be an empty slice, not nil")
	}
}
