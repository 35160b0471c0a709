package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcchakradhar/homenest/domain"
)

const (
	DATABASE           = "homenest"
	LISTING_COLLECTION = "listings"
)

type ListingMongoDBStore struct {
	listings *mongo.Collection
	tracer   trace.Tracer
}

func NewListingMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.ListingStore {
	listings := client.Database(DATABASE).Collection(LISTING_COLLECTION)
	return &ListingMongoDBStore{
		listings: listings,
		tracer:   tracer,
	}
}

func (store *ListingMongoDBStore) Insert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Insert")
	defer span.End()

	listing.ID = primitive.NewObjectID()
	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	result, err := store.listings.InsertOne(ctx, listing)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	listing.ID = result.InsertedID.(primitive.ObjectID)
	return listing, nil
}

func (store *ListingMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Get")
	defer span.End()

	filter := bson.M{"_id": id}
	return store.filterOne(ctx, filter)
}

func (store *ListingMongoDBStore) Update(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Update")
	defer span.End()

	listing.UpdatedAt = time.Now()

	filter := bson.M{"_id": listing.ID}
	update := bson.M{"$set": listing}

	result, err := store.listings.UpdateOne(ctx, filter, update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return listing, nil
}

func (store *ListingMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Delete")
	defer span.End()

	filter := bson.M{"_id": id}
	result, err := store.listings.DeleteOne(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (store *ListingMongoDBStore) Search(ctx context.Context, search *domain.ListingSearch) ([]*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.Search")
	defer span.End()

	filter := BuildListingFilter(search)
	opts := BuildListingFindOptions(search)

	cursor, err := store.listings.Find(ctx, filter, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeListings(ctx, cursor)
}

func (store *ListingMongoDBStore) GetByOwner(ctx context.Context, userRef string) ([]*domain.Listing, error) {
	ctx, span := store.tracer.Start(ctx, "ListingStore.GetByOwner")
	defer span.End()

	filter := bson.M{"userRef": userRef}
	cursor, err := store.listings.Find(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeListings(ctx, cursor)
}

func (store *ListingMongoDBStore) filterOne(ctx context.Context, filter interface{}) (listing *domain.Listing, err error) {
	result := store.listings.FindOne(ctx, filter)
	err = result.Decode(&listing)
	return
}

func decodeListings(ctx context.Context, cursor *mongo.Cursor) (listings []*domain.Listing, err error) {
	for cursor.Next(ctx) {
		var listing domain.Listing
		err = cursor.Decode(&listing)
		if err != nil {
			return
		}
		listings = append(listings, &listing)
	}
	err = cursor.Err()
	return
}
