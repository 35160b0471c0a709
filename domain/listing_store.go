package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ListingStore interface {
	Insert(ctx context.Context, listing *Listing) (*Listing, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Listing, error)
	Update(ctx context.Context, listing *Listing) (*Listing, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, search *ListingSearch) ([]*Listing, error)
	GetByOwner(ctx context.Context, userRef string) ([]*Listing, error)
}
