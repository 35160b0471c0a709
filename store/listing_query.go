package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcchakradhar/homenest/domain"
)

// BuildListingFilter translates search parameters into a Mongo filter
// document. SearchTerm is a case-insensitive substring match on the listing
// name; an empty term matches everything. Boolean parameters left nil apply
// no constraint at all, so "offer=false" selects listings of both kinds.
func BuildListingFilter(search *domain.ListingSearch) bson.M {
	filter := bson.M{
		"name": primitive.Regex{Pattern: search.SearchTerm, Options: "i"},
	}

	if search.Offer != nil {
		filter["offer"] = *search.Offer
	}
	if search.Furnished != nil {
		filter["furnished"] = *search.Furnished
	}
	if search.Parking != nil {
		filter["parking"] = *search.Parking
	}
	if search.Type != "" {
		filter["type"] = search.Type
	}

	return filter
}

// BuildListingFindOptions maps sort/limit/startIndex onto find options.
// The sort field is passed through as-is; _id is appended as a secondary
// sort key so that pagination stays stable across calls.
func BuildListingFindOptions(search *domain.ListingSearch) *options.FindOptions {
	direction := -1
	if search.Order == "asc" {
		direction = 1
	}

	sort := bson.D{{Key: search.Sort, Value: direction}}
	if search.Sort != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: direction})
	}

	return options.Find().
		SetSort(sort).
		SetLimit(search.Limit).
		SetSkip(search.StartIndex)
}
