package domain

import (
	"net/url"
	"strconv"
)

const (
	DefaultSearchLimit = 9
	DefaultSortField   = "createdAt"
)

// ListingSearch holds the filter/sort/pagination parameters of a listing
// search. Nil boolean filters mean "don't care".
type ListingSearch struct {
	SearchTerm string
	Offer      *bool
	Furnished  *bool
	Parking    *bool
	Type       ListingType
	Sort       string
	Order      string
	Limit      int64
	StartIndex int64
}

// ParseListingSearch builds a ListingSearch from raw query parameters.
// A boolean parameter that is absent or literally "false" applies no filter,
// any other value restricts the search to listings where the flag is set.
func ParseListingSearch(values url.Values) *ListingSearch {
	search := &ListingSearch{
		SearchTerm: values.Get("searchTerm"),
		Offer:      parseFlag(values, "offer"),
		Furnished:  parseFlag(values, "furnished"),
		Parking:    parseFlag(values, "parking"),
		Sort:       values.Get("sort"),
		Order:      values.Get("order"),
		Limit:      parseIndex(values, "limit", DefaultSearchLimit),
		StartIndex: parseIndex(values, "startIndex", 0),
	}

	listingType := values.Get("type")
	if listingType != "" && listingType != "all" {
		search.Type = ListingType(listingType)
	}

	if search.Sort == "" {
		search.Sort = DefaultSortField
	}
	if search.Order != "asc" {
		search.Order = "desc"
	}

	return search
}

func parseFlag(values url.Values, name string) *bool {
	value := values.Get(name)
	if value == "" || value == "false" {
		return nil
	}
	flag := true
	return &flag
}

func parseIndex(values url.Values, name string, fallback int64) int64 {
	value := values.Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
