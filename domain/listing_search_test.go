package domain

import (
	"net/url"
	"testing"
)

func TestParseListingSearchDefaults(t *testing.T) {
	search := ParseListingSearch(url.Values{})

	if search.SearchTerm != "" {
		t.Errorf("expected empty search term, got %q", search.SearchTerm)
	}
	if search.Offer != nil || search.Furnished != nil || search.Parking != nil {
		t.Error("expected boolean filters to default to don't-care")
	}
	if search.Type != "" {
		t.Errorf("expected no type filter, got %q", search.Type)
	}
	if search.Sort != "createdAt" {
		t.Errorf("expected default sort createdAt, got %q", search.Sort)
	}
	if search.Order != "desc" {
		t.Errorf("expected default order desc, got %q", search.Order)
	}
	if search.Limit != 9 {
		t.Errorf("expected default limit 9, got %d", search.Limit)
	}
	if search.StartIndex != 0 {
		t.Errorf("expected default startIndex 0, got %d", search.StartIndex)
	}
}

func TestParseListingSearchFalseMeansDontCare(t *testing.T) {
	// "offer=false" is treated the same as omitting the parameter
	explicit := ParseListingSearch(url.Values{"offer": {"false"}, "furnished": {"false"}, "parking": {"false"}})
	omitted := ParseListingSearch(url.Values{})

	if explicit.Offer != nil || explicit.Furnished != nil || explicit.Parking != nil {
		t.Error("explicit false must not install a filter")
	}
	if omitted.Offer != nil {
		t.Error("omitted parameter must not install a filter")
	}
}

func TestParseListingSearchTrueFilters(t *testing.T) {
	search := ParseListingSearch(url.Values{"offer": {"true"}, "furnished": {"true"}})

	if search.Offer == nil || !*search.Offer {
		t.Error("offer=true must filter for offers")
	}
	if search.Furnished == nil || !*search.Furnished {
		t.Error("furnished=true must filter for furnished listings")
	}
	if search.Parking != nil {
		t.Error("parking was not supplied and must stay don't-care")
	}
}

func TestParseListingSearchType(t *testing.T) {
	if search := ParseListingSearch(url.Values{"type": {"rent"}}); search.Type != Rent {
		t.Errorf("expected type rent, got %q", search.Type)
	}
	if search := ParseListingSearch(url.Values{"type": {"all"}}); search.Type != "" {
		t.Errorf(`"all" must not install a type filter, got %q`, search.Type)
	}
}

func TestParseListingSearchPagination(t *testing.T) {
	search := ParseListingSearch(url.Values{
		"limit":      {"5"},
		"startIndex": {"10"},
		"sort":       {"regularPrice"},
		"order":      {"asc"},
	})

	if search.Limit != 5 {
		t.Errorf("expected limit 5, got %d", search.Limit)
	}
	if search.StartIndex != 10 {
		t.Errorf("expected startIndex 10, got %d", search.StartIndex)
	}
	if search.Sort != "regularPrice" {
		t.Errorf("expected sort regularPrice, got %q", search.Sort)
	}
	if search.Order != "asc" {
		t.Errorf("expected order asc, got %q", search.Order)
	}
}

func TestParseListingSearchRejectsGarbagePagination(t *testing.T) {
	search := ParseListingSearch(url.Values{
		"limit":      {"bogus"},
		"startIndex": {"-3"},
		"order":      {"sideways"},
	})

	if search.Limit != 9 {
		t.Errorf("unparseable limit must fall back to 9, got %d", search.Limit)
	}
	if search.StartIndex != 0 {
		t.Errorf("negative startIndex must fall back to 0, got %d", search.StartIndex)
	}
	if search.Order != "desc" {
		t.Errorf("unknown order must fall back to desc, got %q", search.Order)
	}
}

func validListing() *Listing {
	return &Listing{
		Name:         "Sunny villa",
		Description:  "A sunny villa near the beach",
		Address:      "1 Beach Road",
		Type:         Sale,
		Bedrooms:     3,
		Bathrooms:    2,
		RegularPrice: 10000,
		ImageURLs:    []string{"https://images.example.com/villa.jpg"},
	}
}

func TestListingValidateAcceptsValid(t *testing.T) {
	if err := validListing().Validate(); err != nil {
		t.Fatalf("expected valid listing, got %q", err.Message)
	}
}

func TestListingValidateDiscountInvariant(t *testing.T) {
	listing := validListing()
	listing.Offer = true
	listing.RegularPrice = 10000
	listing.DiscountPrice = 12000

	if err := listing.Validate(); err == nil {
		t.Fatal("discount above regular price must be rejected when offer is set")
	}

	// without the offer flag the discount is ignored
	listing.Offer = false
	if err := listing.Validate(); err != nil {
		t.Fatalf("discount must not be checked without offer, got %q", err.Message)
	}
}

func TestListingValidateImageBounds(t *testing.T) {
	listing := validListing()

	listing.ImageURLs = nil
	if err := listing.Validate(); err == nil {
		t.Fatal("a listing without images must be rejected")
	}

	listing.ImageURLs = make([]string, 7)
	for i := range listing.ImageURLs {
		listing.ImageURLs[i] = "https://images.example.com/img.jpg"
	}
	if err := listing.Validate(); err == nil {
		t.Fatal("a listing with seven images must be rejected")
	}

	listing.ImageURLs = listing.ImageURLs[:6]
	if err := listing.Validate(); err != nil {
		t.Fatalf("six images must be accepted, got %q", err.Message)
	}
}

func TestListingValidateRequiredFields(t *testing.T) {
	listing := validListing()
	listing.Name = ""
	if err := listing.Validate(); err == nil {
		t.Fatal("missing name must be rejected")
	}

	listing = validListing()
	listing.Type = "lease"
	if err := listing.Validate(); err == nil {
		t.Fatal("unknown listing type must be rejected")
	}

	listing = validListing()
	listing.Bedrooms = 0
	if err := listing.Validate(); err == nil {
		t.Fatal("zero bedrooms must be rejected")
	}
}

func TestGenerateUsername(t *testing.T) {
	first := GenerateUsername("Jane Doe")
	second := GenerateUsername("Jane Doe")

	if len(first) != len("janedoe")+4 {
		t.Errorf("unexpected username shape: %q", first)
	}
	if first == second {
		t.Error("two generated usernames for the same name must differ")
	}
}
