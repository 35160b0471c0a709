package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultAvatar = "https://img.freepik.com/free-vector/blue-circle-with-white-user_78370-4707.jpg"

type ListingType string

const (
	Rent = "rent"
	Sale = "sale"
)

type Listing struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name" validate:"required"`
	Description   string             `bson:"description" json:"description" validate:"required"`
	Address       string             `bson:"address" json:"address" validate:"required"`
	Type          ListingType        `bson:"type" json:"type" validate:"required,oneof=rent sale"`
	Bedrooms      int                `bson:"bedrooms" json:"bedrooms" validate:"required,min=1"`
	Bathrooms     int                `bson:"bathrooms" json:"bathrooms" validate:"required,min=1"`
	RegularPrice  float64            `bson:"regularPrice" json:"regularPrice" validate:"required,gt=0"`
	DiscountPrice float64            `bson:"discountPrice" json:"discountPrice" validate:"min=0"`
	Offer         bool               `bson:"offer" json:"offer"`
	Parking       bool               `bson:"parking" json:"parking"`
	Furnished     bool               `bson:"furnished" json:"furnished"`
	ImageURLs     []string           `bson:"imageUrls" json:"imageUrls" validate:"required,min=1,max=6"`
	UserRef       string             `bson:"userRef" json:"userRef"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username   string             `bson:"username" json:"username" validate:"required"`
	Email      string             `bson:"email" json:"email" validate:"required"`
	Password   string             `bson:"password,omitempty" json:"password,omitempty"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	ExternalID string             `bson:"externalId,omitempty" json:"externalId,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the canonical authenticated caller, regardless of which
// provider verified the credential.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type Claims struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ValidationError struct {
	Message string `json:"message"`
}

func (v *ValidationError) Error() string {
	return v.Message
}

func (listing *Listing) Validate() *ValidationError {
	validate := validator.New()

	if err := validate.Struct(listing); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			field := errs[0]
			return &ValidationError{Message: fmt.Sprintf("Invalid value for field '%s'", field.Field())}
		}
		return &ValidationError{Message: err.Error()}
	}

	if listing.Offer && listing.DiscountPrice > listing.RegularPrice {
		return &ValidationError{Message: "Discount price must be lower than regular price"}
	}

	return nil
}

func (user *User) ValidateUser() *ValidationError {
	emailRegex := regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

	if user.Username == "" {
		return &ValidationError{Message: "Username cannot be empty"}
	}
	if !usernameRegex.MatchString(user.Username) {
		return &ValidationError{Message: "Invalid username format. It must be 3-30 characters long and contain only letters, numbers, dots, underscores, and hyphens"}
	}

	if user.Email == "" {
		return &ValidationError{Message: "Email cannot be empty"}
	}
	if !emailRegex.MatchString(user.Email) {
		return &ValidationError{Message: "Invalid email format"}
	}

	return nil
}

func (listing *Listing) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(listing)
}

func (user *User) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(user)
}

// WithoutPassword returns a copy safe to send back to clients.
func (user *User) WithoutPassword() *User {
	rest := *user
	rest.Password = ""
	return &rest
}

// GenerateUsername derives a unique username from a display name, the way
// federated sign-ups name accounts they create on first sight.
func GenerateUsername(name string) string {
	base := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if at := strings.Index(base, "@"); at > 0 {
		base = base[:at]
	}
	suffix := uuid.NewString()[:4]
	return base + suffix
}
